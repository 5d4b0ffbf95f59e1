package metrics

import "codeberg.org/mutker/measd/internal/errors"

const defaultListen = ":9100"

type Config struct {
	Enabled bool
	Listen  string
}

func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Listen:  defaultListen,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate the listen address if metrics are served
	if c.Enabled && c.Listen == "" {
		return errFactory.New(ErrInvalidListen)
	}
	return nil
}
