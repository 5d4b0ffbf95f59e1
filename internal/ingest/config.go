package ingest

import "codeberg.org/mutker/measd/internal/errors"

// DefaultLimit is the buffer capacity used when none is configured.
const DefaultLimit = 5_000_000

type Config struct {
	// Limit is the maximum number of records buffered across all kinds
	Limit int
}

func DefaultConfig() Config {
	return Config{
		Limit: DefaultLimit,
	}
}

func (c Config) Validate() error {
	if c.Limit < 1 {
		return errors.New().WithData(errors.ErrInvalidBufferLimit, c.Limit)
	}
	return nil
}
