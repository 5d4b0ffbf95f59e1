package server

import (
	"time"

	"codeberg.org/mutker/measd/internal/errors"
)

const (
	DefaultListen      = ":50051"
	DefaultGracePeriod = 10 * time.Second
)

type Config struct {
	Listen string
	// GracePeriod bounds how long in-flight calls may finish on shutdown
	GracePeriod time.Duration
}

func DefaultConfig() Config {
	return Config{
		Listen:      DefaultListen,
		GracePeriod: DefaultGracePeriod,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Listen == "" {
		return errFactory.New(errors.ErrInvalidListenAddr)
	}
	if c.GracePeriod < 0 {
		return errFactory.WithData(ErrInvalidGrace, c.GracePeriod)
	}

	return nil
}
