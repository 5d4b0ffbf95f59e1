package storage

import (
	"time"

	"codeberg.org/mutker/measd/internal/errors"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	// File system permissions and paths
	defaultDirPerm         = 0o755
	defaultDSN             = "/var/lib/measd/measurements.db"
	defaultBackupDir       = "/var/lib/measd/backups"
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
)

type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BackupDir       string
}

func DefaultConfig() Config {
	return Config{
		Driver:          DriverSQLite,
		DSN:             defaultDSN,
		MaxOpenConns:    defaultMaxOpenConns,
		MaxIdleConns:    defaultMaxIdleConns,
		ConnMaxLifetime: defaultConnMaxLifetime,
		BackupDir:       defaultBackupDir,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return errFactory.WithData(ErrInvalidDriver, c.Driver)
	}
	if c.DSN == "" {
		return errFactory.New(ErrInvalidDSN)
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return errFactory.WithMessage(ErrInvalidConfig, "connection pool sizes must not be negative")
	}
	return nil
}
