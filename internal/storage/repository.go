package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/logger"
	"codeberg.org/mutker/measd/internal/measurement"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"k8s.io/utils/clock"
)

// Repository is the durable sink for admitted measurements.
type Repository interface {
	// Insert writes one row for m into its kind's table. It succeeds only
	// when exactly one row was affected.
	Insert(ctx context.Context, m *measurement.Measurement) error
	Close() error
}

type sqlRepository struct {
	db      *sql.DB
	dialect goqu.DialectWrapper
	clock   clock.PassiveClock
	log     logger.Logger
}

// Option adjusts how a repository is built
type Option func(*options)

type options struct {
	clock clock.PassiveClock
}

// WithClock sets the clock used for write_time
func WithClock(c clock.PassiveClock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func NewRepository(ctx context.Context, cfg Config, log logger.Logger, opts ...Option) (Repository, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	o := options{clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	log.Debug().
		Str("driver", cfg.Driver).
		Msg("Initializing measurement repository")

	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite {
		var err error
		if dsn, err = prepareSQLite(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if cfg.Driver == DriverSQLite && isMemoryDSN(cfg.DSN) {
		// Every sqlite connection to an in-memory database opens its own
		// empty database, so the pool must hold exactly one for good.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
		log.Debug().Msg("In-memory sqlite database, pool pinned to one connection")
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "ping",
			Error: err.Error(),
		})
	}

	repo := newRepository(db, goqu.Dialect(cfg.Driver), o.clock, log)

	// Validate if schema is current, with backup if needed
	if err := ValidateAndUpdateSchema(ctx, db, repo.dialect, cfg, o.clock.Now(), log); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	log.Info().
		Str("driver", cfg.Driver).
		Int("schema_version", SchemaVersion).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Measurement repository initialized")

	return repo, nil
}

func newRepository(db *sql.DB, dialect goqu.DialectWrapper, clk clock.PassiveClock, log logger.Logger) *sqlRepository {
	return &sqlRepository{
		db:      db,
		dialect: dialect,
		clock:   clk,
		log:     log,
	}
}

// prepareSQLite makes sure the database directory exists and enables WAL
// unless the DSN already carries options.
func prepareSQLite(dsn string) (string, error) {
	if isMemoryDSN(dsn) || strings.HasPrefix(dsn, "file:") {
		return dsn, nil
	}
	if strings.Contains(dsn, "?") {
		return dsn, nil
	}

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(dsn), defaultDirPerm); err != nil {
		return "", errors.New().WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  dsn,
			Error: err.Error(),
		})
	}

	return dsn + "?_journal=WAL&_busy_timeout=5000", nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" ||
		strings.HasPrefix(dsn, "file::memory:") ||
		strings.Contains(dsn, "mode=memory")
}

func (r *sqlRepository) Insert(ctx context.Context, m *measurement.Measurement) error {
	errFactory := errors.New()

	t, ok := tableFor(m.Kind())
	if !ok {
		return errFactory.WithData(ErrUnknownKind, m.Kind())
	}

	query, args, err := r.dialect.Insert(t.name).Prepared(true).
		Cols(colTimestamp, colWriteTime, t.mridColumn, colValue).
		Vals(goqu.Vals{m.Timestamp().UTC(), r.clock.Now().UTC(), m.MRID(), t.value(m)}).
		ToSQL()
	if err != nil {
		return errFactory.Wrap(ErrBuildQuery, err)
	}

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return errFactory.Wrap(ErrConnAcquire, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			r.log.Debug().Err(err).Msg("Failed to release storage connection")
		}
	}()

	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}
	if affected != 1 {
		return errFactory.WithData(ErrUnexpectedRowCount, affected)
	}

	return nil
}

func (r *sqlRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.log.Info().Msg("Measurement repository closed gracefully")

	return nil
}
