package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/logger"
	"github.com/doug-martin/goqu/v9"
)

const (
	SchemaVersion = 2 // Increment version for every new migration

	versionTable = "schema_versions"

	createVersionTableSQL = `
        CREATE TABLE IF NOT EXISTS schema_versions (
            version     INTEGER PRIMARY KEY,
            applied_at  TIMESTAMP NOT NULL
        )`

	selectVersionSQL = `SELECT COALESCE(MAX(version), 0) FROM schema_versions`
)

type migration struct {
	version     int
	description string
	statements  func(driver string) []string
}

var migrations = []migration{
	{version: 1, description: "create measurement tables", statements: createTablesSQL},
	{version: 2, description: "index readings by mrid and timestamp", statements: createIndexesSQL},
}

func createTablesSQL(driver string) []string {
	timestampType := "TIMESTAMP"
	if driver == DriverPostgres {
		timestampType = "TIMESTAMPTZ"
	}

	stmts := make([]string, 0, len(tables))
	for _, t := range tables {
		valueType := "BIGINT"
		if t.real {
			valueType = "DOUBLE PRECISION"
		}
		stmts = append(stmts, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            %s  %s NOT NULL,
            %s  %s NOT NULL,
            %s  TEXT NOT NULL,
            %s  %s NOT NULL
        )`,
			t.name,
			colTimestamp, timestampType,
			colWriteTime, timestampType,
			t.mridColumn,
			colValue, valueType,
		))
	}
	return stmts
}

func createIndexesSQL(string) []string {
	stmts := make([]string, 0, len(tables))
	for _, t := range tables {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s_mrid_timestamp ON %s (%s, %s)",
			t.name, t.name, t.mridColumn, colTimestamp,
		))
	}
	return stmts
}

// GetSchemaVersion returns the highest applied schema version, or 0 for a
// database that has never been initialized.
func GetSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	errFactory := errors.New()

	if _, err := db.ExecContext(ctx, createVersionTableSQL); err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "create_version_table",
			Error: err.Error(),
		})
	}

	var version int
	if err := db.QueryRowContext(ctx, selectVersionSQL).Scan(&version); err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// applyMigration runs one migration and records its version in a single
// transaction.
func applyMigration(
	ctx context.Context, db *sql.DB, dialect goqu.DialectWrapper, driver string, m migration, now time.Time, log logger.Logger,
) error {
	errFactory := errors.New()

	log.Debug().
		Int("version", m.version).
		Str("description", m.description).
		Msg("Applying schema migration")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errFactory.Wrap(ErrSchemaMigrationFailed, err)
	}

	// Track transaction state
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				// Only log if it's not the "already committed" error
				if !errors.Is(err, sql.ErrTxDone) {
					log.Debug().Err(err).Msg("Failed to rollback migration")
				}
			}
		}
	}()

	for _, stmt := range m.statements(driver) {
		log.Debug().Str("sql", stmt).Msg("Executing SQL statement")
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errFactory.WithData(ErrSchemaMigrationFailed, struct {
				Version int
				Error   string
				SQL     string
			}{
				Version: m.version,
				Error:   err.Error(),
				SQL:     stmt,
			})
		}
	}

	query, args, err := dialect.Insert(versionTable).Prepared(true).
		Cols("version", "applied_at").
		Vals(goqu.Vals{m.version, now.UTC()}).
		ToSQL()
	if err != nil {
		return errFactory.Wrap(ErrBuildQuery, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errFactory.WithData(ErrSchemaMigrationFailed, struct {
			Version int
			Phase   string
			Error   string
		}{
			Version: m.version,
			Phase:   "record_version",
			Error:   err.Error(),
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaMigrationFailed, err)
	}
	committed = true

	return nil
}
