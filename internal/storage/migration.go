package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/logger"
	"github.com/doug-martin/goqu/v9"
)

// backupDatabase copies an sqlite database aside before it is migrated.
func backupDatabase(ctx context.Context, db *sql.DB, dir string, version int, now time.Time, log logger.Logger) (string, error) {
	errFactory := errors.New()

	// Ensure backup directory exists
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return "", errFactory.WithData(ErrBackupFailed, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_backup_dir",
			Path:  dir,
			Error: err.Error(),
		})
	}

	// Create backup filename with timestamp
	timestamp := now.UTC().Format("20060102T150405Z")
	backupPath := filepath.Join(dir, fmt.Sprintf("measurements_v%d_%s.db", version, timestamp))

	// VACUUM INTO requires no active transaction
	stmt := fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(backupPath, "'", "''"))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return "", errFactory.WithData(ErrBackupFailed, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_backup",
			Path:  backupPath,
			Error: err.Error(),
		})
	}

	log.Info().
		Str("path", backupPath).
		Int("version", version).
		Msg("Database backup created")

	return backupPath, nil
}

// ValidateAndUpdateSchema brings the database up to SchemaVersion. Existing
// sqlite databases are backed up first when a backup directory is set. A
// database newer than SchemaVersion is refused rather than downgraded.
func ValidateAndUpdateSchema(
	ctx context.Context, db *sql.DB, dialect goqu.DialectWrapper, cfg Config, now time.Time, log logger.Logger,
) error {
	errFactory := errors.New()

	version, err := GetSchemaVersion(ctx, db)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to get schema version")
		return err
	}

	log.Debug().
		Int("version", version).
		Bool("init_db", version == 0).
		Msg("Current schema version")

	if version > SchemaVersion {
		return errFactory.WithData(ErrSchemaTooNew, struct {
			Found     int
			Supported int
		}{
			Found:     version,
			Supported: SchemaVersion,
		})
	}

	if version == SchemaVersion {
		log.Debug().
			Int("version", version).
			Msg("Schema version is current")
		return nil
	}

	if version != 0 && cfg.Driver == DriverSQLite && cfg.BackupDir != "" {
		if _, err := backupDatabase(ctx, db, cfg.BackupDir, version, now, log); err != nil {
			return err
		}
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if err := applyMigration(ctx, db, dialect, cfg.Driver, m, now, log); err != nil {
			return err
		}
	}

	log.Info().
		Int("from_version", version).
		Int("version", SchemaVersion).
		Msg("Schema migrated successfully")

	return nil
}
