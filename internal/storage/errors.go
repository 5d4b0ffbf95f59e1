package storage

import "codeberg.org/mutker/measd/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDriver = errors.ErrInvalidDriver
	ErrInvalidDSN    = errors.ErrInvalidDSN

	// Schema Errors
	ErrSchemaValidationFailed = errors.ErrorCode("storage_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("storage_schema_migration_failed")
	ErrSchemaTooNew           = errors.ErrorCode("storage_schema_too_new")
	ErrBackupFailed           = errors.ErrorCode("storage_backup_failed")

	// Storage Errors
	ErrStorageAccess      = errors.ErrorCode("storage_access_failed")
	ErrStorageInit        = errors.ErrInitFailed
	ErrStorageClose       = errors.ErrShutdownFailed
	ErrConnAcquire        = errors.ErrorCode("storage_conn_acquire_failed")
	ErrBuildQuery         = errors.ErrorCode("storage_build_query_failed")
	ErrUnexpectedRowCount = errors.ErrorCode("storage_unexpected_row_count")
	ErrUnknownKind        = errors.ErrorCode("storage_unknown_kind")
)

func init() {
	errors.RegisterMessage(ErrSchemaValidationFailed, "Failed to validate schema")
	errors.RegisterMessage(ErrSchemaMigrationFailed, "Failed to migrate schema")
	errors.RegisterMessage(ErrSchemaTooNew, "Database schema is newer than this binary supports")
	errors.RegisterMessage(ErrBackupFailed, "Failed to back up database")
	errors.RegisterMessage(ErrStorageAccess, "Storage access failed")
	errors.RegisterMessage(ErrConnAcquire, "Failed to acquire storage connection")
	errors.RegisterMessage(ErrBuildQuery, "Failed to build query")
	errors.RegisterMessage(ErrUnexpectedRowCount, "Insert affected an unexpected number of rows")
	errors.RegisterMessage(ErrUnknownKind, "No table for measurement kind")
}
