package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"

	// Configuration errors
	ErrInvalidConfig      ErrorCode = "invalid_configuration"
	ErrBindFlags          ErrorCode = "bind_flags_failed"
	ErrReadConfig         ErrorCode = "read_config_failed"
	ErrInvalidBufferLimit ErrorCode = "invalid_buffer_limit"
	ErrInvalidListenAddr  ErrorCode = "invalid_listen_address"
	ErrInvalidDriver      ErrorCode = "invalid_storage_driver"
	ErrInvalidDSN         ErrorCode = "invalid_storage_dsn"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrAlreadyRunning ErrorCode = "already_running"

	// Application errors
	ErrServe      ErrorCode = "serve_failed"
	ErrListen     ErrorCode = "listen_failed"
	ErrInitServer ErrorCode = "init_server_failed"

	// Metrics errors
	ErrInitMetrics ErrorCode = "init_metrics_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:           "Internal error occurred",
	ErrInvalidArgument:    "Invalid argument provided",
	ErrInvalidConfig:      "Invalid configuration",
	ErrBindFlags:          "Failed to bind flags",
	ErrReadConfig:         "Failed to read config file",
	ErrInvalidBufferLimit: "Buffer limit must be at least 1",
	ErrInvalidListenAddr:  "Listen address must not be empty",
	ErrInvalidDriver:      "Unsupported storage driver",
	ErrInvalidDSN:         "Storage DSN must not be empty",
	ErrInvalidLogLevel:    "Invalid log level",
	ErrInitFailed:         "Initialization failed",
	ErrShutdownFailed:     "Shutdown failed",
	ErrAlreadyRunning:     "Another instance is already running",
	ErrServe:              "Server stopped unexpectedly",
	ErrListen:             "Failed to listen",
	ErrInitServer:         "Failed to initialize server",
	ErrInitMetrics:        "Failed to initialize metrics",
}

// RegisterMessage sets the default message for a package-specific code.
// It is meant to be called from package init functions only.
func RegisterMessage(code ErrorCode, msg string) {
	errorMessages[code] = msg
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
