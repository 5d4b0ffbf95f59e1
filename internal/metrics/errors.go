package metrics

import "codeberg.org/mutker/measd/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidListen = errors.ErrorCode("metrics_invalid_listen")

	// Registration Errors
	ErrRegisterFailed = errors.ErrorCode("metrics_register_failed")
)

func init() {
	errors.RegisterMessage(ErrInvalidListen, "Metrics listen address must not be empty")
	errors.RegisterMessage(ErrRegisterFailed, "Failed to register metrics collector")
}
