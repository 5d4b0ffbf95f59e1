package server

import "codeberg.org/mutker/measd/internal/errors"

const (
	ErrMissingPayload = errors.ErrorCode("server_missing_payload")
	ErrInvalidGrace   = errors.ErrorCode("server_invalid_grace_period")
)

func init() {
	errors.RegisterMessage(ErrMissingPayload, "request carries no measurement")
	errors.RegisterMessage(ErrInvalidGrace, "grace period must not be negative")
}
