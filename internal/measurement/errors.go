package measurement

import "codeberg.org/mutker/measd/internal/errors"

const (
	ErrMissingMRID      = errors.ErrorCode("measurement_missing_mrid")
	ErrMissingTimestamp = errors.ErrorCode("measurement_missing_timestamp")
	ErrMissingValue     = errors.ErrorCode("measurement_missing_value")
	ErrNegativeCounter  = errors.ErrorCode("measurement_negative_counter")
)

func init() {
	errors.RegisterMessage(ErrMissingMRID, "mrid is required")
	errors.RegisterMessage(ErrMissingTimestamp, "timestamp is required")
	errors.RegisterMessage(ErrMissingValue, "value is required")
	errors.RegisterMessage(ErrNegativeCounter, "accumulator value must not be negative")
}
