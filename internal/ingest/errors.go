package ingest

import "codeberg.org/mutker/measd/internal/errors"

const (
	// ErrConversion means the wire record could not become a measurement.
	// Nothing was changed.
	ErrConversion = errors.ErrorCode("ingest_conversion_failed")

	// ErrBufferInvariant means the buffer no longer matches the eviction
	// bookkeeping. It indicates a bug, never bad input.
	ErrBufferInvariant = errors.ErrorCode("ingest_buffer_invariant")

	// ErrPersistence means the record is buffered but was not stored.
	ErrPersistence = errors.ErrorCode("ingest_persistence_failed")
)

func init() {
	errors.RegisterMessage(ErrConversion, "Invalid measurement")
	errors.RegisterMessage(ErrBufferInvariant, "Measurement buffer invariant violated")
	errors.RegisterMessage(ErrPersistence, "Failed to persist measurement")
}
