package buffer

import "codeberg.org/mutker/measd/internal/errors"

const (
	ErrUnknownKind     = errors.ErrorCode("buffer_unknown_kind")
	ErrDuplicateRecord = errors.ErrorCode("buffer_duplicate_record")
	ErrNilRecord       = errors.ErrorCode("buffer_nil_record")
)

func init() {
	errors.RegisterMessage(ErrUnknownKind, "measurement kind is not known to the buffer")
	errors.RegisterMessage(ErrDuplicateRecord, "record instance is already buffered")
	errors.RegisterMessage(ErrNilRecord, "record must not be nil")
}
