package metrics

import (
	"time"

	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/measurement"
)

// Recorder receives the observations the ingest path reports
type Recorder interface {
	// SetBufferSize publishes the number of buffered records
	SetBufferSize(n int)

	// Evicted counts a record dropped from the buffer to make room
	Evicted(kind measurement.Kind)

	// Ingested counts a record that was buffered and persisted
	Ingested(kind measurement.Kind)

	// Failed counts a rejected or partially applied request by error code
	Failed(kind measurement.Kind, code errors.ErrorCode)

	// ObservePersist records how long a storage insert took
	ObservePersist(kind measurement.Kind, d time.Duration)
}
