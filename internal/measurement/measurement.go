// Package measurement holds the immutable record admitted to the buffer and
// written to storage. A Measurement is a tagged variant: Kind selects which
// value accessor is meaningful.
package measurement

import (
	"fmt"
	"time"

	"codeberg.org/mutker/measd/internal/errors"
)

// Measurement is a single timestamped reading. Instances are compared by
// pointer identity; two readings with equal fields are still distinct.
type Measurement struct {
	kind      Kind
	mrid      string
	timestamp time.Time
	intValue  int64
	realValue float64
}

// NewAccumulator creates an accumulator reading. Counters are non-negative.
func NewAccumulator(mrid string, timestamp time.Time, value int64) (*Measurement, error) {
	if err := validate(mrid, timestamp); err != nil {
		return nil, err
	}
	if value < 0 {
		return nil, errors.New().WithData(ErrNegativeCounter, value)
	}

	return &Measurement{kind: Accumulator, mrid: mrid, timestamp: timestamp, intValue: value}, nil
}

// NewAnalog creates an analog reading.
func NewAnalog(mrid string, timestamp time.Time, value float64) (*Measurement, error) {
	if err := validate(mrid, timestamp); err != nil {
		return nil, err
	}

	return &Measurement{kind: Analog, mrid: mrid, timestamp: timestamp, realValue: value}, nil
}

// NewDiscrete creates a discrete reading carrying a state code.
func NewDiscrete(mrid string, timestamp time.Time, value int32) (*Measurement, error) {
	if err := validate(mrid, timestamp); err != nil {
		return nil, err
	}

	return &Measurement{kind: Discrete, mrid: mrid, timestamp: timestamp, intValue: int64(value)}, nil
}

func validate(mrid string, timestamp time.Time) error {
	errFactory := errors.New()
	if mrid == "" {
		return errFactory.New(ErrMissingMRID)
	}
	if timestamp.IsZero() {
		return errFactory.New(ErrMissingTimestamp)
	}
	return nil
}

func (m *Measurement) Kind() Kind {
	return m.kind
}

func (m *Measurement) MRID() string {
	return m.mrid
}

// Timestamp is the instant the physical reading was taken.
func (m *Measurement) Timestamp() time.Time {
	return m.timestamp
}

// IntValue is the value of accumulator and discrete readings.
func (m *Measurement) IntValue() int64 {
	return m.intValue
}

// RealValue is the value of analog readings.
func (m *Measurement) RealValue() float64 {
	return m.realValue
}

// Value returns the kind-appropriate value: int64 for accumulator and
// discrete readings, float64 for analog ones.
func (m *Measurement) Value() any {
	if m.kind == Analog {
		return m.realValue
	}
	return m.intValue
}

func (m *Measurement) String() string {
	return fmt.Sprintf("%s{mrid=%s, value=%v, timestamp=%s}",
		m.kind, m.mrid, m.Value(), m.timestamp.Format(time.RFC3339Nano))
}
