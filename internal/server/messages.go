package server

import (
	"time"

	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/measurement"
)

// AccumulatorValue is a counter reading as sent by producers. Every field is
// required; pointers distinguish an absent field from a zero value.
type AccumulatorValue struct {
	MRID      string     `cbor:"mrid"`
	Value     *int64     `cbor:"value"`
	Timestamp *time.Time `cbor:"timestamp"`
}

type AnalogValue struct {
	MRID      string     `cbor:"mrid"`
	Value     *float64   `cbor:"value"`
	Timestamp *time.Time `cbor:"timestamp"`
}

type DiscreteValue struct {
	MRID      string     `cbor:"mrid"`
	Value     *int32     `cbor:"value"`
	Timestamp *time.Time `cbor:"timestamp"`
}

type CreateAccumulatorValueRequest struct {
	AccumulatorValue *AccumulatorValue `cbor:"accumulatorValue"`
}

type CreateAccumulatorValueResponse struct{}

type CreateAnalogValueRequest struct {
	AnalogValue *AnalogValue `cbor:"analogValue"`
}

type CreateAnalogValueResponse struct{}

type CreateDiscreteValueRequest struct {
	DiscreteValue *DiscreteValue `cbor:"discreteValue"`
}

type CreateDiscreteValueResponse struct{}

func (v *AccumulatorValue) Measurement() (*measurement.Measurement, error) {
	if v == nil {
		return nil, errors.New().New(ErrMissingPayload)
	}
	if v.Value == nil {
		return nil, errors.New().New(measurement.ErrMissingValue)
	}
	if v.Timestamp == nil {
		return nil, errors.New().New(measurement.ErrMissingTimestamp)
	}
	return measurement.NewAccumulator(v.MRID, *v.Timestamp, *v.Value)
}

func (v *AnalogValue) Measurement() (*measurement.Measurement, error) {
	if v == nil {
		return nil, errors.New().New(ErrMissingPayload)
	}
	if v.Value == nil {
		return nil, errors.New().New(measurement.ErrMissingValue)
	}
	if v.Timestamp == nil {
		return nil, errors.New().New(measurement.ErrMissingTimestamp)
	}
	return measurement.NewAnalog(v.MRID, *v.Timestamp, *v.Value)
}

func (v *DiscreteValue) Measurement() (*measurement.Measurement, error) {
	if v == nil {
		return nil, errors.New().New(ErrMissingPayload)
	}
	if v.Value == nil {
		return nil, errors.New().New(measurement.ErrMissingValue)
	}
	if v.Timestamp == nil {
		return nil, errors.New().New(measurement.ErrMissingTimestamp)
	}
	return measurement.NewDiscrete(v.MRID, *v.Timestamp, *v.Value)
}

// Measurement converts the carried value, treating an empty request as a
// conversion failure.
func (r *CreateAccumulatorValueRequest) Measurement() (*measurement.Measurement, error) {
	return r.AccumulatorValue.Measurement()
}

func (r *CreateAnalogValueRequest) Measurement() (*measurement.Measurement, error) {
	return r.AnalogValue.Measurement()
}

func (r *CreateDiscreteValueRequest) Measurement() (*measurement.Measurement, error) {
	return r.DiscreteValue.Measurement()
}

func (*CreateAccumulatorValueRequest) Kind() measurement.Kind {
	return measurement.Accumulator
}

func (*CreateAnalogValueRequest) Kind() measurement.Kind {
	return measurement.Analog
}

func (*CreateDiscreteValueRequest) Kind() measurement.Kind {
	return measurement.Discrete
}
