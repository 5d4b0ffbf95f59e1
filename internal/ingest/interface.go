package ingest

import (
	"context"

	"codeberg.org/mutker/measd/internal/measurement"
)

// Converter is a wire record that can be turned into a measurement.
type Converter interface {
	Measurement() (*measurement.Measurement, error)
}

// KindHinter is implemented by converters that know their kind before
// converting, so failed conversions can still be attributed to a kind.
type KindHinter interface {
	Kind() measurement.Kind
}

// Sink durably stores admitted measurements. storage.Repository satisfies it.
type Sink interface {
	Insert(ctx context.Context, m *measurement.Measurement) error
}
