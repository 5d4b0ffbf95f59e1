package storage

import "codeberg.org/mutker/measd/internal/measurement"

const (
	colTimestamp = "timestamp"
	colWriteTime = "write_time"
	colValue     = "value"
)

// table describes where one measurement kind is persisted.
type table struct {
	name       string
	mridColumn string
	real       bool
	value      func(m *measurement.Measurement) any
}

var tables = [measurement.KindCount]table{
	measurement.Accumulator: {
		name:       "accumulator_values",
		mridColumn: "accumulator_mrid",
		value:      func(m *measurement.Measurement) any { return m.IntValue() },
	},
	measurement.Analog: {
		name:       "analog_values",
		mridColumn: "analog_mrid",
		real:       true,
		value:      func(m *measurement.Measurement) any { return m.RealValue() },
	},
	measurement.Discrete: {
		name:       "discrete_values",
		mridColumn: "discrete_mrid",
		value:      func(m *measurement.Measurement) any { return m.IntValue() },
	},
}

func tableFor(kind measurement.Kind) (table, bool) {
	if !kind.Valid() {
		return table{}, false
	}
	return tables[kind], true
}
