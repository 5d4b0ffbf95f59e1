package buffer_test

import (
	"math/rand"
	"testing"
	"time"

	"codeberg.org/mutker/measd/internal/buffer"
	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/measurement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func newRecord(t *testing.T, kind measurement.Kind, mrid string, n int) *measurement.Measurement {
	t.Helper()

	ts := base.Add(time.Duration(n) * time.Second)

	var (
		m   *measurement.Measurement
		err error
	)
	switch kind {
	case measurement.Accumulator:
		m, err = measurement.NewAccumulator(mrid, ts, int64(n))
	case measurement.Analog:
		m, err = measurement.NewAnalog(mrid, ts, float64(n))
	case measurement.Discrete:
		m, err = measurement.NewDiscrete(mrid, ts, int32(n))
	}
	require.NoError(t, err)

	return m
}

func TestEmptyBuffer(t *testing.T) {
	b := buffer.New()

	assert.Equal(t, 0, b.Count())
	for _, kind := range measurement.Kinds() {
		_, ok := b.OldestOfKind(kind)
		assert.False(t, ok)
		assert.Equal(t, 0, b.CountOfKind(kind))
	}
	_, ok := b.Oldest()
	assert.False(t, ok)
}

func TestAddKeepsReadingsWithSameMRID(t *testing.T) {
	b := buffer.New()
	first := newRecord(t, measurement.Analog, "feeder-1", 1)
	second := newRecord(t, measurement.Analog, "feeder-1", 2)

	require.NoError(t, b.Add(first))
	require.NoError(t, b.Add(second))

	assert.Equal(t, 2, b.Count())
	assert.True(t, b.Contains(first))
	assert.True(t, b.Contains(second))
}

func TestAddRejectsSameInstanceTwice(t *testing.T) {
	b := buffer.New()
	m := newRecord(t, measurement.Discrete, "breaker-1", 1)

	require.NoError(t, b.Add(m))
	err := b.Add(m)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, buffer.ErrDuplicateRecord))
	assert.Equal(t, 1, b.Count())

	err = b.Add(nil)
	assert.True(t, errors.HasCode(err, buffer.ErrNilRecord))
}

func TestCheckAddMatchesAddWithoutMutating(t *testing.T) {
	b := buffer.New()
	m := newRecord(t, measurement.Analog, "feeder-1", 1)

	require.NoError(t, b.CheckAdd(m))
	assert.Zero(t, b.Count(), "CheckAdd must not insert")

	require.NoError(t, b.Add(m))
	assert.True(t, errors.HasCode(b.CheckAdd(m), buffer.ErrDuplicateRecord))
	assert.True(t, errors.HasCode(b.CheckAdd(nil), buffer.ErrNilRecord))
	assert.Equal(t, 1, b.Count())
}

func TestOldestOfKindFollowsInsertionOrderNotTimestamp(t *testing.T) {
	b := buffer.New()
	late := newRecord(t, measurement.Accumulator, "A", 10)
	early := newRecord(t, measurement.Accumulator, "B", 1)
	analog := newRecord(t, measurement.Analog, "C", 0)

	require.NoError(t, b.Add(analog))
	require.NoError(t, b.Add(late))
	require.NoError(t, b.Add(early))

	got, ok := b.OldestOfKind(measurement.Accumulator)
	require.True(t, ok)
	assert.Same(t, late, got)

	got, ok = b.OldestOfKind(measurement.Analog)
	require.True(t, ok)
	assert.Same(t, analog, got)

	_, ok = b.OldestOfKind(measurement.Discrete)
	assert.False(t, ok)

	got, ok = b.Oldest()
	require.True(t, ok)
	assert.Same(t, analog, got)
}

func TestRemoveByIdentity(t *testing.T) {
	b := buffer.New()
	a := newRecord(t, measurement.Discrete, "D", 1)
	twin := newRecord(t, measurement.Discrete, "D", 1)

	require.NoError(t, b.Add(a))

	assert.False(t, b.Remove(twin), "an equal but distinct instance must not be removed")
	assert.Equal(t, 1, b.Count())

	assert.True(t, b.Remove(a))
	assert.Equal(t, 0, b.Count())
	assert.False(t, b.Contains(a))

	assert.False(t, b.Remove(a), "second removal is a no-op")
	assert.False(t, b.Remove(nil))
}

func TestOldestAfterRemovals(t *testing.T) {
	b := buffer.New()
	a1 := newRecord(t, measurement.Accumulator, "A", 1)
	d1 := newRecord(t, measurement.Discrete, "D", 2)
	a2 := newRecord(t, measurement.Accumulator, "A", 3)

	for _, m := range []*measurement.Measurement{a1, d1, a2} {
		require.NoError(t, b.Add(m))
	}

	require.True(t, b.Remove(a1))
	got, ok := b.Oldest()
	require.True(t, ok)
	assert.Same(t, d1, got)

	got, ok = b.OldestOfKind(measurement.Accumulator)
	require.True(t, ok)
	assert.Same(t, a2, got)
}

// TestAgainstModel drives the buffer with random operations and compares it
// with a plain slice kept in insertion order.
func TestAgainstModel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	b := buffer.New()

	var model []*measurement.Measurement
	adds, removes := 0, 0

	for i := 0; i < 5000; i++ {
		kind := measurement.Kinds()[rng.Intn(measurement.KindCount)]

		if len(model) > 0 && rng.Intn(3) == 0 {
			victim := model[rng.Intn(len(model))]
			require.True(t, b.Remove(victim))
			model = removeFrom(model, victim)
			removes++
		} else {
			m := newRecord(t, kind, "P", i)
			require.NoError(t, b.Add(m))
			model = append(model, m)
			adds++
		}

		require.Equal(t, adds-removes, b.Count())

		for _, k := range measurement.Kinds() {
			want := oldestInModel(model, k)
			got, ok := b.OldestOfKind(k)
			if want == nil {
				require.False(t, ok)
				continue
			}
			require.True(t, ok)
			require.Same(t, want, got)
		}

		if len(model) > 0 {
			got, ok := b.Oldest()
			require.True(t, ok)
			require.Same(t, model[0], got)
		}
	}
}

func removeFrom(model []*measurement.Measurement, victim *measurement.Measurement) []*measurement.Measurement {
	for i, m := range model {
		if m == victim {
			return append(model[:i], model[i+1:]...)
		}
	}
	return model
}

func oldestInModel(model []*measurement.Measurement, kind measurement.Kind) *measurement.Measurement {
	for _, m := range model {
		if m.Kind() == kind {
			return m
		}
	}
	return nil
}
