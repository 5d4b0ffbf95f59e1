// Package ingest admits measurements into the bounded buffer and writes them
// through to storage.
//
// Admission (capacity check, eviction, add) happens under one lock shared by
// all kinds; the storage write happens after the lock is released. A failed
// write does not undo the admission: the record stays buffered while the
// caller is told the request failed. That durability gap is deliberate and is
// counted by the ingest_persistence_failed failure metric.
package ingest

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/measd/internal/buffer"
	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/logger"
	"codeberg.org/mutker/measd/internal/measurement"
	"codeberg.org/mutker/measd/internal/metrics"
)

type Coordinator struct {
	mu      sync.Mutex
	buf     *buffer.Buffer
	limit   int
	sink    Sink
	metrics metrics.Recorder
}

func NewCoordinator(cfg Config, sink Sink, rec metrics.Recorder) (*Coordinator, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	if sink == nil {
		return nil, errFactory.WithMessage(errors.ErrInvalidConfig, "ingest coordinator requires a sink")
	}
	if rec == nil {
		rec = metrics.Noop()
	}

	logger.Debug().Int("limit", cfg.Limit).Msg("Ingest coordinator initialized")

	return &Coordinator{
		buf:     buffer.New(),
		limit:   cfg.Limit,
		sink:    sink,
		metrics: rec,
	}, nil
}

// Ingest converts, admits and persists one wire record.
func (c *Coordinator) Ingest(ctx context.Context, in Converter) error {
	errFactory := errors.New()

	m, err := in.Measurement()
	if err == nil && m == nil {
		err = errFactory.WithMessage(errors.ErrInvalidArgument, "converter returned no measurement")
	}
	if err != nil {
		kind := measurement.Unknown
		if h, ok := in.(KindHinter); ok {
			kind = h.Kind()
		}
		c.metrics.Failed(kind, ErrConversion)
		logger.Warn().
			Err(err).
			Str("kind", kind.String()).
			Msg("Rejected malformed measurement")
		return errFactory.Wrap(ErrConversion, err)
	}

	logger.Info().
		Str("kind", m.Kind().String()).
		Str("mrid", m.MRID()).
		Interface("value", m.Value()).
		Time("timestamp", m.Timestamp()).
		Msg("Received measurement")

	if err := c.admit(m); err != nil {
		c.metrics.Failed(m.Kind(), ErrBufferInvariant)
		return err
	}

	start := time.Now()
	err = c.sink.Insert(ctx, m)
	c.metrics.ObservePersist(m.Kind(), time.Since(start))
	if err != nil {
		c.metrics.Failed(m.Kind(), ErrPersistence)
		logger.Warn().
			Err(err).
			Str("kind", m.Kind().String()).
			Str("mrid", m.MRID()).
			Msg("Measurement buffered but not persisted")
		return errFactory.Wrap(ErrPersistence, err)
	}

	c.metrics.Ingested(m.Kind())

	return nil
}

// admit makes room for m if the buffer is full and adds it. Nothing is
// evicted unless m can be added.
func (c *Coordinator) admit(m *measurement.Measurement) error {
	errFactory := errors.New()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.buf.CheckAdd(m); err != nil {
		wrapped := errFactory.Wrap(ErrBufferInvariant, err)
		logger.ErrorWithContext(wrapped, "ingest", "add").Msg("Measurement cannot be buffered")
		return wrapped
	}

	if c.buf.Count() >= c.limit {
		victim, ok := c.buf.OldestOfKind(m.Kind())
		if !ok {
			// Capacity is taken entirely by other kinds.
			victim, ok = c.buf.Oldest()
		}
		if ok {
			if !c.buf.Remove(victim) {
				err := errFactory.WithData(ErrBufferInvariant, victim)
				logger.ErrorWithContext(err, "ingest", "evict").
					Int("count", c.buf.Count()).
					Int("limit", c.limit).
					Msg("Eviction victim missing from buffer")
				return err
			}
			c.metrics.Evicted(victim.Kind())
			logger.Debug().
				Str("kind", victim.Kind().String()).
				Str("mrid", victim.MRID()).
				Msg("Evicted measurement")
		}
	}

	if err := c.buf.Add(m); err != nil {
		wrapped := errFactory.Wrap(ErrBufferInvariant, err)
		logger.ErrorWithContext(wrapped, "ingest", "add").Msg("Failed to buffer measurement")
		return wrapped
	}

	c.metrics.SetBufferSize(c.buf.Count())

	return nil
}

// Len returns the number of buffered records.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Count()
}

// Contains reports whether m is currently buffered.
func (c *Coordinator) Contains(m *measurement.Measurement) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Contains(m)
}
