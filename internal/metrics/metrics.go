package metrics

import (
	"net/http"
	"time"

	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/logger"
	"codeberg.org/mutker/measd/internal/measurement"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "measd"

type service struct {
	bufferSize prometheus.Gauge
	evictions  *prometheus.CounterVec
	ingested   *prometheus.CounterVec
	failures   *prometheus.CounterVec
	persist    *prometheus.HistogramVec
	cfg        Config
}

// No-op implementation
type noopRecorder struct{}

func NewService(cfg Config, reg prometheus.Registerer) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	// If metrics are disabled, return a no-op recorder
	if !cfg.Enabled {
		logger.Debug().Msg("Metrics disabled, using no-op recorder")
		return &noopRecorder{}, nil
	}

	s := &service{
		bufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_records",
			Help:      "Number of measurements currently held in the in-memory buffer.",
		}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buffer_evictions_total",
			Help:      "Measurements evicted from the buffer because it was at capacity.",
		}, []string{"kind"}),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_total",
			Help:      "Measurements buffered and persisted successfully.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_failures_total",
			Help:      "Failed ingest requests by error code.",
		}, []string{"kind", "code"}),
		persist: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_duration_seconds",
			Help:      "Latency of single-row inserts into the storage sink.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"kind"}),
		cfg: cfg,
	}

	for _, c := range []prometheus.Collector{s.bufferSize, s.evictions, s.ingested, s.failures, s.persist} {
		if err := reg.Register(c); err != nil {
			return nil, errFactory.Wrap(ErrRegisterFailed, err)
		}
	}

	logger.Debug().
		Str("listen", cfg.Listen).
		Bool("enabled", cfg.Enabled).
		Msg("Metrics service initialized successfully")

	return s, nil
}

// Handler exposes everything gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (s *service) SetBufferSize(n int) {
	s.bufferSize.Set(float64(n))
}

func (s *service) Evicted(kind measurement.Kind) {
	s.evictions.WithLabelValues(kind.String()).Inc()
}

func (s *service) Ingested(kind measurement.Kind) {
	s.ingested.WithLabelValues(kind.String()).Inc()
}

func (s *service) Failed(kind measurement.Kind, code errors.ErrorCode) {
	s.failures.WithLabelValues(kind.String(), string(code)).Inc()
}

func (s *service) ObservePersist(kind measurement.Kind, d time.Duration) {
	s.persist.WithLabelValues(kind.String()).Observe(d.Seconds())
}

// No-op implementation
func (*noopRecorder) SetBufferSize(int) {}
func (*noopRecorder) Evicted(measurement.Kind) {}
func (*noopRecorder) Ingested(measurement.Kind) {}
func (*noopRecorder) Failed(measurement.Kind, errors.ErrorCode) {}
func (*noopRecorder) ObservePersist(measurement.Kind, time.Duration) {}

// Noop returns a Recorder that discards everything.
func Noop() Recorder {
	return &noopRecorder{}
}
