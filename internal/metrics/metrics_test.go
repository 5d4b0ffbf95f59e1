package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/measurement"
	"codeberg.org/mutker/measd/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewService(metrics.DefaultConfig(), reg)
	require.NoError(t, err)

	rec.SetBufferSize(3)
	rec.Evicted(measurement.Analog)
	rec.Evicted(measurement.Analog)
	rec.Ingested(measurement.Discrete)
	rec.Failed(measurement.Accumulator, errors.ErrorCode("ingest_persistence_failed"))
	rec.ObservePersist(measurement.Accumulator, 3*time.Millisecond)

	expected := `
# HELP measd_buffer_evictions_total Measurements evicted from the buffer because it was at capacity.
# TYPE measd_buffer_evictions_total counter
measd_buffer_evictions_total{kind="analog"} 2
# HELP measd_buffer_records Number of measurements currently held in the in-memory buffer.
# TYPE measd_buffer_records gauge
measd_buffer_records 3
# HELP measd_ingest_failures_total Failed ingest requests by error code.
# TYPE measd_ingest_failures_total counter
measd_ingest_failures_total{code="ingest_persistence_failed",kind="accumulator"} 1
# HELP measd_ingested_total Measurements buffered and persisted successfully.
# TYPE measd_ingested_total counter
measd_ingested_total{kind="discrete"} 1
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"measd_buffer_evictions_total", "measd_buffer_records",
		"measd_ingest_failures_total", "measd_ingested_total")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "measd_persist_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.NewService(metrics.DefaultConfig(), reg)
	require.NoError(t, err)

	_, err = metrics.NewService(metrics.DefaultConfig(), reg)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, metrics.ErrRegisterFailed))
}

func TestDisabledIsNoop(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewService(metrics.Config{Enabled: false}, reg)
	require.NoError(t, err)

	rec.SetBufferSize(10)
	rec.Evicted(measurement.Analog)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}

func TestInvalidConfig(t *testing.T) {
	_, err := metrics.NewService(metrics.Config{Enabled: true}, prometheus.NewRegistry())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, metrics.ErrInvalidListen))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := metrics.NewService(metrics.DefaultConfig(), reg)
	require.NoError(t, err)
	rec.SetBufferSize(5)

	srv := httptest.NewServer(metrics.Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}
