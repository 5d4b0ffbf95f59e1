package storage

import (
	"context"
	"database/sql/driver"
	"fmt"
	"testing"
	"time"

	"codeberg.org/mutker/measd/internal/errors"
	"codeberg.org/mutker/measd/internal/logger"
	"codeberg.org/mutker/measd/internal/measurement"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

var (
	readingTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	writeTime   = time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC)
)

// timeArg matches a time argument by instant rather than by representation.
type timeArg struct {
	want time.Time
}

func (a timeArg) Match(v driver.Value) bool {
	got, ok := v.(time.Time)
	return ok && got.Equal(a.want)
}

func newMockRepository(t *testing.T) (*sqlRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := newRepository(db, goqu.Dialect(DriverSQLite), testingclock.NewFakePassiveClock(writeTime), logger.Default())
	return repo, mock
}

func TestInsertWritesOneRowPerKind(t *testing.T) {
	acc, err := measurement.NewAccumulator("acc-1", readingTime, 42)
	require.NoError(t, err)
	an, err := measurement.NewAnalog("an-1", readingTime, 229.8)
	require.NoError(t, err)
	d, err := measurement.NewDiscrete("d-1", readingTime, 2)
	require.NoError(t, err)

	tests := []struct {
		record *measurement.Measurement
		query  string
		value  driver.Value
	}{
		{acc, "INSERT INTO .accumulator_values. \\(.timestamp., .write_time., .accumulator_mrid., .value.\\)", int64(42)},
		{an, "INSERT INTO .analog_values. \\(.timestamp., .write_time., .analog_mrid., .value.\\)", 229.8},
		{d, "INSERT INTO .discrete_values. \\(.timestamp., .write_time., .discrete_mrid., .value.\\)", int64(2)},
	}

	for _, tt := range tests {
		t.Run(tt.record.Kind().String(), func(t *testing.T) {
			repo, mock := newMockRepository(t)

			mock.ExpectExec(tt.query).
				WithArgs(timeArg{readingTime}, timeArg{writeTime}, tt.record.MRID(), tt.value).
				WillReturnResult(sqlmock.NewResult(1, 1))

			require.NoError(t, repo.Insert(context.Background(), tt.record))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInsertRejectsUnexpectedRowCount(t *testing.T) {
	repo, mock := newMockRepository(t)
	m, err := measurement.NewAnalog("an-1", readingTime, 1)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO .analog_values.").WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Insert(context.Background(), m)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrUnexpectedRowCount))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSurfacesDriverError(t *testing.T) {
	repo, mock := newMockRepository(t)
	m, err := measurement.NewDiscrete("d-1", readingTime, 1)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO .discrete_values.").WillReturnError(fmt.Errorf("connection reset"))

	err = repo.Insert(context.Background(), m)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrStorageAccess))
	assert.Contains(t, err.Error(), "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReleasesConnectionOnError(t *testing.T) {
	repo, mock := newMockRepository(t)
	repo.db.SetMaxOpenConns(1)

	m, err := measurement.NewAccumulator("acc-1", readingTime, 1)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO .accumulator_values.").WillReturnError(fmt.Errorf("unique violation"))
	mock.ExpectExec("INSERT INTO .accumulator_values.").WillReturnResult(sqlmock.NewResult(1, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.Error(t, repo.Insert(ctx, m))
	// With a single-connection pool this only succeeds if the failed call
	// handed its connection back.
	require.NoError(t, repo.Insert(ctx, m))
	assert.Equal(t, 0, repo.db.Stats().InUse)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClose(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectClose()

	require.NoError(t, repo.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Driver = "mysql"
	assert.True(t, errors.HasCode(cfg.Validate(), ErrInvalidDriver))

	cfg = DefaultConfig()
	cfg.DSN = ""
	assert.True(t, errors.HasCode(cfg.Validate(), ErrInvalidDSN))

	cfg = DefaultConfig()
	cfg.MaxOpenConns = -1
	assert.True(t, errors.HasCode(cfg.Validate(), ErrInvalidConfig))
}
