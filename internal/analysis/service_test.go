package analysis_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/bikeshare-analytics-service/internal/analysis"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/domain"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/observability"
)

type recordingSink struct {
	mu    sync.Mutex
	views []analysis.View
	err   error
}

func (s *recordingSink) Publish(_ context.Context, v analysis.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, v)
	return s.err
}

var generatedAt = time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

func newService(metrics *observability.Metrics, opts ...analysis.ServiceOption) *analysis.Service {
	sets := &domain.Datasets{Daily: dailyFixture(), Hourly: hourlyFixture(), LoadedAt: generatedAt.Add(-time.Hour)}
	opts = append([]analysis.ServiceOption{analysis.WithClock(clockwork.NewFakeClockAt(generatedAt))}, opts...)
	return analysis.NewService(sets, slog.Default(), metrics, opts...)
}

func TestService_View_Daily(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	svc := newService(metrics)

	v, err := svc.View(domain.Daily, date("2011-01-01"), date("2011-01-07"))
	require.NoError(t, err)

	assert.Equal(t, domain.Daily, v.Granularity)
	assert.Equal(t, 7, v.Rows)
	assert.Equal(t, 7, v.Dataset.Len())
	assert.Equal(t, generatedAt, v.GeneratedAt)
	assert.Equal(t, date("2011-01-01"), v.Start)
	assert.Equal(t, date("2011-01-07"), v.End)
	assert.Len(t, v.Aggregates.RidesByWeekday, 7)
	assert.Nil(t, v.Aggregates.RidersByHour)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ViewRequests.WithLabelValues("daily", "ok")), 0)
}

func TestService_View_HourlyDay(t *testing.T) {
	svc := newService(observability.NewMetricsForTesting())

	v, err := svc.View(domain.Hourly, date("2011-01-01"), date("2011-01-01"))
	require.NoError(t, err)

	assert.Equal(t, 24, v.Rows)
	assert.Len(t, v.Aggregates.RidersByHour, 24)
}

func TestService_View_ClampsToDataSpan(t *testing.T) {
	svc := newService(observability.NewMetricsForTesting())

	v, err := svc.View(domain.Daily, date("1999-01-01"), date("2030-01-01"))
	require.NoError(t, err)

	assert.Equal(t, domain.FirstDate, v.Start)
	assert.Equal(t, domain.LastDate, v.End)
	assert.Equal(t, 10, v.Rows)
}

func TestService_View_ReversedRangeIsEmpty(t *testing.T) {
	svc := newService(observability.NewMetricsForTesting())

	v, err := svc.View(domain.Daily, date("2011-01-07"), date("2011-01-01"))
	require.NoError(t, err)

	assert.Zero(t, v.Rows)
	assert.Zero(t, v.Aggregates.TotalRides)
	assert.Len(t, v.Aggregates.RidesByWeekday, 7)
}

func TestService_View_InvalidGranularity(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	sink := &recordingSink{}
	svc := newService(metrics, analysis.WithSink(sink))

	_, err := svc.View(domain.Granularity(9), date("2011-01-01"), date("2011-01-07"))

	require.ErrorIs(t, err, domain.ErrInvalidGranularity)
	assert.Empty(t, sink.views)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ViewRequests.WithLabelValues("unknown", "invalid")), 0)
}

func TestService_View_PublishesToSink(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	sink := &recordingSink{}
	svc := newService(metrics, analysis.WithSink(sink))

	v, err := svc.View(domain.Hourly, date("2011-01-02"), date("2011-01-02"))
	require.NoError(t, err)

	require.Len(t, sink.views, 1)
	assert.Equal(t, v.Rows, sink.views[0].Rows)
	assert.Equal(t, 2, sink.views[0].Rows)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ViewsPublished), 0)
}

func TestService_View_SinkFailureDoesNotFailView(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	sink := &recordingSink{err: errors.New("broker unavailable")}
	svc := newService(metrics, analysis.WithSink(sink))

	v, err := svc.View(domain.Daily, date("2011-01-01"), date("2011-01-02"))
	require.NoError(t, err)

	assert.Equal(t, 2, v.Rows)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PublishErrors), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.ViewsPublished), 0)
}

func TestService_View_ConcurrentCallers(t *testing.T) {
	svc := newService(observability.NewMetricsForTesting())

	var wg sync.WaitGroup
	totals := make([]int, 16)
	for i := range totals {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := svc.View(domain.Daily, date("2011-01-01"), date("2011-01-10"))
			if err == nil {
				totals[i] = v.Aggregates.TotalRides
			}
		}(i)
	}
	wg.Wait()

	for _, total := range totals {
		assert.Equal(t, totals[0], total)
	}
	assert.Positive(t, totals[0])
}
