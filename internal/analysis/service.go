package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/bikeshare-analytics-service/internal/domain"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/observability"
)

// View is one filtered and aggregated slice of a dataset.
type View struct {
	Granularity domain.Granularity `json:"granularity" yaml:"granularity"`
	Start       time.Time          `json:"start" yaml:"start"`
	End         time.Time          `json:"end" yaml:"end"`
	GeneratedAt time.Time          `json:"generated_at" yaml:"generated_at"`
	Rows        int                `json:"rows" yaml:"rows"`
	Aggregates  Aggregates         `json:"aggregates" yaml:"aggregates"`

	// Dataset holds the filtered records. It is left out of the summary
	// encoding; callers opt in to shipping rows.
	Dataset *domain.Dataset `json:"-" yaml:"-"`
}

// ViewSink receives every computed view.
type ViewSink interface {
	Publish(ctx context.Context, v View) error
}

// Service answers view requests against loaded Datasets. It holds no mutable
// state, so View is safe for concurrent use.
type Service struct {
	datasets *domain.Datasets
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	sink     ViewSink
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used to stamp View.GeneratedAt.
func WithClock(c clockwork.Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// WithSink forwards every computed view to sink.
func WithSink(sink ViewSink) ServiceOption {
	return func(s *Service) { s.sink = sink }
}

// NewService creates a Service over datasets.
func NewService(datasets *domain.Datasets, logger *slog.Logger, metrics *observability.Metrics, opts ...ServiceOption) *Service {
	s := &Service{
		datasets: datasets,
		logger:   logger,
		metrics:  metrics,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadedAt reports when the underlying datasets were loaded.
func (s *Service) LoadedAt() time.Time { return s.datasets.LoadedAt }

// View selects the dataset of g, clamps [start, end] to the data span,
// filters it and aggregates the result.
func (s *Service) View(g domain.Granularity, start, end time.Time) (View, error) {
	ds, err := s.datasets.Get(g)
	if err != nil {
		s.metrics.ViewRequests.WithLabelValues("unknown", "invalid").Inc()
		return View{}, fmt.Errorf("select dataset: %w", err)
	}

	began := s.clock.Now()
	start, end = ClampRange(start, end)
	filtered := Filter(ds, start, end)

	v := View{
		Granularity: g,
		Start:       start,
		End:         end,
		GeneratedAt: s.clock.Now().UTC(),
		Rows:        filtered.Len(),
		Aggregates:  Aggregate(filtered),
		Dataset:     filtered,
	}

	label := g.String()
	s.metrics.ViewRequests.WithLabelValues(label, "ok").Inc()
	s.metrics.ViewDuration.WithLabelValues(label).Observe(s.clock.Since(began).Seconds())
	s.metrics.ViewRows.WithLabelValues(label).Observe(float64(v.Rows))
	s.logger.Debug("view computed",
		"granularity", label,
		"start", start.Format(domain.DateLayout),
		"end", end.Format(domain.DateLayout),
		"rows", v.Rows,
	)

	s.publish(v)
	return v, nil
}

// publish hands v to the sink. Sink failures are logged and counted but never
// fail the view.
func (s *Service) publish(v View) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Publish(context.Background(), v); err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Warn("view publish failed", "granularity", v.Granularity.String(), "error", err)
		return
	}
	s.metrics.ViewsPublished.Inc()
}
