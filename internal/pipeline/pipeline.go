package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/bikeshare-analytics-service/internal/domain"
	"github.com/couchcryptid/bikeshare-analytics-service/internal/observability"
)

// Extractor reads every raw row of one granularity's source.
type Extractor interface {
	Granularity() domain.Granularity
	Name() string
	Extract(ctx context.Context) ([]domain.RawRecord, error)
}

// Transformer converts a raw row into a cleaned record.
type Transformer interface {
	Transform(g domain.Granularity, raw domain.RawRecord) (domain.Record, error)
}

// Pipeline loads both source tables into immutable Datasets. The first
// successful Load is cached for the lifetime of the Pipeline; a failed load
// is cached too, since the sources do not change during a session.
type Pipeline struct {
	daily       Extractor
	hourly      Extractor
	transformer Transformer
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock

	mu       sync.Mutex
	done     bool
	datasets *domain.Datasets
	err      error
	ready    atomic.Bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the clock used to stamp Datasets.LoadedAt.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithTransformer overrides the row transformer.
func WithTransformer(t Transformer) Option {
	return func(p *Pipeline) { p.transformer = t }
}

// New creates a Pipeline reading the daily and hourly sources.
func New(daily, hourly Extractor, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		daily:       daily,
		hourly:      hourly,
		transformer: NewTransformer(),
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once both datasets are loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("datasets have not been loaded yet")
	}
	return nil
}

// Load extracts and normalizes both tables. It aborts on the first error and
// never returns a partial result.
func (p *Pipeline) Load(ctx context.Context) (*domain.Datasets, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return p.datasets, p.err
	}

	start := p.clock.Now()
	datasets, err := p.load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Cancellation is not a property of the sources; allow a retry.
			return nil, err
		}
		p.metrics.LoadErrors.Inc()
		p.logger.Error("dataset load failed", "error", err)
		p.done, p.err = true, err
		return nil, err
	}

	p.metrics.RowsLoaded.WithLabelValues(domain.Daily.String()).Add(float64(datasets.Daily.Len()))
	p.metrics.RowsLoaded.WithLabelValues(domain.Hourly.String()).Add(float64(datasets.Hourly.Len()))
	p.metrics.LoadDuration.Observe(p.clock.Since(start).Seconds())
	p.metrics.DatasetsLoaded.Set(1)
	p.logger.Info("datasets loaded",
		"daily_rows", datasets.Daily.Len(),
		"hourly_rows", datasets.Hourly.Len(),
		"duration", p.clock.Since(start),
	)

	p.done, p.datasets = true, datasets
	p.ready.Store(true)
	return datasets, nil
}

func (p *Pipeline) load(ctx context.Context) (*domain.Datasets, error) {
	daily, err := p.loadOne(ctx, p.daily, domain.Daily)
	if err != nil {
		return nil, err
	}
	hourly, err := p.loadOne(ctx, p.hourly, domain.Hourly)
	if err != nil {
		return nil, err
	}
	return &domain.Datasets{Daily: daily, Hourly: hourly, LoadedAt: p.clock.Now()}, nil
}

// loadOne runs extract and transform for a single source, preserving row order.
func (p *Pipeline) loadOne(ctx context.Context, src Extractor, want domain.Granularity) (*domain.Dataset, error) {
	if src.Granularity() != want {
		return nil, fmt.Errorf("%w: %s source configured as %s", domain.ErrInvalidGranularity, src.Name(), src.Granularity())
	}

	raws, err := src.Extract(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := p.transformer.Transform(want, raw)
		if err != nil {
			return nil, &domain.LoadError{Source: src.Name(), Line: raw.Line, Err: err}
		}
		records = append(records, rec)
	}

	p.logger.Debug("source loaded", "source", src.Name(), "granularity", want.String(), "rows", len(records))
	return domain.NewDataset(want, records), nil
}
