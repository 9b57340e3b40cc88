// Package query serves time-ordered reads over persisted measurements. Every
// request is validated before storage is touched.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
	"github.com/couchcryptid/airquality-ingest-service/internal/observability"
)

const (
	kindSeries = "series"
	kindRange  = "range"
)

// Store reads measurements ordered by timestamp ascending.
type Store interface {
	QueryRange(ctx context.Context, q domain.RangeQuery) ([]domain.Measurement, error)
}

// Page selects a window of an ordered result. It applies only when both
// Number and Size are positive; the zero value returns everything.
type Page struct {
	Number int
	Size   int
}

func (p Page) window() (offset, limit int, err error) {
	if p.Number < 0 || p.Size < 0 {
		return 0, 0, fmt.Errorf("%w: page=%d limit=%d", domain.ErrInvalidPage, p.Number, p.Size)
	}
	if p.Number == 0 || p.Size == 0 {
		return 0, 0, nil
	}
	return (p.Number - 1) * p.Size, p.Size, nil
}

// SeriesRequest asks for one parameter over an optional time window.
type SeriesRequest struct {
	Parameter string
	Start     *time.Time
	End       *time.Time
	Page      Page
}

// RangeRequest asks for every parameter over a mandatory time window.
type RangeRequest struct {
	Start time.Time
	End   time.Time
	Page  Page
}

// Engine validates read requests and executes them against a Store.
type Engine struct {
	store   Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewEngine creates an Engine over store.
func NewEngine(store Store, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{store: store, logger: logger, metrics: metrics}
}

// SeriesForParameter returns {timestamp, value} points for one allow-listed
// parameter, ordered by timestamp ascending.
func (e *Engine) SeriesForParameter(ctx context.Context, req SeriesRequest) ([]domain.SeriesPoint, error) {
	field, err := domain.ParseField(req.Parameter)
	if err != nil {
		return nil, e.rejected(kindSeries, err)
	}
	if req.Start != nil && req.End != nil && req.Start.After(*req.End) {
		return nil, e.rejected(kindSeries, fmt.Errorf("%w: start after end", domain.ErrInvalidRange))
	}
	offset, limit, err := req.Page.window()
	if err != nil {
		return nil, e.rejected(kindSeries, err)
	}

	rows, err := e.run(ctx, kindSeries, domain.RangeQuery{
		Fields: []domain.Field{field},
		Start:  req.Start,
		End:    req.End,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	points := make([]domain.SeriesPoint, len(rows))
	for i, m := range rows {
		points[i] = domain.SeriesPoint{Timestamp: m.Timestamp, Value: m.Value(field)}
	}
	return points, nil
}

// AllParametersForRange returns full rows between Start and End inclusive,
// ordered by timestamp ascending.
func (e *Engine) AllParametersForRange(ctx context.Context, req RangeRequest) ([]domain.Measurement, error) {
	if req.Start.IsZero() || req.End.IsZero() {
		return nil, e.rejected(kindRange, fmt.Errorf("%w: start and end are required", domain.ErrInvalidRange))
	}
	if req.Start.After(req.End) {
		return nil, e.rejected(kindRange, fmt.Errorf("%w: start after end", domain.ErrInvalidRange))
	}
	offset, limit, err := req.Page.window()
	if err != nil {
		return nil, e.rejected(kindRange, err)
	}

	start, end := req.Start, req.End
	return e.run(ctx, kindRange, domain.RangeQuery{
		Fields: domain.Fields,
		Start:  &start,
		End:    &end,
		Offset: offset,
		Limit:  limit,
	})
}

func (e *Engine) run(ctx context.Context, kind string, q domain.RangeQuery) ([]domain.Measurement, error) {
	began := time.Now()
	rows, err := e.store.QueryRange(ctx, q)
	e.metrics.QueryDuration.WithLabelValues(kind).Observe(time.Since(began).Seconds())

	if err != nil {
		e.metrics.Queries.WithLabelValues(kind, "error").Inc()
		e.logger.Error("query failed", "kind", kind, "error", err)
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	e.metrics.Queries.WithLabelValues(kind, "success").Inc()
	e.logger.Debug("query served", "kind", kind, "rows", len(rows), "offset", q.Offset, "limit", q.Limit)
	return rows, nil
}

func (e *Engine) rejected(kind string, err error) error {
	e.metrics.Queries.WithLabelValues(kind, "invalid").Inc()
	return err
}
