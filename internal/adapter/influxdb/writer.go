// Package influxdb mirrors ingested measurements into an InfluxDB v2 bucket.
package influxdb

import (
	"context"
	"fmt"
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/couchcryptid/airquality-ingest-service/internal/config"
	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
)

const measurementName = "air_quality"

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Writer writes measurement batches as points. It implements
// pipeline.BatchLoader.
type Writer struct {
	client influxdb2.Client
	points pointWriter
	logger *slog.Logger
}

// NewWriter creates a blocking writer for the configured org and bucket and
// verifies the server is reachable.
func NewWriter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Writer, error) {
	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb health check: %w", err)
	}
	return &Writer{
		client: client,
		points: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		logger: logger,
	}, nil
}

// SaveAll writes one point per measurement. Measurements without any value
// are skipped since a point needs at least one field.
func (w *Writer) SaveAll(ctx context.Context, rows []domain.Measurement) error {
	points := make([]*write.Point, 0, len(rows))
	for _, m := range rows {
		if p := toPoint(m); p != nil {
			points = append(points, p)
		}
	}
	if len(points) == 0 {
		return nil
	}
	if err := w.points.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("write points: %w", err)
	}
	w.logger.Debug("measurements mirrored to influxdb", "points", len(points))
	return nil
}

// Close flushes and releases the client.
func (w *Writer) Close() {
	if w.client != nil {
		w.client.Close()
	}
}

func toPoint(m domain.Measurement) *write.Point {
	fields := make(map[string]interface{}, len(domain.Fields))
	for _, f := range domain.Fields {
		if v := m.Value(f); v != nil {
			fields[string(f)] = *v
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return write.NewPoint(measurementName, map[string]string{}, fields, m.Timestamp)
}
