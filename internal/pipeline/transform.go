package pipeline

import (
	"time"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
)

// RowTransformer turns a decoded row into a normalized measurement with its
// derived air quality index.
type RowTransformer struct {
	location *time.Location
}

// NewRowTransformer creates a transformer reading dates and times in loc.
func NewRowTransformer(loc *time.Location) *RowTransformer {
	if loc == nil {
		loc = time.UTC
	}
	return &RowTransformer{location: loc}
}

// Transform normalizes one row. Rows without a usable timestamp return an
// error wrapping domain.ErrMalformedRow; every other value degrades to null.
func (t *RowTransformer) Transform(rec Record) (domain.Measurement, error) {
	ts, err := domain.ParseTimestamp(rec.Get(domain.DateColumn), rec.Get(domain.TimeColumn), t.location)
	if err != nil {
		return domain.Measurement{}, err
	}

	m := domain.Measurement{Timestamp: ts.UTC()}
	for column, field := range domain.SourceColumns {
		*m.FieldPtr(field) = domain.ParseFloat(rec.Get(column))
	}
	m.AirQualityIndex = domain.CompositeIndex(m.COGT, m.NO2GT, m.PT08S5O3).Float64Ptr()
	return m, nil
}
