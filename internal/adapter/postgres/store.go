// Package postgres persists measurements in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
)

const (
	table           = "measurements"
	timestampColumn = "timestamp"
)

const migrateSQL = `
CREATE TABLE IF NOT EXISTS measurements (
    id                BIGSERIAL PRIMARY KEY,
    "timestamp"       TIMESTAMPTZ NOT NULL,
    co_gt             DOUBLE PRECISION,
    pt08s1_co         DOUBLE PRECISION,
    nmhc_gt           DOUBLE PRECISION,
    c6h6_gt           DOUBLE PRECISION,
    pt08s2_nmhc       DOUBLE PRECISION,
    nox_gt            DOUBLE PRECISION,
    pt08s3_nox        DOUBLE PRECISION,
    no2_gt            DOUBLE PRECISION,
    pt08s4_no2        DOUBLE PRECISION,
    pt08s5_o3         DOUBLE PRECISION,
    t                 DOUBLE PRECISION,
    rh                DOUBLE PRECISION,
    ah                DOUBLE PRECISION,
    air_quality_index DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS measurements_timestamp_idx ON measurements ("timestamp");
`

// Store reads and writes measurements.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the measurements table and its timestamp index.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, migrateSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SaveAll bulk-inserts rows with a single COPY. Duplicates are not detected.
func (s *Store) SaveAll(ctx context.Context, rows []domain.Measurement) error {
	if len(rows) == 0 {
		return nil
	}

	columns := append([]string{timestampColumn}, fieldColumns(domain.Fields)...)
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{table}, columns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return rowValues(rows[i]), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy measurements: %w", err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("copy measurements: wrote %d of %d rows", n, len(rows))
	}
	return nil
}

// QueryRange returns the projected fields of rows inside the window, ordered
// by timestamp ascending.
func (s *Store) QueryRange(ctx context.Context, q domain.RangeQuery) ([]domain.Measurement, error) {
	sql, args := buildRangeQuery(q)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query measurements: %w", err)
	}
	defer rows.Close()

	measurements := make([]domain.Measurement, 0)
	for rows.Next() {
		var m domain.Measurement
		dest := make([]any, 0, len(q.Fields)+1)
		dest = append(dest, &m.Timestamp)
		for _, f := range q.Fields {
			dest = append(dest, m.FieldPtr(f))
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		m.Timestamp = m.Timestamp.UTC()
		measurements = append(measurements, m)
	}
	return measurements, rows.Err()
}

// buildRangeQuery renders q as SQL. Column names come from the field
// allow-list only; every bound is a placeholder.
func buildRangeQuery(q domain.RangeQuery) (string, []any) {
	ts := pgx.Identifier{timestampColumn}.Sanitize()

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(ts)
	for _, c := range fieldColumns(q.Fields) {
		b.WriteString(", ")
		b.WriteString(pgx.Identifier{c}.Sanitize())
	}
	b.WriteString(" FROM ")
	b.WriteString(pgx.Identifier{table}.Sanitize())

	var args []any
	var where []string
	if q.Start != nil {
		args = append(args, *q.Start)
		where = append(where, ts+" >= $"+strconv.Itoa(len(args)))
	}
	if q.End != nil {
		args = append(args, *q.End)
		where = append(where, ts+" <= $"+strconv.Itoa(len(args)))
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(ts)
	b.WriteString(", id")

	if q.Limit > 0 {
		args = append(args, q.Limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		b.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}
	return b.String(), args
}

func fieldColumns(fields []domain.Field) []string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = string(f)
	}
	return cols
}

func rowValues(m domain.Measurement) []any {
	values := make([]any, 0, len(domain.Fields)+1)
	values = append(values, m.Timestamp)
	for _, f := range domain.Fields {
		values = append(values, m.Value(f))
	}
	return values
}
