package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/airquality-ingest-service/internal/domain"
)

// MultiLoader writes each batch to every loader in order and stops at the
// first failure. Earlier loaders are not rolled back.
type MultiLoader []BatchLoader

func (m MultiLoader) SaveAll(ctx context.Context, rows []domain.Measurement) error {
	for i, l := range m {
		if err := l.SaveAll(ctx, rows); err != nil {
			return fmt.Errorf("loader %d: %w", i, err)
		}
	}
	return nil
}
