package ports

import (
	"context"

	"github.com/seu-repo/sigec-insights/internal/domain"
)

// DocumentSource is the read-only view of the schemaless document store.
// Both calls return the whole result set; there is no streaming.
type DocumentSource interface {
	FetchAll(ctx context.Context, collection string) ([]domain.RawDocument, error)
	FetchWhere(ctx context.Context, collection, field string, value interface{}) ([]domain.RawDocument, error)
}
