package relationship

import (
	"context"

	domdoc "github.com/urbanatlas/docgraph/internal/domain/document"
)

// Repository is the storage contract the engine needs. UpdatePair must be
// transactional: both documents are written or neither is.
type Repository interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
	List(ctx context.Context) ([]domdoc.Document, error)
	Update(ctx context.Context, doc *domdoc.Document) error
	UpdatePair(ctx context.Context, a, b *domdoc.Document) error
}
