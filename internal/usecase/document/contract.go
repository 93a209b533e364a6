package document

import (
	"context"

	domarea "github.com/urbanatlas/docgraph/internal/domain/area"
	domdoc "github.com/urbanatlas/docgraph/internal/domain/document"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Insert(ctx context.Context, doc *domdoc.Document) error
	Get(ctx context.Context, id string) (domdoc.Document, error)
	List(ctx context.Context) ([]domdoc.Document, error)
	Update(ctx context.Context, doc *domdoc.Document) error
	Delete(ctx context.Context, id string) error
}

// AreaReader resolves area references when documents are assigned to areas.
type AreaReader interface {
	Get(ctx context.Context, id string) (domarea.Area, error)
}

// Detacher removes all relationship edges of a document from both sides.
// The relationship engine implements it; deletion cascades through it.
type Detacher interface {
	DetachAll(ctx context.Context, docID string) error
}
