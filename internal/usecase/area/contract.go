package area

import (
	"context"

	domarea "github.com/urbanatlas/docgraph/internal/domain/area"
)

// Repository defines the storage contract for areas.
type Repository interface {
	Insert(ctx context.Context, a *domarea.Area) error
	Get(ctx context.Context, id string) (domarea.Area, error)
	List(ctx context.Context) ([]domarea.Area, error)
	Count(ctx context.Context) (int, error)
}
