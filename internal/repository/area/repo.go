package area

import (
	"context"
	"errors"
	"fmt"

	"github.com/urbanatlas/docgraph/internal/db"
	"github.com/urbanatlas/docgraph/internal/domain"
	domarea "github.com/urbanatlas/docgraph/internal/domain/area"
)

const keyPrefix = domain.KeyPrefix + "area:"

// store is the consumer interface for area persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key string, data []byte) error
	JSONGet(ctx context.Context, key string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/area.Repository.
type Repo struct {
	store store
}

// New creates an area repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Insert stores a new area. Areas are immutable, so there is no update path.
func (r *Repo) Insert(ctx context.Context, a *domarea.Area) error {
	key := areaKey(a.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return fmt.Errorf("area %s: %w", a.ID(), domain.ErrAlreadyExists)
	}

	data, err := marshalArea(a)
	if err != nil {
		return err
	}
	if err := r.store.JSONSet(ctx, key, data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Get returns an area by ID.
func (r *Repo) Get(ctx context.Context, id string) (domarea.Area, error) {
	raw, err := r.store.JSONGet(ctx, areaKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domarea.Area{}, fmt.Errorf("area %s: %w", id, domain.ErrAreaNotFound)
		}
		return domarea.Area{}, fmt.Errorf("json.get %s: %w", areaKey(id), err)
	}
	return unmarshalArea(raw)
}

// List returns every stored area.
func (r *Repo) List(ctx context.Context) ([]domarea.Area, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan areas: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	rows, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("json.get areas: %w", err)
	}

	areas := make([]domarea.Area, 0, len(rows))
	for i, raw := range rows {
		if raw == nil {
			continue
		}
		a, err := unmarshalArea(raw)
		if err != nil {
			return nil, fmt.Errorf("hydrate %s: %w", keys[i], err)
		}
		areas = append(areas, a)
	}
	return areas, nil
}

// Count returns the number of stored areas.
func (r *Repo) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan areas: %w", err)
	}
	return len(keys), nil
}

func areaKey(id string) string {
	return keyPrefix + id
}
