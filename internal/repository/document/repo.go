package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/urbanatlas/docgraph/internal/db"
	"github.com/urbanatlas/docgraph/internal/domain"
	domdoc "github.com/urbanatlas/docgraph/internal/domain/document"
)

const keyPrefix = domain.KeyPrefix + "document:"

// store is the consumer interface for document persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key string, data []byte) error
	JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error
	JSONGet(ctx context.Context, key string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the document storage contracts of the usecase layer.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Insert stores a new document.
func (r *Repo) Insert(ctx context.Context, doc *domdoc.Document) error {
	key := docKey(doc.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return fmt.Errorf("document %s: %w", doc.ID(), domain.ErrAlreadyExists)
	}

	data, err := marshalDoc(doc)
	if err != nil {
		return err
	}
	if err := r.store.JSONSet(ctx, key, data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	raw, err := r.store.JSONGet(ctx, docKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
		}
		return domdoc.Document{}, fmt.Errorf("json.get %s: %w", docKey(id), err)
	}
	return unmarshalDoc(raw)
}

// List returns every stored document.
func (r *Repo) List(ctx context.Context) ([]domdoc.Document, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	rows, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("json.get documents: %w", err)
	}

	docs := make([]domdoc.Document, 0, len(rows))
	for i, raw := range rows {
		if raw == nil {
			// Deleted between SCAN and fetch.
			continue
		}
		doc, err := unmarshalDoc(raw)
		if err != nil {
			return nil, fmt.Errorf("hydrate %s: %w", keys[i], err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Update overwrites an existing document.
func (r *Repo) Update(ctx context.Context, doc *domdoc.Document) error {
	key := docKey(doc.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return fmt.Errorf("document %s: %w", doc.ID(), domain.ErrDocumentNotFound)
	}

	data, err := marshalDoc(doc)
	if err != nil {
		return err
	}
	if err := r.store.JSONSet(ctx, key, data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// UpdatePair overwrites two documents in one storage transaction. The
// relationship engine relies on this for its both-edges-or-neither guarantee.
func (r *Repo) UpdatePair(ctx context.Context, a, b *domdoc.Document) error {
	dataA, err := marshalDoc(a)
	if err != nil {
		return err
	}
	dataB, err := marshalDoc(b)
	if err != nil {
		return err
	}

	err = r.store.JSONSetMulti(ctx, []db.JSONSetItem{
		{Key: docKey(a.ID()), Data: dataA},
		{Key: docKey(b.ID()), Data: dataB},
	})
	if err != nil {
		return fmt.Errorf("json.set pair %s/%s: %w", a.ID(), b.ID(), err)
	}
	return nil
}

// Delete removes a document.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := docKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return fmt.Errorf("document %s: %w", id, domain.ErrDocumentNotFound)
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func docKey(id string) string {
	return keyPrefix + id
}
