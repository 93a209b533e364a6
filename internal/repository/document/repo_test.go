package document

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/urbanatlas/docgraph/internal/db/memory"
	"github.com/urbanatlas/docgraph/internal/domain"
	domdoc "github.com/urbanatlas/docgraph/internal/domain/document"
)

func newDoc(t *testing.T, id string, loc domdoc.Location) domdoc.Document {
	t.Helper()
	doc, err := domdoc.New(id, domdoc.Spec{
		Title:        "Plan " + id,
		Description:  "desc",
		Type:         "Prescriptive",
		Scale:        "1:5000",
		IssuanceDate: "2012",
		Location:     loc,
	})
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	return doc
}

func TestInsertGet_RoundTrip(t *testing.T) {
	repo := New(memory.NewStore())
	ctx := context.Background()

	doc := newDoc(t, "doc-1", domdoc.PointLocation(20.2, 67.8))
	doc.AddTag("housing")
	doc.AddRelationship(domdoc.Relationship{ID: "rel-1", PeerID: "doc-2", PeerTitle: "Other", Type: domdoc.Update})
	doc.AddResource(domdoc.Resource{StoredName: "a.pdf", OriginalName: "plan.pdf", URL: "/files/a.pdf", MimeType: "application/pdf"})

	if err := repo.Insert(ctx, &doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := repo.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.Title() != "Plan doc-1" || got.Scale().String() != "1:5000" {
		t.Errorf("descriptive fields lost: %q %q", got.Title(), got.Scale().String())
	}
	pt, ok := got.Location().Point()
	if !ok || pt.Lng != 20.2 || pt.Lat != 67.8 {
		t.Errorf("point location lost: (%+v, %v)", pt, ok)
	}
	if got.Connections() != 1 || len(got.Relationships()) != 1 {
		t.Errorf("relationships lost: connections=%d", got.Connections())
	}
	if got.Relationships()[0].Type != domdoc.Update {
		t.Errorf("relation type = %q", got.Relationships()[0].Type)
	}
	if len(got.Resources()) != 1 || got.Resources()[0].StoredName != "a.pdf" {
		t.Errorf("resources lost: %+v", got.Resources())
	}
	if len(got.Tags()) != 1 {
		t.Errorf("tags lost: %v", got.Tags())
	}
}

func TestRoundTrip_LocationModes(t *testing.T) {
	tests := []struct {
		name string
		loc  domdoc.Location
		mode domdoc.LocationMode
	}{
		{"point", domdoc.PointLocation(20.2, 67.8), domdoc.ModePoint},
		{"area", domdoc.AreaLocation("area-1"), domdoc.ModeArea},
		{"municipality", domdoc.MunicipalityLocation(), domdoc.ModeMunicipality},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := New(memory.NewStore())
			ctx := context.Background()

			doc := newDoc(t, "doc-1", tc.loc)
			if err := repo.Insert(ctx, &doc); err != nil {
				t.Fatalf("Insert: %v", err)
			}

			got, err := repo.Get(ctx, "doc-1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Location().Mode() != tc.mode {
				t.Errorf("mode = %q, want %q", got.Location().Mode(), tc.mode)
			}
		})
	}
}

func TestPersistedShape_LocationExclusive(t *testing.T) {
	store := memory.NewStore()
	repo := New(store)
	ctx := context.Background()

	doc := newDoc(t, "doc-1", domdoc.AreaLocation("area-1"))
	if err := repo.Insert(ctx, &doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	raw, err := store.JSONGet(ctx, "docgraph:document:doc-1")
	if err != nil {
		t.Fatalf("JSONGet: %v", err)
	}
	var row map[string]json.RawMessage
	if err := json.Unmarshal(raw, &row); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := row["coordinates"]; ok {
		t.Error("coordinates must be absent for an area-assigned document")
	}
	if _, ok := row["areaId"]; !ok {
		t.Error("areaId must be present for an area-assigned document")
	}
}

func TestDecodeRow_AcceptsJSONPathArrayWrapper(t *testing.T) {
	// JSON.GET with a $ path returns a one-element array.
	raw := []byte(`[{"id":"doc-1","title":"T","description":"D","type":"X","scale":"Text","issuanceDate":"2010","connections":0}]`)

	doc, err := unmarshalDoc(raw)
	if err != nil {
		t.Fatalf("unmarshalDoc: %v", err)
	}
	if doc.ID() != "doc-1" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if doc.Location().Mode() != domdoc.ModeMunicipality {
		t.Errorf("absent location fields must hydrate as municipality, got %q", doc.Location().Mode())
	}
}

func TestInsert_Duplicate(t *testing.T) {
	repo := New(memory.NewStore())
	ctx := context.Background()

	doc := newDoc(t, "doc-1", domdoc.MunicipalityLocation())
	if err := repo.Insert(ctx, &doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := repo.Insert(ctx, &doc); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUpdateDelete_Missing(t *testing.T) {
	repo := New(memory.NewStore())
	ctx := context.Background()

	if _, err := repo.Get(ctx, "ghost"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("Get: expected ErrDocumentNotFound, got %v", err)
	}

	doc := newDoc(t, "ghost", domdoc.MunicipalityLocation())
	if err := repo.Update(ctx, &doc); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("Update: expected ErrDocumentNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "ghost"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("Delete: expected ErrDocumentNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	repo := New(memory.NewStore())
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		doc := newDoc(t, id, domdoc.MunicipalityLocation())
		if err := repo.Insert(ctx, &doc); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}

	docs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 3 {
		t.Errorf("got %d documents, want 3", len(docs))
	}
}

func TestUpdatePair_WritesBoth(t *testing.T) {
	repo := New(memory.NewStore())
	ctx := context.Background()

	a := newDoc(t, "a", domdoc.MunicipalityLocation())
	b := newDoc(t, "b", domdoc.MunicipalityLocation())
	for _, d := range []*domdoc.Document{&a, &b} {
		if err := repo.Insert(ctx, d); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	a.AddRelationship(domdoc.Relationship{ID: "rel-1", PeerID: "b", PeerTitle: b.Title(), Type: domdoc.Projection})
	b.AddRelationship(domdoc.Relationship{ID: "rel-1", PeerID: "a", PeerTitle: a.Title(), Type: domdoc.Projection})

	if err := repo.UpdatePair(ctx, &a, &b); err != nil {
		t.Fatalf("UpdatePair: %v", err)
	}

	for _, id := range []string{"a", "b"} {
		got, err := repo.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get %s: %v", id, err)
		}
		if got.Connections() != 1 {
			t.Errorf("%s: connections = %d, want 1", id, got.Connections())
		}
	}
}
