// Package document implements document CRUD, location switching and queries.
package document

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/urbanatlas/docgraph/internal/domain"
	domdoc "github.com/urbanatlas/docgraph/internal/domain/document"
	"github.com/urbanatlas/docgraph/internal/domain/geometry"
)

// Sort keys accepted by Paginate.
const (
	SortByTitle        = "title"
	SortByIssuanceDate = "issuanceDate"
	SortByType         = "type"
)

// Service handles document lifecycle and queries.
type Service struct {
	repo            Repository
	areas           AreaReader
	detacher        Detacher
	boundary        *geometry.Boundary
	defaultPageSize int
	maxPageSize     int
}

// New creates a document service. boundary may be nil to disable containment
// checks (tests only).
func New(repo Repository, areas AreaReader, boundary *geometry.Boundary) *Service {
	return &Service{
		repo:            repo,
		areas:           areas,
		boundary:        boundary,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithDetacher wires the relationship engine's cascade; set after both
// services exist since they depend on each other.
func (s *Service) WithDetacher(d Detacher) *Service {
	s.detacher = d
	return s
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Create validates a spec and stores a new document. Point locations must lie
// inside the municipal boundary; area references must resolve.
func (s *Service) Create(ctx context.Context, spec domdoc.Spec) (domdoc.Document, error) {
	doc, err := domdoc.New(uuid.NewString(), spec)
	if err != nil {
		return domdoc.Document{}, err
	}

	if err := s.checkLocation(ctx, spec.Location); err != nil {
		return domdoc.Document{}, err
	}

	if err := s.repo.Insert(ctx, &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

// Get retrieves a document by ID.
func (s *Service) Get(ctx context.Context, id string) (domdoc.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Update applies a partial update to a document's descriptive fields.
func (s *Service) Update(ctx context.Context, id string, p domdoc.Patch) (domdoc.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	if err := doc.Apply(p); err != nil {
		return domdoc.Document{}, err
	}
	if err := s.repo.Update(ctx, &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

// Delete removes a document. Its relationships are detached from all peers
// first so the graph keeps no dangling edges.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.detacher != nil {
		if err := s.detacher.DetachAll(ctx, id); err != nil {
			return fmt.Errorf("detach relationships: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Find returns all documents matching the predicate. A nil predicate matches
// everything.
func (s *Service) Find(ctx context.Context, pred func(*domdoc.Document) bool) ([]domdoc.Document, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if pred == nil {
		return all, nil
	}
	out := make([]domdoc.Document, 0, len(all))
	for i := range all {
		if pred(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Paginate returns one page of matching documents plus the total match count.
// Order is "asc" or "desc"; unknown sort keys fall back to title.
func (s *Service) Paginate(
	ctx context.Context, pred func(*domdoc.Document) bool,
	sortKey, order string, page, pageSize int,
) ([]domdoc.Document, int, error) {
	matched, err := s.Find(ctx, pred)
	if err != nil {
		return nil, 0, err
	}

	less := lessFunc(sortKey)
	sort.SliceStable(matched, func(i, j int) bool {
		if strings.EqualFold(order, "desc") {
			return less(&matched[j], &matched[i])
		}
		return less(&matched[i], &matched[j])
	})

	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(matched)
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// SetCoordinates moves a document to a point location, clearing any area
// assignment. The point must lie inside the municipal boundary.
func (s *Service) SetCoordinates(ctx context.Context, id string, lng, lat float64) (domdoc.Document, error) {
	loc := domdoc.PointLocation(lng, lat)
	if err := s.checkLocation(ctx, loc); err != nil {
		return domdoc.Document{}, err
	}
	return s.setLocation(ctx, id, loc)
}

// AssignToArea assigns a document to an area, clearing any point coordinates.
func (s *Service) AssignToArea(ctx context.Context, id, areaID string) (domdoc.Document, error) {
	loc := domdoc.AreaLocation(areaID)
	if err := s.checkLocation(ctx, loc); err != nil {
		return domdoc.Document{}, err
	}
	return s.setLocation(ctx, id, loc)
}

// SetToMunicipality attaches a document to the whole municipality, clearing
// coordinates and area assignment.
func (s *Service) SetToMunicipality(ctx context.Context, id string) (domdoc.Document, error) {
	return s.setLocation(ctx, id, domdoc.MunicipalityLocation())
}

// AddTag adds a tag to a document.
func (s *Service) AddTag(ctx context.Context, id, tag string) (domdoc.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	doc.AddTag(tag)
	if err := s.repo.Update(ctx, &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

// AddResource attaches file metadata to a document.
func (s *Service) AddResource(ctx context.Context, id string, res domdoc.Resource) (domdoc.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	doc.AddResource(res)
	if err := s.repo.Update(ctx, &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

// RemoveResource detaches file metadata from a document.
func (s *Service) RemoveResource(ctx context.Context, id, storedName string) (domdoc.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	if !doc.RemoveResource(storedName) {
		return domdoc.Document{}, fmt.Errorf("resource %s on document %s: %w",
			storedName, id, domain.ErrNotFound)
	}
	if err := s.repo.Update(ctx, &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

func (s *Service) setLocation(ctx context.Context, id string, loc domdoc.Location) (domdoc.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	doc.SetLocation(loc)
	if err := s.repo.Update(ctx, &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

// checkLocation enforces the cross-aggregate location rules: points stay
// inside the boundary and area references resolve.
func (s *Service) checkLocation(ctx context.Context, loc domdoc.Location) error {
	switch loc.Mode() {
	case domdoc.ModePoint:
		pt, _ := loc.Point()
		if !geometry.ValidateCoordinates(pt.Lng, pt.Lat) {
			return geometry.NewError(geometry.InvalidCoordinateRange,
				fmt.Sprintf("point (%v, %v)", pt.Lng, pt.Lat))
		}
		if s.boundary != nil && !s.boundary.Contains(pt) {
			return geometry.NewError(geometry.OutOfBounds,
				fmt.Sprintf("point (%v, %v) outside municipal boundary", pt.Lng, pt.Lat))
		}
	case domdoc.ModeArea:
		areaID, _ := loc.AreaID()
		if _, err := s.areas.Get(ctx, areaID); err != nil {
			return fmt.Errorf("resolve area %s: %w", areaID, err)
		}
	}
	return nil
}

func lessFunc(sortKey string) func(a, b *domdoc.Document) bool {
	switch sortKey {
	case SortByIssuanceDate:
		return func(a, b *domdoc.Document) bool {
			return a.IssuanceDate().String() < b.IssuanceDate().String()
		}
	case SortByType:
		return func(a, b *domdoc.Document) bool {
			return a.Type() < b.Type()
		}
	default:
		return func(a, b *domdoc.Document) bool {
			return strings.ToLower(a.Title()) < strings.ToLower(b.Title())
		}
	}
}
