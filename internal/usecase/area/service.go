// Package area implements creation and lookup of polygonal areas.
package area

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	domarea "github.com/urbanatlas/docgraph/internal/domain/area"
	"github.com/urbanatlas/docgraph/internal/domain/geometry"
)

// palette provides the display colors cycled across areas at creation.
var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728",
	"#9467bd", "#8c564b", "#e377c2", "#7f7f7f",
}

// Service handles area creation and lookup.
type Service struct {
	repo     Repository
	boundary *geometry.Boundary
}

// New creates an area service. boundary may be nil to disable containment
// checks (tests only).
func New(repo Repository, boundary *geometry.Boundary) *Service {
	return &Service{repo: repo, boundary: boundary}
}

// Create normalizes raw drawn rings (lat/lng order, as drawn) into stored
// geometry, derives the centroid, assigns a palette color and stores the
// area. The polygon must lie inside the municipal boundary.
func (s *Service) Create(ctx context.Context, name string, rings [][]geometry.RawPoint) (domarea.Area, error) {
	polygon, err := geometry.NormalizePolygon(rings, s.boundary)
	if err != nil {
		return domarea.Area{}, fmt.Errorf("normalize polygon: %w", err)
	}

	n, err := s.repo.Count(ctx)
	if err != nil {
		return domarea.Area{}, fmt.Errorf("count areas: %w", err)
	}

	a, err := domarea.New(uuid.NewString(), name, polygon, palette[n%len(palette)])
	if err != nil {
		return domarea.Area{}, fmt.Errorf("build area: %w", err)
	}

	if err := s.repo.Insert(ctx, &a); err != nil {
		return domarea.Area{}, fmt.Errorf("insert area: %w", err)
	}
	return a, nil
}

// Get retrieves an area by ID.
func (s *Service) Get(ctx context.Context, id string) (domarea.Area, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return domarea.Area{}, fmt.Errorf("get area: %w", err)
	}
	return a, nil
}

// List returns all areas.
func (s *Service) List(ctx context.Context) ([]domarea.Area, error) {
	areas, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	return areas, nil
}
