// Package area holds the Area aggregate: a named polygon inside the
// municipal boundary that documents can be assigned to.
package area

import (
	"fmt"

	"github.com/urbanatlas/docgraph/internal/domain/geometry"
)

// Area is a polygonal area with a derived centroid. Areas are created once
// from drawn points and are immutable afterwards.
type Area struct {
	id       string
	name     string
	polygon  geometry.Polygon
	centroid geometry.Point
	color    string
}

// New creates an Area from normalized geometry. The centroid is derived from
// the polygon, never supplied.
func New(id, name string, polygon geometry.Polygon, color string) (Area, error) {
	if id == "" {
		return Area{}, fmt.Errorf("area ID is required")
	}
	if err := polygon.Validate(); err != nil {
		return Area{}, fmt.Errorf("area %s: %w", id, err)
	}
	return Area{
		id:       id,
		name:     name,
		polygon:  polygon,
		centroid: polygon.Centroid(),
		color:    color,
	}, nil
}

// Reconstruct creates an Area without validation (storage hydration).
func Reconstruct(id, name string, polygon geometry.Polygon, centroid geometry.Point, color string) Area {
	return Area{id: id, name: name, polygon: polygon, centroid: centroid, color: color}
}

// ID returns the area identifier.
func (a *Area) ID() string { return a.id }

// Name returns the optional display name.
func (a *Area) Name() string { return a.name }

// Polygon returns the stored geometry.
func (a *Area) Polygon() geometry.Polygon { return a.polygon }

// Centroid returns the derived centroid.
func (a *Area) Centroid() geometry.Point { return a.centroid }

// Color returns the display color assigned at creation.
func (a *Area) Color() string { return a.color }
