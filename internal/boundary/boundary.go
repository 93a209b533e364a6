// Package boundary loads the municipal boundary from a GeoJSON file at
// startup. The boundary is read once and treated as immutable for the
// lifetime of the process.
package boundary

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/urbanatlas/docgraph/internal/domain/geometry"
)

// Load reads and parses the boundary file at path.
func Load(path string) (*geometry.Boundary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundary file: %w", err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse boundary file %s: %w", path, err)
	}
	return b, nil
}

// Parse decodes boundary GeoJSON. Accepted shapes: a bare Polygon or
// MultiPolygon geometry, a Feature wrapping one, or a FeatureCollection
// whose features all wrap one.
func Parse(data []byte) (*geometry.Boundary, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	var geoms []geom.T
	switch probe.Type {
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		geoms = append(geoms, f.Geometry)
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	default:
		var g geom.T
		if err := geojson.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		geoms = append(geoms, g)
	}

	var polygons []geometry.Polygon
	for _, g := range geoms {
		ps, err := toPolygons(g)
		if err != nil {
			return nil, err
		}
		polygons = append(polygons, ps...)
	}
	if len(polygons) == 0 {
		return nil, fmt.Errorf("boundary contains no polygons")
	}
	for _, p := range polygons {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid boundary polygon: %w", err)
		}
	}
	return geometry.NewBoundary(polygons...), nil
}

func toPolygons(g geom.T) ([]geometry.Polygon, error) {
	switch gg := g.(type) {
	case *geom.Polygon:
		return []geometry.Polygon{fromGeomPolygon(gg)}, nil
	case *geom.MultiPolygon:
		polygons := make([]geometry.Polygon, 0, gg.NumPolygons())
		for i := 0; i < gg.NumPolygons(); i++ {
			polygons = append(polygons, fromGeomPolygon(gg.Polygon(i)))
		}
		return polygons, nil
	default:
		return nil, fmt.Errorf("unsupported boundary geometry %T", g)
	}
}

// fromGeomPolygon converts go-geom coordinates, which are already in GeoJSON
// lng/lat axis order, without the drawn-ring inversion applied to user input.
func fromGeomPolygon(g *geom.Polygon) geometry.Polygon {
	polygon := make(geometry.Polygon, 0, g.NumLinearRings())
	for i := 0; i < g.NumLinearRings(); i++ {
		coords := g.LinearRing(i).Coords()
		ring := make(geometry.Ring, 0, len(coords))
		for _, c := range coords {
			ring = append(ring, geometry.Point{Lng: c[0], Lat: c[1]})
		}
		polygon = append(polygon, ring)
	}
	return polygon
}

// Checker adapts a loaded boundary to the health check contract.
type Checker struct {
	boundary *geometry.Boundary
}

// NewChecker wraps a boundary for health reporting.
func NewChecker(b *geometry.Boundary) *Checker {
	return &Checker{boundary: b}
}

// HealthCheck reports whether a non-empty boundary is loaded.
func (c *Checker) HealthCheck(_ context.Context) error {
	if c.boundary == nil || len(c.boundary.Polygons()) == 0 {
		return fmt.Errorf("municipal boundary not loaded")
	}
	return nil
}
