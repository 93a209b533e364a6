// Package geometry validates and normalizes polygon geometry for areas and
// point locations. Stored geometry always uses GeoJSON axis order (longitude,
// latitude); drawn input arrives in map-click order (latitude, longitude).
package geometry

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// MinRingPoints is the minimum number of points of a closed ring (a triangle
// plus the closing point).
const MinRingPoints = 4

// Point is a position in GeoJSON axis order.
type Point struct {
	Lng float64
	Lat float64
}

// RawPoint is a drawn vertex in map-click order: latitude first.
type RawPoint struct {
	Lat float64
	Lng float64
}

// Ring is a closed sequence of points (first == last).
type Ring []Point

// Polygon is an ordered set of rings; ring 0 is the exterior.
type Polygon []Ring

// Reason classifies a geometry validation failure.
type Reason string

const (
	// NotClosed reports a stored ring whose first and last points differ.
	NotClosed Reason = "not_closed"
	// TooFewVertices reports a ring with fewer than MinRingPoints points after closing.
	TooFewVertices Reason = "too_few_vertices"
	// OutOfBounds reports geometry outside the municipal boundary.
	OutOfBounds Reason = "out_of_bounds"
	// InvalidCoordinateRange reports a coordinate outside WGS84 bounds.
	InvalidCoordinateRange Reason = "invalid_coordinate_range"
)

// Error is a typed geometry validation failure.
type Error struct {
	Reason Reason
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid geometry (%s): %s", e.Reason, e.Detail)
}

// NewError creates a geometry error.
func NewError(reason Reason, detail string) error {
	return &Error{Reason: reason, Detail: detail}
}

// ValidateCoordinates reports whether lng/lat are within WGS84 bounds.
func ValidateCoordinates(lng, lat float64) bool {
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

// NormalizePolygon validates raw drawn rings and converts them to stored
// geometry. Each ring is auto-closed by appending its first point when the
// last point differs (exact equality, no epsilon); any other repair is
// rejected with a typed error. When boundary is non-nil every vertex must lie
// inside it.
func NormalizePolygon(rings [][]RawPoint, boundary *Boundary) (Polygon, error) {
	if len(rings) == 0 {
		return nil, NewError(TooFewVertices, "polygon has no rings")
	}

	polygon := make(Polygon, 0, len(rings))
	for i, raw := range rings {
		ring := make(Ring, 0, len(raw)+1)
		for _, rp := range raw {
			if !ValidateCoordinates(rp.Lng, rp.Lat) {
				return nil, NewError(InvalidCoordinateRange,
					fmt.Sprintf("ring %d: lat=%v lng=%v", i, rp.Lat, rp.Lng))
			}
			ring = append(ring, Point{Lng: rp.Lng, Lat: rp.Lat})
		}

		if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		if len(ring) < MinRingPoints {
			return nil, NewError(TooFewVertices,
				fmt.Sprintf("ring %d has %d points after closing, need %d", i, len(ring), MinRingPoints))
		}

		if boundary != nil {
			for _, pt := range ring {
				if !boundary.Contains(pt) {
					return nil, NewError(OutOfBounds,
						fmt.Sprintf("ring %d: vertex (%v, %v) outside municipal boundary", i, pt.Lng, pt.Lat))
				}
			}
		}

		polygon = append(polygon, ring)
	}

	return polygon, nil
}

// Validate checks stored geometry invariants: closed rings, enough vertices,
// coordinates in range. Unlike NormalizePolygon it never repairs.
func (p Polygon) Validate() error {
	if len(p) == 0 {
		return NewError(TooFewVertices, "polygon has no rings")
	}
	for i, ring := range p {
		if len(ring) < MinRingPoints {
			return NewError(TooFewVertices, fmt.Sprintf("ring %d has %d points", i, len(ring)))
		}
		if ring[0] != ring[len(ring)-1] {
			return NewError(NotClosed, fmt.Sprintf("ring %d is not closed", i))
		}
		for _, pt := range ring {
			if !ValidateCoordinates(pt.Lng, pt.Lat) {
				return NewError(InvalidCoordinateRange,
					fmt.Sprintf("ring %d: point (%v, %v)", i, pt.Lng, pt.Lat))
			}
		}
	}
	return nil
}

// Centroid returns the geometric centroid of the polygon. Degenerate
// (zero-area) polygons fall back to the vertex mean of the exterior ring.
func (p Polygon) Centroid() Point {
	c := xy.PolygonsCentroid(p.toGeom())
	if len(c) >= 2 && !math.IsNaN(c[0]) && !math.IsNaN(c[1]) {
		return Point{Lng: c[0], Lat: c[1]}
	}

	var sumLng, sumLat float64
	n := 0
	for _, pt := range p[0][:len(p[0])-1] {
		sumLng += pt.Lng
		sumLat += pt.Lat
		n++
	}
	if n == 0 {
		return Point{}
	}
	return Point{Lng: sumLng / float64(n), Lat: sumLat / float64(n)}
}

// Contains reports whether pt lies inside the polygon using the even-odd
// rule across all rings, so holes subtract from the exterior.
func (p Polygon) Contains(pt Point) bool {
	inside := false
	for _, ring := range p {
		if xy.IsPointInRing(geom.XY, geom.Coord{pt.Lng, pt.Lat}, ring.flatCoords()) {
			inside = !inside
		}
	}
	return inside
}

func (p Polygon) toGeom() *geom.Polygon {
	coords := make([][]geom.Coord, len(p))
	for i, ring := range p {
		coords[i] = make([]geom.Coord, len(ring))
		for j, pt := range ring {
			coords[i][j] = geom.Coord{pt.Lng, pt.Lat}
		}
	}
	return geom.NewPolygon(geom.XY).MustSetCoords(coords)
}

func (r Ring) flatCoords() []float64 {
	flat := make([]float64, 0, len(r)*2)
	for _, pt := range r {
		flat = append(flat, pt.Lng, pt.Lat)
	}
	return flat
}
