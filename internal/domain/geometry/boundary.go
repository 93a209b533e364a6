package geometry

// Boundary is the fixed municipal boundary: one or more polygons that all
// created geometry must stay within.
type Boundary struct {
	polygons []Polygon
}

// NewBoundary creates a boundary from one or more polygons.
func NewBoundary(polygons ...Polygon) *Boundary {
	return &Boundary{polygons: polygons}
}

// Polygons returns the boundary polygons.
func (b *Boundary) Polygons() []Polygon { return b.polygons }

// Contains reports whether pt lies inside any boundary polygon. A point
// exactly on a boundary edge follows the half-open ray-casting rule and may
// resolve to either side; callers must not rely on edge-contact behavior.
func (b *Boundary) Contains(pt Point) bool {
	for _, p := range b.polygons {
		if p.Contains(pt) {
			return true
		}
	}
	return false
}

// ContainsPolygon reports whether every vertex of p lies inside the boundary.
// Edges crossing a concave boundary notch between two inside vertices are not
// detected; the municipal boundary is treated as vertex-wise containment.
func (b *Boundary) ContainsPolygon(p Polygon) bool {
	for _, ring := range p {
		for _, pt := range ring {
			if !b.Contains(pt) {
				return false
			}
		}
	}
	return true
}
