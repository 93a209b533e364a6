package area

import (
	"testing"

	"github.com/urbanatlas/docgraph/internal/domain/geometry"
)

func testPolygon() geometry.Polygon {
	return geometry.Polygon{geometry.Ring{
		{Lng: 0, Lat: 0},
		{Lng: 4, Lat: 0},
		{Lng: 4, Lat: 4},
		{Lng: 0, Lat: 4},
		{Lng: 0, Lat: 0},
	}}
}

func TestNew_DerivesCentroid(t *testing.T) {
	a, err := New("area-1", "North", testPolygon(), "#1f77b4")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c := a.Centroid()
	if c.Lng != 2 || c.Lat != 2 {
		t.Errorf("centroid = (%v, %v), want (2, 2)", c.Lng, c.Lat)
	}
	if a.Color() != "#1f77b4" {
		t.Errorf("color = %q", a.Color())
	}
}

func TestNew_RequiresID(t *testing.T) {
	if _, err := New("", "North", testPolygon(), "#fff"); err == nil {
		t.Error("expected error for empty ID")
	}
}

func TestNew_RejectsInvalidGeometry(t *testing.T) {
	open := geometry.Polygon{geometry.Ring{
		{Lng: 0, Lat: 0}, {Lng: 4, Lat: 0}, {Lng: 4, Lat: 4}, {Lng: 0, Lat: 4},
	}}
	if _, err := New("area-1", "North", open, "#fff"); err == nil {
		t.Error("expected error for unclosed ring")
	}
}
