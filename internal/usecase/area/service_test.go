package area

import (
	"context"
	"errors"
	"testing"

	"github.com/urbanatlas/docgraph/internal/db/memory"
	"github.com/urbanatlas/docgraph/internal/domain/geometry"
	arearepo "github.com/urbanatlas/docgraph/internal/repository/area"
)

func testBoundary() *geometry.Boundary {
	return geometry.NewBoundary(geometry.Polygon{geometry.Ring{
		{Lng: 0, Lat: 0},
		{Lng: 10, Lat: 0},
		{Lng: 10, Lat: 10},
		{Lng: 0, Lat: 10},
		{Lng: 0, Lat: 0},
	}})
}

// Drawn rings arrive lat-first and unclosed.
func drawnSquare(minLat, minLng, maxLat, maxLng float64) [][]geometry.RawPoint {
	return [][]geometry.RawPoint{{
		{Lat: minLat, Lng: minLng},
		{Lat: minLat, Lng: maxLng},
		{Lat: maxLat, Lng: maxLng},
		{Lat: maxLat, Lng: minLng},
	}}
}

func TestCreate_NormalizesAndDerives(t *testing.T) {
	svc := New(arearepo.New(memory.NewStore()), testBoundary())

	a, err := svc.Create(context.Background(), "North", drawnSquare(1, 1, 3, 3))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if a.ID() == "" {
		t.Error("expected generated ID")
	}
	if a.Name() != "North" {
		t.Errorf("name = %q", a.Name())
	}
	if c := a.Centroid(); c.Lng != 2 || c.Lat != 2 {
		t.Errorf("centroid = (%v, %v), want (2, 2)", c.Lng, c.Lat)
	}
	ring := a.Polygon()[0]
	if ring[0] != ring[len(ring)-1] {
		t.Error("stored ring must be closed")
	}
}

func TestCreate_PaletteCycles(t *testing.T) {
	svc := New(arearepo.New(memory.NewStore()), testBoundary())
	ctx := context.Background()

	var colors []string
	for i := 0; i < len(palette)+1; i++ {
		a, err := svc.Create(ctx, "", drawnSquare(1, 1, 3, 3))
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
		colors = append(colors, a.Color())
	}

	for i, c := range colors {
		if c != palette[i%len(palette)] {
			t.Errorf("area %d color = %q, want %q", i, c, palette[i%len(palette)])
		}
	}
}

func TestCreate_OutsideBoundaryRejected(t *testing.T) {
	svc := New(arearepo.New(memory.NewStore()), testBoundary())

	_, err := svc.Create(context.Background(), "Far", drawnSquare(20, 20, 25, 25))
	var ge *geometry.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected geometry error, got %v", err)
	}
	if ge.Reason != geometry.OutOfBounds {
		t.Errorf("reason = %q", ge.Reason)
	}
}

func TestGetAndList(t *testing.T) {
	svc := New(arearepo.New(memory.NewStore()), testBoundary())
	ctx := context.Background()

	a, err := svc.Create(ctx, "North", drawnSquare(1, 1, 3, 3))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Get(ctx, a.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID() != a.ID() {
		t.Errorf("Get returned %q", got.ID())
	}

	areas, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(areas) != 1 {
		t.Errorf("got %d areas", len(areas))
	}
}
