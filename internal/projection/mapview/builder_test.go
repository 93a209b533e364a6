package mapview

import (
	"reflect"
	"testing"

	domarea "github.com/urbanatlas/docgraph/internal/domain/area"
	domdoc "github.com/urbanatlas/docgraph/internal/domain/document"
	"github.com/urbanatlas/docgraph/internal/domain/geometry"
)

func buildDoc(t *testing.T, id, title, docType, year string, stakeholders []string, loc domdoc.Location) domdoc.Document {
	t.Helper()
	doc, err := domdoc.New(id, domdoc.Spec{
		Title:        title,
		Description:  "desc",
		Type:         docType,
		Stakeholders: stakeholders,
		Scale:        "Text",
		IssuanceDate: year,
		Location:     loc,
	})
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	return doc
}

func buildArea(t *testing.T, id string) domarea.Area {
	t.Helper()
	polygon := geometry.Polygon{geometry.Ring{
		{Lng: 0, Lat: 0}, {Lng: 2, Lat: 0}, {Lng: 2, Lat: 2}, {Lng: 0, Lat: 2}, {Lng: 0, Lat: 0},
	}}
	a, err := domarea.New(id, "Area "+id, polygon, "#fff")
	if err != nil {
		t.Fatalf("build area: %v", err)
	}
	return a
}

func TestProject_Partition(t *testing.T) {
	docs := []domdoc.Document{
		buildDoc(t, "d1", "One", "Plan", "2010", nil, domdoc.MunicipalityLocation()),
		buildDoc(t, "d2", "Two", "Plan", "2011", nil, domdoc.PointLocation(20.2, 67.8)),
		buildDoc(t, "d3", "Three", "Plan", "2012", nil, domdoc.AreaLocation("a1")),
	}
	areas := []domarea.Area{buildArea(t, "a1"), buildArea(t, "a2")}

	p := Project(docs, areas, Filter{})

	if len(p.MunicipalityDocs) != 1 || p.MunicipalityDocs[0].ID() != "d1" {
		t.Errorf("municipality docs = %d", len(p.MunicipalityDocs))
	}
	if !p.HasMunicipalityGroup {
		t.Error("expected municipality group")
	}
	if len(p.PointMarkers) != 1 || p.PointMarkers[0].Point.Lng != 20.2 {
		t.Errorf("point markers = %+v", p.PointMarkers)
	}
	// Only areas with documents are emitted.
	if len(p.AreaGroups) != 1 || p.AreaGroups[0].Area.ID() != "a1" {
		t.Fatalf("area groups = %d", len(p.AreaGroups))
	}
	if len(p.AreaGroups[0].Documents) != 1 || p.AreaGroups[0].Documents[0].ID() != "d3" {
		t.Errorf("group documents = %+v", p.AreaGroups[0].Documents)
	}
	if len(p.Anomalies) != 0 {
		t.Errorf("unexpected anomalies: %v", p.Anomalies)
	}
}

func TestProject_UnknownAreaBecomesAnomaly(t *testing.T) {
	docs := []domdoc.Document{
		buildDoc(t, "d1", "One", "Plan", "2010", nil, domdoc.AreaLocation("ghost")),
	}

	p := Project(docs, nil, Filter{})

	if len(p.AreaGroups) != 0 {
		t.Errorf("no groups expected, got %d", len(p.AreaGroups))
	}
	if len(p.Anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %v", p.Anomalies)
	}
}

func TestProject_NoMunicipalityGroupWhenEmpty(t *testing.T) {
	docs := []domdoc.Document{
		buildDoc(t, "d1", "One", "Plan", "2010", nil, domdoc.PointLocation(1, 1)),
	}

	p := Project(docs, nil, Filter{})
	if p.HasMunicipalityGroup {
		t.Error("no municipality group expected")
	}
}

func TestProject_Deterministic(t *testing.T) {
	docs := []domdoc.Document{
		buildDoc(t, "d1", "One", "Plan", "2010", nil, domdoc.AreaLocation("a1")),
		buildDoc(t, "d2", "Two", "Plan", "2011", nil, domdoc.PointLocation(1, 1)),
	}
	areas := []domarea.Area{buildArea(t, "a1")}

	first := Project(docs, areas, Filter{})
	second := Project(docs, areas, Filter{})
	if !reflect.DeepEqual(first, second) {
		t.Error("projection must be a pure function of its inputs")
	}
}

func TestFilterMatches(t *testing.T) {
	doc := buildDoc(t, "d1", "Harbour Development Plan", "Prescriptive", "2012",
		[]string{"Municipality", "Port Authority"}, domdoc.MunicipalityLocation())

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"zero filter matches", Filter{}, true},
		{"type match", Filter{Type: "Prescriptive"}, true},
		{"type mismatch", Filter{Type: "Informative"}, false},
		{"stakeholder match", Filter{Stakeholder: "Port Authority"}, true},
		{"stakeholder mismatch", Filter{Stakeholder: "Region"}, false},
		{"year window", Filter{YearFrom: 2010, YearTo: 2015}, true},
		{"year before window", Filter{YearFrom: 2013}, false},
		{"year after window", Filter{YearTo: 2011}, false},
		{"title substring case-insensitive", Filter{TitleQuery: "harbour"}, true},
		{"title mismatch", Filter{TitleQuery: "railway"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Matches(&doc); got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestProject_AppliesFilter(t *testing.T) {
	docs := []domdoc.Document{
		buildDoc(t, "d1", "One", "Plan", "2010", nil, domdoc.PointLocation(1, 1)),
		buildDoc(t, "d2", "Two", "Report", "2011", nil, domdoc.PointLocation(2, 2)),
	}

	p := Project(docs, nil, Filter{Type: "Report"})
	if len(p.PointMarkers) != 1 || p.PointMarkers[0].Document.ID() != "d2" {
		t.Errorf("filter not applied: %+v", p.PointMarkers)
	}
}
