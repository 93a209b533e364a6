// Package mapview derives the map view model: a pure partition of the
// document set into standalone point markers, a municipality group, and
// groups keyed by named area. It owns no state and is recomputed from a
// snapshot on every call.
package mapview

import (
	"fmt"
	"strings"

	domarea "github.com/urbanatlas/docgraph/internal/domain/area"
	domdoc "github.com/urbanatlas/docgraph/internal/domain/document"
	"github.com/urbanatlas/docgraph/internal/domain/geometry"
)

// Filter selects documents for the projection. The zero value includes all
// documents; it replaces the mutable "current filter" the UI used to hold.
type Filter struct {
	Type        string
	Stakeholder string
	YearFrom    int
	YearTo      int
	TitleQuery  string
}

// Matches reports whether a document passes the filter.
func (f Filter) Matches(d *domdoc.Document) bool {
	if f.Type != "" && d.Type() != f.Type {
		return false
	}
	if f.Stakeholder != "" {
		found := false
		for _, sh := range d.Stakeholders() {
			if sh == f.Stakeholder {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	year := d.IssuanceDate().Year()
	if f.YearFrom != 0 && year < f.YearFrom {
		return false
	}
	if f.YearTo != 0 && year > f.YearTo {
		return false
	}
	if f.TitleQuery != "" && !strings.Contains(strings.ToLower(d.Title()), strings.ToLower(f.TitleQuery)) {
		return false
	}
	return true
}

// Marker is a standalone point marker.
type Marker struct {
	Document domdoc.Document
	Point    geometry.Point
}

// AreaGroup is the set of documents assigned to one named area.
type AreaGroup struct {
	Area      domarea.Area
	Documents []domdoc.Document
}

// Projection is the derived map view model.
type Projection struct {
	PointMarkers         []Marker
	AreaGroups           []AreaGroup
	MunicipalityDocs     []domdoc.Document
	HasMunicipalityGroup bool
	// Anomalies lists dropped documents whose area reference did not
	// resolve; the caller logs them, the projection never fails on them.
	Anomalies []string
}

// Project partitions documents against the current area set. It is a pure
// function of its inputs: same snapshot and filter in, same projection out.
// Partition order: municipality flag, then point coordinates, then area
// reference.
func Project(docs []domdoc.Document, areas []domarea.Area, filter Filter) Projection {
	byArea := make(map[string]int, len(areas))
	groups := make([]AreaGroup, len(areas))
	for i, a := range areas {
		byArea[a.ID()] = i
		groups[i] = AreaGroup{Area: a}
	}

	var p Projection
	for i := range docs {
		doc := docs[i]
		if !filter.Matches(&doc) {
			continue
		}

		loc := doc.Location()
		switch loc.Mode() {
		case domdoc.ModeMunicipality:
			p.MunicipalityDocs = append(p.MunicipalityDocs, doc)
		case domdoc.ModePoint:
			pt, _ := loc.Point()
			p.PointMarkers = append(p.PointMarkers, Marker{Document: doc, Point: pt})
		case domdoc.ModeArea:
			areaID, _ := loc.AreaID()
			idx, ok := byArea[areaID]
			if !ok {
				p.Anomalies = append(p.Anomalies, fmt.Sprintf(
					"document %s references unknown area %s", doc.ID(), areaID,
				))
				continue
			}
			groups[idx].Documents = append(groups[idx].Documents, doc)
		}
	}

	for _, g := range groups {
		if len(g.Documents) > 0 {
			p.AreaGroups = append(p.AreaGroups, g)
		}
	}
	p.HasMunicipalityGroup = len(p.MunicipalityDocs) > 0

	return p
}
