// Package diagram derives the temporal node-link diagram: documents on a
// (issuance year, scale) grid with radial spread for co-located nodes, and
// one curved connector per relationship. Pure and stateless like mapview.
package diagram

import (
	"fmt"
	"math"
	"sort"

	"github.com/urbanatlas/docgraph/internal/domain"
	domdoc "github.com/urbanatlas/docgraph/internal/domain/document"
)

// Radius is the radial spread, in grid cell units, applied to groups of
// co-located nodes. A group of one sits on its anchor.
const Radius = 0.25

// Node is one positioned document.
type Node struct {
	DocumentID string
	Title      string
	Type       string
	Year       int
	Scale      string
	X          float64
	Y          float64
	GroupSize  int
}

// Edge is a curved connector between two related documents.
type Edge struct {
	ID       string
	SourceID string
	TargetID string
	Type     domdoc.RelationType
	// Path is an SVG cubic Bézier whose control points sit at the
	// horizontal midpoint at each endpoint's own vertical level,
	// producing an S-curve.
	Path string
	// Dash is the stroke-dasharray for the relation type; empty means solid.
	Dash string
}

// Projection is the derived diagram view model.
type Projection struct {
	Nodes   []Node
	Edges   []Edge
	XDomain []int
	YDomain []string
	// Anomalies lists relationships dropped because an endpoint is not in
	// the current document set.
	Anomalies []string
}

// dashPatterns keys stroke style by relation type.
var dashPatterns = map[domdoc.RelationType]string{
	domdoc.DirectConsequence:     "",
	domdoc.CollateralConsequence: "8 4",
	domdoc.Projection:            "2 2",
	domdoc.Update:                "8 4 2 4",
}

// DashPattern returns the stroke-dasharray for a relation type.
func DashPattern(t domdoc.RelationType) string {
	return dashPatterns[t]
}

// Project lays out the document set. A document without a parsable issuance
// year is a hard error naming the culprit, since the year axis cannot be
// built around it; per-relationship anomalies are dropped instead.
func Project(docs []domdoc.Document) (Projection, error) {
	if len(docs) == 0 {
		return Projection{}, nil
	}

	for i := range docs {
		if docs[i].IssuanceDate().IsZero() {
			return Projection{}, fmt.Errorf(
				"document %s has no parsable issuance year: %w", docs[i].ID(), domain.ErrValidation,
			)
		}
	}

	xDomain := yearDomain(docs)
	yDomain := scaleDomain(docs)

	yIndex := make(map[string]int, len(yDomain))
	for i, s := range yDomain {
		yIndex[s] = i
	}

	// Group by (year, scale) in input order so layout is deterministic for
	// a given input order.
	type groupKey struct {
		year  int
		scale string
	}
	groups := make(map[groupKey][]int)
	order := make([]groupKey, 0)
	for i := range docs {
		key := groupKey{year: docs[i].IssuanceDate().Year(), scale: docs[i].Scale().String()}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	p := Projection{XDomain: xDomain, YDomain: yDomain}
	pos := make(map[string][2]float64, len(docs))

	for _, key := range order {
		members := groups[key]
		anchorX := float64(key.year - xDomain[0])
		anchorY := float64(yIndex[key.scale])
		k := len(members)

		for i, docIdx := range members {
			x, y := anchorX, anchorY
			if k > 1 {
				angle := 2 * math.Pi * float64(i) / float64(k)
				x += Radius * math.Cos(angle)
				y += Radius * math.Sin(angle)
			}
			doc := &docs[docIdx]
			p.Nodes = append(p.Nodes, Node{
				DocumentID: doc.ID(),
				Title:      doc.Title(),
				Type:       doc.Type(),
				Year:       key.year,
				Scale:      key.scale,
				X:          x,
				Y:          y,
				GroupSize:  k,
			})
			pos[doc.ID()] = [2]float64{x, y}
		}
	}

	// One edge per relationship ID: storage holds two directed halves.
	seen := make(map[string]bool)
	for i := range docs {
		for _, rel := range docs[i].Relationships() {
			if seen[rel.ID] {
				continue
			}
			seen[rel.ID] = true

			target, ok := pos[rel.PeerID]
			if !ok {
				p.Anomalies = append(p.Anomalies, fmt.Sprintf(
					"relationship %s: peer %s not in document set", rel.ID, rel.PeerID,
				))
				continue
			}
			source := pos[docs[i].ID()]

			p.Edges = append(p.Edges, Edge{
				ID:       rel.ID,
				SourceID: docs[i].ID(),
				TargetID: rel.PeerID,
				Type:     rel.Type,
				Path:     bezierPath(source[0], source[1], target[0], target[1]),
				Dash:     dashPatterns[rel.Type],
			})
		}
	}

	return p, nil
}

// yearDomain builds the contiguous inclusive year range across all documents.
func yearDomain(docs []domdoc.Document) []int {
	minYear, maxYear := docs[0].IssuanceDate().Year(), docs[0].IssuanceDate().Year()
	for i := range docs {
		y := docs[i].IssuanceDate().Year()
		if y < minYear {
			minYear = y
		}
		if y > maxYear {
			maxYear = y
		}
	}
	domain := make([]int, 0, maxYear-minYear+1)
	for y := minYear; y <= maxYear; y++ {
		domain = append(domain, y)
	}
	return domain
}

// scaleDomain builds the ordered categorical scale axis: Text first, numeric
// "1:N" buckets ascending by N, then the remaining named categories in fixed
// order. Only categories present in the document set appear.
func scaleDomain(docs []domdoc.Document) []string {
	present := make(map[string]bool, len(docs))
	type ratioBucket struct {
		raw string
		n   int
	}
	var ratios []ratioBucket

	for i := range docs {
		s := docs[i].Scale()
		if present[s.String()] {
			continue
		}
		present[s.String()] = true
		if n, ok := s.Ratio(); ok {
			ratios = append(ratios, ratioBucket{raw: s.String(), n: n})
		}
	}

	sort.Slice(ratios, func(i, j int) bool { return ratios[i].n < ratios[j].n })

	var axis []string
	if present[domdoc.ScaleText] {
		axis = append(axis, domdoc.ScaleText)
	}
	for _, r := range ratios {
		axis = append(axis, r.raw)
	}
	for _, named := range []string{domdoc.ScaleConcept, domdoc.ScaleBlueprints} {
		if present[named] {
			axis = append(axis, named)
		}
	}
	return axis
}

func bezierPath(x1, y1, x2, y2 float64) string {
	mx := (x1 + x2) / 2
	return fmt.Sprintf("M %.3f %.3f C %.3f %.3f, %.3f %.3f, %.3f %.3f",
		x1, y1, mx, y1, mx, y2, x2, y2)
}
