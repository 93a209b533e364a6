package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	domdoc "github.com/urbanatlas/docgraph/internal/domain/document"
)

// geoPoint is the persisted GeoJSON point shape: coordinates are [lng, lat].
type geoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type relationshipRow struct {
	ID        string `json:"id"`
	PeerID    string `json:"peerDocumentId"`
	PeerTitle string `json:"peerTitle"`
	Type      string `json:"relationType"`
}

type resourceRow struct {
	StoredName   string `json:"storedName"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url"`
	MimeType     string `json:"mimeType"`
}

// docRow is the persisted document shape. Location is mutually exclusive
// across coordinates and areaId; both absent means municipality.
type docRow struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Type          string            `json:"type"`
	Stakeholders  []string          `json:"stakeholders,omitempty"`
	Scale         string            `json:"scale"`
	IssuanceDate  string            `json:"issuanceDate"`
	Language      string            `json:"language,omitempty"`
	Pages         int               `json:"pages,omitempty"`
	Coordinates   *geoPoint         `json:"coordinates,omitempty"`
	AreaID        *string           `json:"areaId,omitempty"`
	Relationships []relationshipRow `json:"relationships,omitempty"`
	Connections   int               `json:"connections"`
	Resources     []resourceRow     `json:"resources,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
}

func marshalDoc(doc *domdoc.Document) ([]byte, error) {
	row := docRow{
		ID:           doc.ID(),
		Title:        doc.Title(),
		Description:  doc.Description(),
		Type:         doc.Type(),
		Stakeholders: doc.Stakeholders(),
		Scale:        doc.Scale().String(),
		IssuanceDate: doc.IssuanceDate().String(),
		Language:     doc.Language(),
		Pages:        doc.Pages(),
		Connections:  doc.Connections(),
		Tags:         doc.Tags(),
	}

	switch loc := doc.Location(); loc.Mode() {
	case domdoc.ModePoint:
		pt, _ := loc.Point()
		row.Coordinates = &geoPoint{Type: "Point", Coordinates: [2]float64{pt.Lng, pt.Lat}}
	case domdoc.ModeArea:
		id, _ := loc.AreaID()
		row.AreaID = &id
	case domdoc.ModeMunicipality:
		// both fields stay absent
	}

	for _, rel := range doc.Relationships() {
		row.Relationships = append(row.Relationships, relationshipRow{
			ID: rel.ID, PeerID: rel.PeerID, PeerTitle: rel.PeerTitle, Type: string(rel.Type),
		})
	}
	for _, res := range doc.Resources() {
		row.Resources = append(row.Resources, resourceRow{
			StoredName: res.StoredName, OriginalName: res.OriginalName, URL: res.URL, MimeType: res.MimeType,
		})
	}

	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", doc.ID(), err)
	}
	return data, nil
}

// unmarshalDoc hydrates a document row. JSON.GET with a $ path wraps the
// result in a one-element array; a plain object is accepted as well.
func unmarshalDoc(raw []byte) (domdoc.Document, error) {
	row, err := decodeRow(raw)
	if err != nil {
		return domdoc.Document{}, err
	}

	scale, err := domdoc.ParseScale(row.Scale)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("document %s: corrupt scale: %w", row.ID, err)
	}
	date, err := domdoc.ParseDate(row.IssuanceDate)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("document %s: corrupt issuance date: %w", row.ID, err)
	}

	loc := domdoc.MunicipalityLocation()
	switch {
	case row.Coordinates != nil:
		loc = domdoc.PointLocation(row.Coordinates.Coordinates[0], row.Coordinates.Coordinates[1])
	case row.AreaID != nil:
		loc = domdoc.AreaLocation(*row.AreaID)
	}

	rels := make([]domdoc.Relationship, 0, len(row.Relationships))
	for _, rr := range row.Relationships {
		rels = append(rels, domdoc.Relationship{
			ID: rr.ID, PeerID: rr.PeerID, PeerTitle: rr.PeerTitle, Type: domdoc.RelationType(rr.Type),
		})
	}
	resources := make([]domdoc.Resource, 0, len(row.Resources))
	for _, rr := range row.Resources {
		resources = append(resources, domdoc.Resource{
			StoredName: rr.StoredName, OriginalName: rr.OriginalName, URL: rr.URL, MimeType: rr.MimeType,
		})
	}

	return domdoc.Reconstruct(
		row.ID, row.Title, row.Description, row.Type, row.Stakeholders,
		scale, date, row.Language, row.Pages,
		loc, rels, row.Connections, resources, row.Tags,
	), nil
}

func decodeRow(raw []byte) (docRow, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []docRow
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return docRow{}, fmt.Errorf("unmarshal document: %w", err)
		}
		if len(rows) == 0 {
			return docRow{}, fmt.Errorf("unmarshal document: empty result array")
		}
		return rows[0], nil
	}

	var row docRow
	if err := json.Unmarshal(trimmed, &row); err != nil {
		return docRow{}, fmt.Errorf("unmarshal document: %w", err)
	}
	return row, nil
}
