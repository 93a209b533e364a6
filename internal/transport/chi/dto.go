package chi

import (
	"fmt"

	domarea "github.com/urbanatlas/docgraph/internal/domain/area"
	domdoc "github.com/urbanatlas/docgraph/internal/domain/document"
	"github.com/urbanatlas/docgraph/internal/domain/geometry"
	"github.com/urbanatlas/docgraph/internal/projection/diagram"
	"github.com/urbanatlas/docgraph/internal/projection/mapview"
	relationshipuc "github.com/urbanatlas/docgraph/internal/usecase/relationship"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest            = "bad_request"
	CodeValidationFailed      = "validation_failed"
	CodeNotFound              = "not_found"
	CodeDocumentNotFound      = "document_not_found"
	CodeAreaNotFound          = "area_not_found"
	CodeRelationshipNotFound  = "relationship_not_found"
	CodeAlreadyExists         = "already_exists"
	CodeSelfRelationship      = "self_relationship"
	CodeDuplicateRelationship = "duplicate_relationship"
	CodeConsistencyViolation  = "consistency_violation"
	CodeInvalidGeometry       = "invalid_geometry"
	CodeInternalError         = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code       string           `json:"code"`
	Message    string           `json:"message"`
	Violations []ViolationEntry `json:"violations,omitempty"`
}

// ViolationEntry reports one invalid request field.
type ViolationEntry struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// LocationDTO is the tagged location union on the wire.
type LocationDTO struct {
	Type        string     `json:"type"` // point, area, municipality
	Coordinates *[]float64 `json:"coordinates,omitempty"`
	AreaID      *string    `json:"areaId,omitempty"`
}

// CreateDocumentRequest carries the fields of a document creation request.
type CreateDocumentRequest struct {
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Type         string      `json:"type"`
	Stakeholders []string    `json:"stakeholders,omitempty"`
	Scale        string      `json:"scale"`
	IssuanceDate string      `json:"issuanceDate"`
	Language     string      `json:"language,omitempty"`
	Pages        int         `json:"pages,omitempty"`
	Location     LocationDTO `json:"location"`
}

// PatchDocumentRequest is a partial update; absent fields stay untouched.
type PatchDocumentRequest struct {
	Title        *string   `json:"title,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Type         *string   `json:"type,omitempty"`
	Stakeholders *[]string `json:"stakeholders,omitempty"`
	Scale        *string   `json:"scale,omitempty"`
	IssuanceDate *string   `json:"issuanceDate,omitempty"`
	Language     *string   `json:"language,omitempty"`
	Pages        *int      `json:"pages,omitempty"`
}

// CoordinatesRequest moves a document to a point location.
type CoordinatesRequest struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// AreaAssignRequest assigns a document to an area.
type AreaAssignRequest struct {
	AreaID string `json:"areaId"`
}

// TagRequest adds a tag to a document.
type TagRequest struct {
	Tag string `json:"tag"`
}

// ResourceRequest attaches file metadata to a document.
type ResourceRequest struct {
	StoredName   string `json:"storedName"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url"`
	MimeType     string `json:"mimeType"`
}

// LinkRequest creates a relationship to a peer document.
type LinkRequest struct {
	PeerID string `json:"peerDocumentId"`
	Type   string `json:"relationType"`
}

// CreateAreaRequest carries drawn rings in map-click order (lat, lng).
type CreateAreaRequest struct {
	Name  string         `json:"name"`
	Rings [][][2]float64 `json:"rings"`
}

// RelationshipDTO is one directed relationship edge on the wire.
type RelationshipDTO struct {
	ID        string `json:"id"`
	PeerID    string `json:"peerDocumentId"`
	PeerTitle string `json:"peerTitle"`
	Type      string `json:"relationType"`
}

// ResourceDTO is attached file metadata on the wire.
type ResourceDTO struct {
	StoredName   string `json:"storedName"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url"`
	MimeType     string `json:"mimeType"`
}

// DocumentResponse is the full document representation.
type DocumentResponse struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Type          string            `json:"type"`
	Stakeholders  []string          `json:"stakeholders,omitempty"`
	Scale         string            `json:"scale"`
	IssuanceDate  string            `json:"issuanceDate"`
	Language      string            `json:"language,omitempty"`
	Pages         int               `json:"pages,omitempty"`
	Location      LocationDTO       `json:"location"`
	Relationships []RelationshipDTO `json:"relationships,omitempty"`
	Connections   int               `json:"connections"`
	Resources     []ResourceDTO     `json:"resources,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
}

// DocumentListResponse is one page of documents plus the total match count.
type DocumentListResponse struct {
	Items      []DocumentResponse `json:"items"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalCount int                `json:"totalCount"`
}

// AreaResponse is the area representation.
type AreaResponse struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	Rings    [][][2]float64 `json:"rings"` // lng, lat
	Centroid [2]float64     `json:"centroid"`
	Color    string         `json:"color"`
}

// TreeNodeDTO is one node of the relationship tree.
type TreeNodeDTO struct {
	Document DocumentResponse `json:"document"`
	Children []TreeEdgeDTO    `json:"children,omitempty"`
}

// TreeEdgeDTO is a typed edge to a child tree node.
type TreeEdgeDTO struct {
	Type string       `json:"relationType"`
	Node *TreeNodeDTO `json:"node"`
}

// MapResponse is the derived map view model.
type MapResponse struct {
	PointMarkers         []MapMarkerDTO    `json:"pointMarkers"`
	AreaGroups           []MapAreaGroupDTO `json:"areaGroups"`
	MunicipalityDocs     []DocumentResponse `json:"municipalityDocuments"`
	HasMunicipalityGroup bool              `json:"hasMunicipalityGroup"`
}

// MapMarkerDTO is a standalone point marker.
type MapMarkerDTO struct {
	Document DocumentResponse `json:"document"`
	Lng      float64          `json:"lng"`
	Lat      float64          `json:"lat"`
}

// MapAreaGroupDTO is the documents of one named area.
type MapAreaGroupDTO struct {
	Area      AreaResponse       `json:"area"`
	Documents []DocumentResponse `json:"documents"`
}

// DiagramResponse is the derived diagram view model.
type DiagramResponse struct {
	Nodes   []DiagramNodeDTO `json:"nodes"`
	Edges   []DiagramEdgeDTO `json:"edges"`
	XDomain []int            `json:"xDomain"`
	YDomain []string         `json:"yDomain"`
}

// DiagramNodeDTO is one positioned document.
type DiagramNodeDTO struct {
	DocumentID string  `json:"documentId"`
	Title      string  `json:"title"`
	Type       string  `json:"type"`
	Year       int     `json:"year"`
	Scale      string  `json:"scale"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	GroupSize  int     `json:"groupSize"`
}

// DiagramEdgeDTO is one curved connector.
type DiagramEdgeDTO struct {
	ID       string `json:"id"`
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
	Type     string `json:"relationType"`
	Path     string `json:"path"`
	Dash     string `json:"dash"`
}

// HealthResponse is the health report body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func locationFromDTO(dto LocationDTO) (domdoc.Location, error) {
	switch dto.Type {
	case "point":
		if dto.Coordinates == nil || len(*dto.Coordinates) != 2 {
			return domdoc.Location{}, fmt.Errorf("point location requires coordinates [lng, lat]")
		}
		c := *dto.Coordinates
		return domdoc.PointLocation(c[0], c[1]), nil
	case "area":
		if dto.AreaID == nil || *dto.AreaID == "" {
			return domdoc.Location{}, fmt.Errorf("area location requires areaId")
		}
		return domdoc.AreaLocation(*dto.AreaID), nil
	case "municipality":
		return domdoc.MunicipalityLocation(), nil
	default:
		return domdoc.Location{}, fmt.Errorf("location type must be point, area or municipality, got %q", dto.Type)
	}
}

func locationToDTO(loc domdoc.Location) LocationDTO {
	switch loc.Mode() {
	case domdoc.ModePoint:
		pt, _ := loc.Point()
		coords := []float64{pt.Lng, pt.Lat}
		return LocationDTO{Type: "point", Coordinates: &coords}
	case domdoc.ModeArea:
		areaID, _ := loc.AreaID()
		return LocationDTO{Type: "area", AreaID: &areaID}
	default:
		return LocationDTO{Type: "municipality"}
	}
}

func documentToDTO(doc *domdoc.Document) DocumentResponse {
	rels := make([]RelationshipDTO, 0, len(doc.Relationships()))
	for _, rel := range doc.Relationships() {
		rels = append(rels, RelationshipDTO{
			ID:        rel.ID,
			PeerID:    rel.PeerID,
			PeerTitle: rel.PeerTitle,
			Type:      string(rel.Type),
		})
	}

	resources := make([]ResourceDTO, 0, len(doc.Resources()))
	for _, res := range doc.Resources() {
		resources = append(resources, ResourceDTO{
			StoredName:   res.StoredName,
			OriginalName: res.OriginalName,
			URL:          res.URL,
			MimeType:     res.MimeType,
		})
	}

	return DocumentResponse{
		ID:            doc.ID(),
		Title:         doc.Title(),
		Description:   doc.Description(),
		Type:          doc.Type(),
		Stakeholders:  doc.Stakeholders(),
		Scale:         doc.Scale().String(),
		IssuanceDate:  doc.IssuanceDate().String(),
		Language:      doc.Language(),
		Pages:         doc.Pages(),
		Location:      locationToDTO(doc.Location()),
		Relationships: rels,
		Connections:   doc.Connections(),
		Resources:     resources,
		Tags:          doc.Tags(),
	}
}

func specFromCreate(req CreateDocumentRequest) (domdoc.Spec, error) {
	loc, err := locationFromDTO(req.Location)
	if err != nil {
		return domdoc.Spec{}, err
	}
	return domdoc.Spec{
		Title:        req.Title,
		Description:  req.Description,
		Type:         req.Type,
		Stakeholders: req.Stakeholders,
		Scale:        req.Scale,
		IssuanceDate: req.IssuanceDate,
		Language:     req.Language,
		Pages:        req.Pages,
		Location:     loc,
	}, nil
}

func patchFromRequest(req PatchDocumentRequest) domdoc.Patch {
	return domdoc.Patch{
		Title:        req.Title,
		Description:  req.Description,
		Type:         req.Type,
		Stakeholders: req.Stakeholders,
		Scale:        req.Scale,
		IssuanceDate: req.IssuanceDate,
		Language:     req.Language,
		Pages:        req.Pages,
	}
}

func rawRingsFromRequest(rings [][][2]float64) [][]geometry.RawPoint {
	out := make([][]geometry.RawPoint, len(rings))
	for i, ring := range rings {
		out[i] = make([]geometry.RawPoint, len(ring))
		for j, pt := range ring {
			out[i][j] = geometry.RawPoint{Lat: pt[0], Lng: pt[1]}
		}
	}
	return out
}

func areaToDTO(a *domarea.Area) AreaResponse {
	rings := make([][][2]float64, len(a.Polygon()))
	for i, ring := range a.Polygon() {
		rings[i] = make([][2]float64, len(ring))
		for j, pt := range ring {
			rings[i][j] = [2]float64{pt.Lng, pt.Lat}
		}
	}
	return AreaResponse{
		ID:       a.ID(),
		Name:     a.Name(),
		Rings:    rings,
		Centroid: [2]float64{a.Centroid().Lng, a.Centroid().Lat},
		Color:    a.Color(),
	}
}

func treeToDTO(node *relationshipuc.TreeNode) *TreeNodeDTO {
	if node == nil {
		return nil
	}
	dto := &TreeNodeDTO{Document: documentToDTO(&node.Document)}
	for _, edge := range node.Children {
		dto.Children = append(dto.Children, TreeEdgeDTO{
			Type: string(edge.Type),
			Node: treeToDTO(edge.Node),
		})
	}
	return dto
}

func mapToDTO(p mapview.Projection) MapResponse {
	resp := MapResponse{
		PointMarkers:         make([]MapMarkerDTO, 0, len(p.PointMarkers)),
		AreaGroups:           make([]MapAreaGroupDTO, 0, len(p.AreaGroups)),
		MunicipalityDocs:     make([]DocumentResponse, 0, len(p.MunicipalityDocs)),
		HasMunicipalityGroup: p.HasMunicipalityGroup,
	}
	for i := range p.PointMarkers {
		m := p.PointMarkers[i]
		resp.PointMarkers = append(resp.PointMarkers, MapMarkerDTO{
			Document: documentToDTO(&m.Document),
			Lng:      m.Point.Lng,
			Lat:      m.Point.Lat,
		})
	}
	for i := range p.AreaGroups {
		g := p.AreaGroups[i]
		group := MapAreaGroupDTO{Area: areaToDTO(&g.Area)}
		for j := range g.Documents {
			group.Documents = append(group.Documents, documentToDTO(&g.Documents[j]))
		}
		resp.AreaGroups = append(resp.AreaGroups, group)
	}
	for i := range p.MunicipalityDocs {
		resp.MunicipalityDocs = append(resp.MunicipalityDocs, documentToDTO(&p.MunicipalityDocs[i]))
	}
	return resp
}

func diagramToDTO(p diagram.Projection) DiagramResponse {
	resp := DiagramResponse{
		Nodes:   make([]DiagramNodeDTO, 0, len(p.Nodes)),
		Edges:   make([]DiagramEdgeDTO, 0, len(p.Edges)),
		XDomain: p.XDomain,
		YDomain: p.YDomain,
	}
	for _, n := range p.Nodes {
		resp.Nodes = append(resp.Nodes, DiagramNodeDTO{
			DocumentID: n.DocumentID,
			Title:      n.Title,
			Type:       n.Type,
			Year:       n.Year,
			Scale:      n.Scale,
			X:          n.X,
			Y:          n.Y,
			GroupSize:  n.GroupSize,
		})
	}
	for _, e := range p.Edges {
		resp.Edges = append(resp.Edges, DiagramEdgeDTO{
			ID:       e.ID,
			SourceID: e.SourceID,
			TargetID: e.TargetID,
			Type:     string(e.Type),
			Path:     e.Path,
			Dash:     e.Dash,
		})
	}
	return resp
}
