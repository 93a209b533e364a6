package chi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	boundarypkg "github.com/urbanatlas/docgraph/internal/boundary"
	"github.com/urbanatlas/docgraph/internal/db/memory"
	arearepo "github.com/urbanatlas/docgraph/internal/repository/area"
	documentrepo "github.com/urbanatlas/docgraph/internal/repository/document"
	areauc "github.com/urbanatlas/docgraph/internal/usecase/area"
	documentuc "github.com/urbanatlas/docgraph/internal/usecase/document"
	healthuc "github.com/urbanatlas/docgraph/internal/usecase/health"
	relationshipuc "github.com/urbanatlas/docgraph/internal/usecase/relationship"
)

const testBoundaryJSON = `{
	"type": "Polygon",
	"coordinates": [[[0, 0], [10, 0], [10, 10], [0, 10], [0, 0]]]
}`

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	b, err := boundarypkg.Parse([]byte(testBoundaryJSON))
	if err != nil {
		t.Fatalf("parse boundary: %v", err)
	}

	store := memory.NewStore()
	docRepo := documentrepo.New(store)
	areaRepo := arearepo.New(store)

	logger := zap.NewNop()
	relSvc := relationshipuc.New(docRepo, logger)
	docSvc := documentuc.New(docRepo, areaRepo, b).
		WithDetacher(relSvc).
		WithPagination(20, 100)
	areaSvc := areauc.New(areaRepo, b)
	healthSvc := healthuc.New(store, boundarypkg.NewChecker(b))

	srv := NewServer(docSvc, areaSvc, relSvc, healthSvc, logger)
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func validCreateRequest(title string) CreateDocumentRequest {
	return CreateDocumentRequest{
		Title:        title,
		Description:  "A development plan",
		Type:         "Prescriptive",
		Stakeholders: []string{"Municipality"},
		Scale:        "1:1000",
		IssuanceDate: "2010-03",
		Location:     LocationDTO{Type: "municipality"},
	}
}

func createDoc(t *testing.T, h http.Handler, req CreateDocumentRequest) DocumentResponse {
	t.Helper()
	rr := doJSON(t, h, "POST", "/api/v1/documents", req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create document: got %d, body %s", rr.Code, rr.Body.String())
	}
	return decode[DocumentResponse](t, rr)
}

func TestCreateAndGetDocument(t *testing.T) {
	h := newTestServer(t)

	created := createDoc(t, h, validCreateRequest("Master Plan"))
	if created.ID == "" {
		t.Fatal("created document has no ID")
	}
	if created.Title != "Master Plan" || created.Scale != "1:1000" {
		t.Errorf("created = %+v", created)
	}
	if created.IssuanceDate != "2010-03" {
		t.Errorf("issuance date round-trip: %q", created.IssuanceDate)
	}

	rr := doJSON(t, h, "GET", "/api/v1/documents/"+created.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get: %d", rr.Code)
	}
	got := decode[DocumentResponse](t, rr)
	if got.ID != created.ID || got.Title != created.Title {
		t.Errorf("get returned %+v", got)
	}
}

func TestCreateDocument_ValidationErrorListsViolations(t *testing.T) {
	h := newTestServer(t)

	req := validCreateRequest("")
	req.Scale = "bogus"
	rr := doJSON(t, h, "POST", "/api/v1/documents", req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	errResp := decode[ErrorResponse](t, rr)
	if errResp.Code != CodeValidationFailed {
		t.Errorf("code = %q", errResp.Code)
	}
	fields := map[string]bool{}
	for _, v := range errResp.Violations {
		fields[v.Field] = true
	}
	if !fields["title"] || !fields["scale"] {
		t.Errorf("violations = %+v, want title and scale reported", errResp.Violations)
	}
}

func TestCreateDocument_PointOutsideBoundary(t *testing.T) {
	h := newTestServer(t)

	req := validCreateRequest("Offshore Plan")
	coords := []float64{50, 50}
	req.Location = LocationDTO{Type: "point", Coordinates: &coords}
	rr := doJSON(t, h, "POST", "/api/v1/documents", req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	errResp := decode[ErrorResponse](t, rr)
	if errResp.Code != CodeInvalidGeometry {
		t.Errorf("code = %q, want %q", errResp.Code, CodeInvalidGeometry)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	h := newTestServer(t)

	rr := doJSON(t, h, "GET", "/api/v1/documents/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
	errResp := decode[ErrorResponse](t, rr)
	if errResp.Code != CodeDocumentNotFound {
		t.Errorf("code = %q", errResp.Code)
	}
}

func TestPatchDocument(t *testing.T) {
	h := newTestServer(t)
	created := createDoc(t, h, validCreateRequest("Old Title"))

	newTitle := "New Title"
	rr := doJSON(t, h, "PATCH", "/api/v1/documents/"+created.ID, PatchDocumentRequest{Title: &newTitle})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch: %d, body %s", rr.Code, rr.Body.String())
	}
	got := decode[DocumentResponse](t, rr)
	if got.Title != "New Title" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Description != created.Description {
		t.Errorf("untouched field changed: %q", got.Description)
	}
}

func TestDeleteDocument_DetachesRelationships(t *testing.T) {
	h := newTestServer(t)
	d1 := createDoc(t, h, validCreateRequest("Plan A"))
	d2 := createDoc(t, h, validCreateRequest("Plan B"))

	rr := doJSON(t, h, "POST", "/api/v1/documents/"+d1.ID+"/relationships",
		LinkRequest{PeerID: d2.ID, Type: "update"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("link: %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, "DELETE", "/api/v1/documents/"+d1.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rr.Code)
	}

	rr = doJSON(t, h, "GET", "/api/v1/documents/"+d1.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("deleted document still present: %d", rr.Code)
	}

	rr = doJSON(t, h, "GET", "/api/v1/documents/"+d2.ID, nil)
	survivor := decode[DocumentResponse](t, rr)
	if survivor.Connections != 0 || len(survivor.Relationships) != 0 {
		t.Errorf("peer still holds edges after cascade: %+v", survivor.Relationships)
	}
}

func TestRelationshipLifecycle(t *testing.T) {
	h := newTestServer(t)
	d1 := createDoc(t, h, validCreateRequest("Plan A"))
	d2 := createDoc(t, h, validCreateRequest("Plan B"))

	rr := doJSON(t, h, "POST", "/api/v1/documents/"+d1.ID+"/relationships",
		LinkRequest{PeerID: d2.ID, Type: "projection"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("link: %d, body %s", rr.Code, rr.Body.String())
	}
	rel := decode[RelationshipDTO](t, rr)
	if rel.ID == "" || rel.PeerID != d2.ID || rel.Type != "projection" {
		t.Errorf("relationship = %+v", rel)
	}

	// Duplicate same pair and type.
	rr = doJSON(t, h, "POST", "/api/v1/documents/"+d1.ID+"/relationships",
		LinkRequest{PeerID: d2.ID, Type: "projection"})
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate link: got %d, want 409", rr.Code)
	}
	if errResp := decode[ErrorResponse](t, rr); errResp.Code != CodeDuplicateRelationship {
		t.Errorf("duplicate code = %q", errResp.Code)
	}

	// Self link.
	rr = doJSON(t, h, "POST", "/api/v1/documents/"+d1.ID+"/relationships",
		LinkRequest{PeerID: d1.ID, Type: "update"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("self link: got %d, want 400", rr.Code)
	}

	// Both endpoints carry the half.
	rr = doJSON(t, h, "GET", "/api/v1/documents/"+d2.ID, nil)
	peer := decode[DocumentResponse](t, rr)
	if peer.Connections != 1 {
		t.Errorf("peer connections = %d", peer.Connections)
	}

	// Counts by type.
	rr = doJSON(t, h, "GET", "/api/v1/documents/"+d1.ID+"/relationships/counts", nil)
	counts := decode[map[string]int](t, rr)
	if counts["projection"] != 1 {
		t.Errorf("counts = %v", counts)
	}

	// Unlink.
	rr = doJSON(t, h, "DELETE",
		fmt.Sprintf("/api/v1/documents/%s/relationships/%s", d1.ID, rel.ID), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("unlink: %d", rr.Code)
	}
	rr = doJSON(t, h, "GET", "/api/v1/documents/"+d2.ID, nil)
	peer = decode[DocumentResponse](t, rr)
	if peer.Connections != 0 {
		t.Errorf("peer connections after unlink = %d", peer.Connections)
	}
}

func TestRelationshipTree(t *testing.T) {
	h := newTestServer(t)
	root := createDoc(t, h, validCreateRequest("Root"))
	child := createDoc(t, h, validCreateRequest("Child"))

	rr := doJSON(t, h, "POST", "/api/v1/documents/"+root.ID+"/relationships",
		LinkRequest{PeerID: child.ID, Type: "direct consequence"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("link: %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, "GET", "/api/v1/documents/"+root.ID+"/relationships/tree", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("tree: %d, body %s", rr.Code, rr.Body.String())
	}
	tree := decode[TreeNodeDTO](t, rr)
	if tree.Document.ID != root.ID {
		t.Errorf("tree root = %s", tree.Document.ID)
	}
	if len(tree.Children) != 1 || tree.Children[0].Node.Document.ID != child.ID {
		t.Errorf("tree children = %+v", tree.Children)
	}
	if tree.Children[0].Type != "direct consequence" {
		t.Errorf("edge type = %q", tree.Children[0].Type)
	}
}

func TestAvailablePeers(t *testing.T) {
	h := newTestServer(t)
	d1 := createDoc(t, h, validCreateRequest("Plan A"))
	d2 := createDoc(t, h, validCreateRequest("Plan B"))
	d3 := createDoc(t, h, validCreateRequest("Plan C"))

	rr := doJSON(t, h, "POST", "/api/v1/documents/"+d1.ID+"/relationships",
		LinkRequest{PeerID: d2.ID, Type: "update"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("link: %d", rr.Code)
	}

	rr = doJSON(t, h, "GET", "/api/v1/documents/"+d1.ID+"/relationships/peers", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("peers: %d", rr.Code)
	}
	peers := decode[[]DocumentResponse](t, rr)
	for _, p := range peers {
		if p.ID == d1.ID {
			t.Error("peers must not include the document itself")
		}
	}
	found := false
	for _, p := range peers {
		if p.ID == d3.ID {
			found = true
		}
	}
	if !found {
		t.Error("unlinked document missing from peers")
	}
}

func TestListDocuments_FilterAndPaginate(t *testing.T) {
	h := newTestServer(t)
	a := validCreateRequest("Alpha Plan")
	a.IssuanceDate = "2005"
	b := validCreateRequest("Beta Plan")
	b.IssuanceDate = "2015"
	createDoc(t, h, a)
	createDoc(t, h, b)

	rr := doJSON(t, h, "GET", "/api/v1/documents?yearFrom=2010", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: %d", rr.Code)
	}
	list := decode[DocumentListResponse](t, rr)
	if list.TotalCount != 1 || len(list.Items) != 1 || list.Items[0].Title != "Beta Plan" {
		t.Errorf("filtered list = %+v", list)
	}

	rr = doJSON(t, h, "GET", "/api/v1/documents?page=1&pageSize=1&sort=title&order=desc", nil)
	list = decode[DocumentListResponse](t, rr)
	if list.TotalCount != 2 || len(list.Items) != 1 || list.Items[0].Title != "Beta Plan" {
		t.Errorf("paginated list = %+v", list)
	}
}

func TestAreaLifecycle(t *testing.T) {
	h := newTestServer(t)

	// Rings arrive in map-click order (lat, lng), unclosed.
	rr := doJSON(t, h, "POST", "/api/v1/areas", CreateAreaRequest{
		Name:  "Harbor",
		Rings: [][][2]float64{{{1, 1}, {1, 3}, {3, 3}, {3, 1}}},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create area: %d, body %s", rr.Code, rr.Body.String())
	}
	created := decode[AreaResponse](t, rr)
	if created.ID == "" || created.Name != "Harbor" || created.Color == "" {
		t.Errorf("area = %+v", created)
	}

	rr = doJSON(t, h, "GET", "/api/v1/areas/"+created.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get area: %d", rr.Code)
	}

	rr = doJSON(t, h, "GET", "/api/v1/areas", nil)
	areas := decode[[]AreaResponse](t, rr)
	if len(areas) != 1 {
		t.Errorf("areas = %d", len(areas))
	}

	// Assign a document to the new area.
	doc := createDoc(t, h, validCreateRequest("Harbor Plan"))
	rr = doJSON(t, h, "PUT", "/api/v1/documents/"+doc.ID+"/area", AreaAssignRequest{AreaID: created.ID})
	if rr.Code != http.StatusOK {
		t.Fatalf("assign area: %d, body %s", rr.Code, rr.Body.String())
	}
	assigned := decode[DocumentResponse](t, rr)
	if assigned.Location.Type != "area" || assigned.Location.AreaID == nil || *assigned.Location.AreaID != created.ID {
		t.Errorf("location = %+v", assigned.Location)
	}
}

func TestAssignToUnknownArea(t *testing.T) {
	h := newTestServer(t)
	doc := createDoc(t, h, validCreateRequest("Plan"))

	rr := doJSON(t, h, "PUT", "/api/v1/documents/"+doc.ID+"/area", AreaAssignRequest{AreaID: "missing"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
	if errResp := decode[ErrorResponse](t, rr); errResp.Code != CodeAreaNotFound {
		t.Errorf("code = %q", errResp.Code)
	}
}

func TestSetCoordinatesAndMunicipality(t *testing.T) {
	h := newTestServer(t)
	doc := createDoc(t, h, validCreateRequest("Plan"))

	rr := doJSON(t, h, "PUT", "/api/v1/documents/"+doc.ID+"/coordinates", CoordinatesRequest{Lng: 5, Lat: 5})
	if rr.Code != http.StatusOK {
		t.Fatalf("set coordinates: %d, body %s", rr.Code, rr.Body.String())
	}
	got := decode[DocumentResponse](t, rr)
	if got.Location.Type != "point" {
		t.Errorf("location = %+v", got.Location)
	}

	// Point outside the boundary is rejected, location unchanged.
	rr = doJSON(t, h, "PUT", "/api/v1/documents/"+doc.ID+"/coordinates", CoordinatesRequest{Lng: 50, Lat: 50})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("out of bounds: got %d", rr.Code)
	}

	rr = doJSON(t, h, "PUT", "/api/v1/documents/"+doc.ID+"/municipality", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("set municipality: %d", rr.Code)
	}
	got = decode[DocumentResponse](t, rr)
	if got.Location.Type != "municipality" {
		t.Errorf("location = %+v", got.Location)
	}
}

func TestTagsAndResources(t *testing.T) {
	h := newTestServer(t)
	doc := createDoc(t, h, validCreateRequest("Plan"))

	rr := doJSON(t, h, "POST", "/api/v1/documents/"+doc.ID+"/tags", TagRequest{Tag: "zoning"})
	if rr.Code != http.StatusOK {
		t.Fatalf("add tag: %d", rr.Code)
	}
	got := decode[DocumentResponse](t, rr)
	if len(got.Tags) != 1 || got.Tags[0] != "zoning" {
		t.Errorf("tags = %v", got.Tags)
	}

	rr = doJSON(t, h, "POST", "/api/v1/documents/"+doc.ID+"/resources", ResourceRequest{
		StoredName:   "abc123.pdf",
		OriginalName: "plan.pdf",
		URL:          "/files/abc123.pdf",
		MimeType:     "application/pdf",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("add resource: %d, body %s", rr.Code, rr.Body.String())
	}
	got = decode[DocumentResponse](t, rr)
	if len(got.Resources) != 1 || got.Resources[0].StoredName != "abc123.pdf" {
		t.Errorf("resources = %+v", got.Resources)
	}

	rr = doJSON(t, h, "DELETE", "/api/v1/documents/"+doc.ID+"/resources/abc123.pdf", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("remove resource: %d", rr.Code)
	}
	got = decode[DocumentResponse](t, rr)
	if len(got.Resources) != 0 {
		t.Errorf("resources after remove = %+v", got.Resources)
	}

	rr = doJSON(t, h, "DELETE", "/api/v1/documents/"+doc.ID+"/resources/ghost.pdf", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("remove missing resource: got %d", rr.Code)
	}
}

func TestMapProjectionEndpoint(t *testing.T) {
	h := newTestServer(t)

	pointReq := validCreateRequest("Point Plan")
	coords := []float64{5, 5}
	pointReq.Location = LocationDTO{Type: "point", Coordinates: &coords}
	createDoc(t, h, pointReq)
	createDoc(t, h, validCreateRequest("Municipal Plan"))

	rr := doJSON(t, h, "GET", "/api/v1/map", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("map: %d, body %s", rr.Code, rr.Body.String())
	}
	m := decode[MapResponse](t, rr)
	if len(m.PointMarkers) != 1 {
		t.Errorf("point markers = %d", len(m.PointMarkers))
	}
	if !m.HasMunicipalityGroup || len(m.MunicipalityDocs) != 1 {
		t.Errorf("municipality group = %v, docs = %d", m.HasMunicipalityGroup, len(m.MunicipalityDocs))
	}
}

func TestDiagramProjectionEndpoint(t *testing.T) {
	h := newTestServer(t)

	a := validCreateRequest("Plan A")
	a.IssuanceDate = "2010"
	a.Scale = "Text"
	b := validCreateRequest("Plan B")
	b.IssuanceDate = "2012"
	b.Scale = "1:5000"
	d1 := createDoc(t, h, a)
	d2 := createDoc(t, h, b)

	rr := doJSON(t, h, "POST", "/api/v1/documents/"+d1.ID+"/relationships",
		LinkRequest{PeerID: d2.ID, Type: "update"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("link: %d", rr.Code)
	}

	rr = doJSON(t, h, "GET", "/api/v1/diagram", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("diagram: %d, body %s", rr.Code, rr.Body.String())
	}
	d := decode[DiagramResponse](t, rr)
	if len(d.Nodes) != 2 || len(d.Edges) != 1 {
		t.Errorf("nodes = %d, edges = %d", len(d.Nodes), len(d.Edges))
	}
	if len(d.XDomain) != 3 || d.XDomain[0] != 2010 || d.XDomain[2] != 2012 {
		t.Errorf("xDomain = %v", d.XDomain)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t)

	rr := doJSON(t, h, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("health: %d, body %s", rr.Code, rr.Body.String())
	}
	report := decode[HealthResponse](t, rr)
	if report.Status != "ok" {
		t.Errorf("status = %q", report.Status)
	}
	if report.Checks["database"] != "ok" || report.Checks["boundary"] != "ok" {
		t.Errorf("checks = %v", report.Checks)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/v1/documents", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	if errResp := decode[ErrorResponse](t, rr); errResp.Code != CodeBadRequest {
		t.Errorf("code = %q", errResp.Code)
	}
}
