package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/urbanatlas/docgraph/internal/domain"
	domdoc "github.com/urbanatlas/docgraph/internal/domain/document"
	"github.com/urbanatlas/docgraph/internal/domain/geometry"
	"github.com/urbanatlas/docgraph/internal/projection/diagram"
	"github.com/urbanatlas/docgraph/internal/projection/mapview"
	areauc "github.com/urbanatlas/docgraph/internal/usecase/area"
	documentuc "github.com/urbanatlas/docgraph/internal/usecase/document"
	healthuc "github.com/urbanatlas/docgraph/internal/usecase/health"
	relationshipuc "github.com/urbanatlas/docgraph/internal/usecase/relationship"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server over the use case services.
type Server struct {
	documents     *documentuc.Service
	areas         *areauc.Service
	relationships *relationshipuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	documents *documentuc.Service,
	areas *areauc.Service,
	relationships *relationshipuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		documents:     documents,
		areas:         areas,
		relationships: relationships,
		health:        health,
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		geometryHandler,
		consistencyHandler,
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrAreaNotFound, http.StatusNotFound, CodeAreaNotFound),
		sentinelHandler(domain.ErrRelationshipNotFound, http.StatusNotFound, CodeRelationshipNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists),
		sentinelHandler(domain.ErrSelfRelationship, http.StatusBadRequest, CodeSelfRelationship),
		sentinelHandler(domain.ErrDuplicateRelationship, http.StatusConflict, CodeDuplicateRelationship),
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", s.CreateDocument)
			r.Get("/", s.ListDocuments)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetDocument)
				r.Patch("/", s.PatchDocument)
				r.Delete("/", s.DeleteDocument)
				r.Put("/coordinates", s.SetCoordinates)
				r.Put("/area", s.AssignToArea)
				r.Put("/municipality", s.SetToMunicipality)
				r.Post("/tags", s.AddTag)
				r.Post("/resources", s.AddResource)
				r.Delete("/resources/{storedName}", s.RemoveResource)
				r.Route("/relationships", func(r chi.Router) {
					r.Post("/", s.CreateRelationship)
					r.Delete("/{relationshipId}", s.DeleteRelationship)
					r.Get("/tree", s.RelationshipTree)
					r.Get("/counts", s.RelationshipCounts)
					r.Get("/peers", s.AvailablePeers)
				})
			})
		})
		r.Route("/areas", func(r chi.Router) {
			r.Post("/", s.CreateArea)
			r.Get("/", s.ListAreas)
			r.Get("/{id}", s.GetArea)
		})
		r.Get("/map", s.MapProjection)
		r.Get("/diagram", s.DiagramProjection)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// CreateDocument handles POST /api/v1/documents.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	spec, err := specFromCreate(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	doc, err := s.documents.Create(r.Context(), spec)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, documentToDTO(&doc))
}

// ListDocuments handles GET /api/v1/documents with filter, sort and pagination
// query parameters.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := mapview.Filter{
		Type:        q.Get("type"),
		Stakeholder: q.Get("stakeholder"),
		YearFrom:    queryInt(q.Get("yearFrom")),
		YearTo:      queryInt(q.Get("yearTo")),
		TitleQuery:  q.Get("title"),
	}
	page := queryInt(q.Get("page"))
	pageSize := queryInt(q.Get("pageSize"))

	docs, total, err := s.documents.Paginate(
		r.Context(), filter.Matches, q.Get("sort"), q.Get("order"), page, pageSize,
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = documentToDTO(&docs[i])
	}
	if page < 1 {
		page = 1
	}

	writeJSON(w, http.StatusOK, DocumentListResponse{
		Items:      items,
		Page:       page,
		PageSize:   len(items),
		TotalCount: total,
	})
}

// GetDocument handles GET /api/v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&doc))
}

// PatchDocument handles PATCH /api/v1/documents/{id}.
func (s *Server) PatchDocument(w http.ResponseWriter, r *http.Request) {
	var req PatchDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	doc, err := s.documents.Update(r.Context(), chi.URLParam(r, "id"), patchFromRequest(req))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&doc))
}

// DeleteDocument handles DELETE /api/v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCoordinates handles PUT /api/v1/documents/{id}/coordinates.
func (s *Server) SetCoordinates(w http.ResponseWriter, r *http.Request) {
	var req CoordinatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	doc, err := s.documents.SetCoordinates(r.Context(), chi.URLParam(r, "id"), req.Lng, req.Lat)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&doc))
}

// AssignToArea handles PUT /api/v1/documents/{id}/area.
func (s *Server) AssignToArea(w http.ResponseWriter, r *http.Request) {
	var req AreaAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.AreaID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "areaId is required")
		return
	}

	doc, err := s.documents.AssignToArea(r.Context(), chi.URLParam(r, "id"), req.AreaID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&doc))
}

// SetToMunicipality handles PUT /api/v1/documents/{id}/municipality.
func (s *Server) SetToMunicipality(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.SetToMunicipality(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&doc))
}

// AddTag handles POST /api/v1/documents/{id}/tags.
func (s *Server) AddTag(w http.ResponseWriter, r *http.Request) {
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Tag == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "tag is required")
		return
	}

	doc, err := s.documents.AddTag(r.Context(), chi.URLParam(r, "id"), req.Tag)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&doc))
}

// AddResource handles POST /api/v1/documents/{id}/resources.
func (s *Server) AddResource(w http.ResponseWriter, r *http.Request) {
	var req ResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.StoredName == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "storedName is required")
		return
	}

	doc, err := s.documents.AddResource(r.Context(), chi.URLParam(r, "id"), resourceFromRequest(req))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&doc))
}

// RemoveResource handles DELETE /api/v1/documents/{id}/resources/{storedName}.
func (s *Server) RemoveResource(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.RemoveResource(
		r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "storedName"),
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&doc))
}

// CreateRelationship handles POST /api/v1/documents/{id}/relationships.
func (s *Server) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.PeerID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "peerDocumentId is required")
		return
	}

	rel, err := s.relationships.Link(r.Context(), chi.URLParam(r, "id"), req.PeerID, req.Type)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RelationshipDTO{
		ID:        rel.ID,
		PeerID:    rel.PeerID,
		PeerTitle: rel.PeerTitle,
		Type:      string(rel.Type),
	})
}

// DeleteRelationship handles DELETE /api/v1/documents/{id}/relationships/{relationshipId}.
func (s *Server) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	err := s.relationships.Unlink(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "relationshipId"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RelationshipTree handles GET /api/v1/documents/{id}/relationships/tree.
func (s *Server) RelationshipTree(w http.ResponseWriter, r *http.Request) {
	depth := queryInt(r.URL.Query().Get("depth"))

	tree, err := s.relationships.Tree(r.Context(), chi.URLParam(r, "id"), depth)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, treeToDTO(tree))
}

// RelationshipCounts handles GET /api/v1/documents/{id}/relationships/counts.
func (s *Server) RelationshipCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.relationships.Counts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	out := make(map[string]int, len(counts))
	for t, n := range counts {
		out[string(t)] = n
	}
	writeJSON(w, http.StatusOK, out)
}

// AvailablePeers handles GET /api/v1/documents/{id}/relationships/peers.
func (s *Server) AvailablePeers(w http.ResponseWriter, r *http.Request) {
	peers, err := s.relationships.AvailablePeers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]DocumentResponse, len(peers))
	for i := range peers {
		items[i] = documentToDTO(&peers[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateArea handles POST /api/v1/areas.
func (s *Server) CreateArea(w http.ResponseWriter, r *http.Request) {
	var req CreateAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	a, err := s.areas.Create(r.Context(), req.Name, rawRingsFromRequest(req.Rings))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, areaToDTO(&a))
}

// ListAreas handles GET /api/v1/areas.
func (s *Server) ListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := s.areas.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]AreaResponse, len(areas))
	for i := range areas {
		items[i] = areaToDTO(&areas[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// GetArea handles GET /api/v1/areas/{id}.
func (s *Server) GetArea(w http.ResponseWriter, r *http.Request) {
	a, err := s.areas.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, areaToDTO(&a))
}

// MapProjection handles GET /api/v1/map.
func (s *Server) MapProjection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := mapview.Filter{
		Type:        q.Get("type"),
		Stakeholder: q.Get("stakeholder"),
		YearFrom:    queryInt(q.Get("yearFrom")),
		YearTo:      queryInt(q.Get("yearTo")),
		TitleQuery:  q.Get("title"),
	}

	docs, err := s.documents.Find(r.Context(), nil)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	areas, err := s.areas.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	p := mapview.Project(docs, areas, filter)
	for _, anomaly := range p.Anomalies {
		s.logger.Warn("map projection anomaly", zap.String("detail", anomaly))
	}
	writeJSON(w, http.StatusOK, mapToDTO(p))
}

// DiagramProjection handles GET /api/v1/diagram.
func (s *Server) DiagramProjection(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.Find(r.Context(), nil)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	p, err := diagram.Project(docs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	for _, anomaly := range p.Anomalies {
		s.logger.Warn("diagram projection anomaly", zap.String("detail", anomaly))
	}
	writeJSON(w, http.StatusOK, diagramToDTO(p))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func resourceFromRequest(req ResourceRequest) domdoc.Resource {
	return domdoc.Resource{
		StoredName:   req.StoredName,
		OriginalName: req.OriginalName,
		URL:          req.URL,
		MimeType:     req.MimeType,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrAreaNotFound,
		domain.ErrRelationshipNotFound,
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrSelfRelationship,
		domain.ErrDuplicateRelationship,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler handles ValidationError with the full violation list.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		violations := make([]ViolationEntry, len(ve.Violations))
		for i, v := range ve.Violations {
			violations[i] = ViolationEntry{Field: v.Field, Reason: v.Reason}
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:       CodeValidationFailed,
			Message:    ve.Error(),
			Violations: violations,
		})
		return true
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
	return true
}

// geometryHandler handles typed geometry errors with the failure reason.
func geometryHandler(w http.ResponseWriter, err error, _ string) bool {
	var ge *geometry.Error
	if !errors.As(err, &ge) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeInvalidGeometry, ge.Error())
	return true
}

// consistencyHandler surfaces repaired graph inconsistencies.
func consistencyHandler(w http.ResponseWriter, err error, _ string) bool {
	var ce *domain.ConsistencyError
	if !errors.As(err, &ce) {
		return false
	}
	writeError(w, http.StatusConflict, CodeConsistencyViolation, ce.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func queryInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
