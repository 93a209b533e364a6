// Package document holds the Document aggregate: an urban-planning record
// tied to a point, an area, or the municipality, linked to peer documents
// through typed bidirectional relationships.
package document

import (
	"github.com/urbanatlas/docgraph/internal/domain"
)

// Spec carries the raw fields of a document creation request.
type Spec struct {
	Title        string
	Description  string
	Type         string
	Stakeholders []string
	Scale        string
	IssuanceDate string
	Language     string
	Pages        int
	Location     Location
}

// Document is the document aggregate. Mutation goes through methods so the
// location-exclusivity and connections invariants cannot be bypassed.
type Document struct {
	id            string
	title         string
	description   string
	docType       string
	stakeholders  []string
	scale         Scale
	issuanceDate  Date
	language      string
	pages         int
	location      Location
	relationships []Relationship
	connections   int
	resources     []Resource
	tags          []string
}

// New validates a Spec and creates a Document. Every violated field is
// reported at once in a single ValidationError.
func New(id string, spec Spec) (Document, error) {
	var violations []domain.FieldViolation

	if spec.Title == "" {
		violations = append(violations, domain.FieldViolation{Field: "title", Reason: "required"})
	}
	if spec.Description == "" {
		violations = append(violations, domain.FieldViolation{Field: "description", Reason: "required"})
	}
	if spec.Type == "" {
		violations = append(violations, domain.FieldViolation{Field: "type", Reason: "required"})
	}

	scale, err := ParseScale(spec.Scale)
	if err != nil {
		violations = append(violations, domain.FieldViolation{Field: "scale", Reason: err.Error()})
	}

	date, err := ParseDate(spec.IssuanceDate)
	if err != nil {
		violations = append(violations, domain.FieldViolation{Field: "issuanceDate", Reason: err.Error()})
	}

	if spec.Location.IsZero() {
		violations = append(violations, domain.FieldViolation{Field: "location", Reason: "exactly one location mode is required"})
	}
	if spec.Pages < 0 {
		violations = append(violations, domain.FieldViolation{Field: "pages", Reason: "must not be negative"})
	}

	if len(violations) > 0 {
		return Document{}, domain.NewValidation(violations...)
	}

	return Document{
		id:           id,
		title:        spec.Title,
		description:  spec.Description,
		docType:      spec.Type,
		stakeholders: cloneStrings(spec.Stakeholders),
		scale:        scale,
		issuanceDate: date,
		language:     spec.Language,
		pages:        spec.Pages,
		location:     spec.Location,
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(
	id, title, description, docType string, stakeholders []string,
	scale Scale, issuanceDate Date, language string, pages int,
	location Location, relationships []Relationship, connections int,
	resources []Resource, tags []string,
) Document {
	return Document{
		id: id, title: title, description: description, docType: docType,
		stakeholders: stakeholders, scale: scale, issuanceDate: issuanceDate,
		language: language, pages: pages, location: location,
		relationships: relationships, connections: connections,
		resources: resources, tags: tags,
	}
}

// ID returns the stable document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Description returns the document description.
func (d *Document) Description() string { return d.description }

// Type returns the document type.
func (d *Document) Type() string { return d.docType }

// Stakeholders returns the stakeholder set.
func (d *Document) Stakeholders() []string { return d.stakeholders }

// Scale returns the document scale.
func (d *Document) Scale() Scale { return d.scale }

// IssuanceDate returns the partial issuance date.
func (d *Document) IssuanceDate() Date { return d.issuanceDate }

// Language returns the document language.
func (d *Document) Language() string { return d.language }

// Pages returns the page count.
func (d *Document) Pages() int { return d.pages }

// Location returns the active location.
func (d *Document) Location() Location { return d.location }

// Relationships returns the ordered relationship list.
func (d *Document) Relationships() []Relationship { return d.relationships }

// Connections returns the relationship counter. It is derived: every engine
// mutation rewrites it to len(relationships).
func (d *Document) Connections() int { return d.connections }

// Resources returns the attached file metadata.
func (d *Document) Resources() []Resource { return d.resources }

// Tags returns the tag set.
func (d *Document) Tags() []string { return d.tags }

// SetLocation switches the location mode. Being a single tagged union field,
// setting it clears whatever mode was active before.
func (d *Document) SetLocation(loc Location) { d.location = loc }

// AddRelationship appends a relationship edge and reconciles the counter.
func (d *Document) AddRelationship(rel Relationship) {
	d.relationships = append(d.relationships, rel)
	d.connections = len(d.relationships)
}

// RemoveRelationship removes the edge with the given relationship ID.
// It reports whether an edge was found.
func (d *Document) RemoveRelationship(relID string) (Relationship, bool) {
	for i, rel := range d.relationships {
		if rel.ID == relID {
			d.relationships = append(d.relationships[:i], d.relationships[i+1:]...)
			d.connections = len(d.relationships)
			return rel, true
		}
	}
	return Relationship{}, false
}

// HasRelationshipWith reports whether an edge of the given type to peerID exists.
func (d *Document) HasRelationshipWith(peerID string, t RelationType) bool {
	for _, rel := range d.relationships {
		if rel.PeerID == peerID && rel.Type == t {
			return true
		}
	}
	return false
}

// AddTag adds a tag if not already present.
func (d *Document) AddTag(tag string) {
	for _, t := range d.tags {
		if t == tag {
			return
		}
	}
	d.tags = append(d.tags, tag)
}

// AddResource attaches file metadata.
func (d *Document) AddResource(res Resource) {
	d.resources = append(d.resources, res)
}

// RemoveResource detaches file metadata by stored name. It reports whether
// the resource was found.
func (d *Document) RemoveResource(storedName string) bool {
	for i, res := range d.resources {
		if res.StoredName == storedName {
			d.resources = append(d.resources[:i], d.resources[i+1:]...)
			return true
		}
	}
	return false
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}
