package document

import "github.com/urbanatlas/docgraph/internal/domain"

// Patch is a partial update to a document's descriptive fields. Nil fields
// are left untouched. Location changes go through the dedicated location
// operations, not through Patch.
type Patch struct {
	Title        *string
	Description  *string
	Type         *string
	Stakeholders *[]string
	Scale        *string
	IssuanceDate *string
	Language     *string
	Pages        *int
}

// Apply validates and applies the patch, reporting every violation at once.
func (d *Document) Apply(p Patch) error {
	var violations []domain.FieldViolation

	if p.Title != nil && *p.Title == "" {
		violations = append(violations, domain.FieldViolation{Field: "title", Reason: "required"})
	}
	if p.Description != nil && *p.Description == "" {
		violations = append(violations, domain.FieldViolation{Field: "description", Reason: "required"})
	}
	if p.Type != nil && *p.Type == "" {
		violations = append(violations, domain.FieldViolation{Field: "type", Reason: "required"})
	}

	var scale Scale
	if p.Scale != nil {
		parsed, err := ParseScale(*p.Scale)
		if err != nil {
			violations = append(violations, domain.FieldViolation{Field: "scale", Reason: err.Error()})
		}
		scale = parsed
	}

	var date Date
	if p.IssuanceDate != nil {
		parsed, err := ParseDate(*p.IssuanceDate)
		if err != nil {
			violations = append(violations, domain.FieldViolation{Field: "issuanceDate", Reason: err.Error()})
		}
		date = parsed
	}

	if p.Pages != nil && *p.Pages < 0 {
		violations = append(violations, domain.FieldViolation{Field: "pages", Reason: "must not be negative"})
	}

	if len(violations) > 0 {
		return domain.NewValidation(violations...)
	}

	if p.Title != nil {
		d.title = *p.Title
	}
	if p.Description != nil {
		d.description = *p.Description
	}
	if p.Type != nil {
		d.docType = *p.Type
	}
	if p.Stakeholders != nil {
		d.stakeholders = cloneStrings(*p.Stakeholders)
	}
	if p.Scale != nil {
		d.scale = scale
	}
	if p.IssuanceDate != nil {
		d.issuanceDate = date
	}
	if p.Language != nil {
		d.language = *p.Language
	}
	if p.Pages != nil {
		d.pages = *p.Pages
	}
	return nil
}
