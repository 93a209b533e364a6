package domain

import (
	"errors"
	"strings"
)

// KeyPrefix is the storage key namespace for all persisted entities.
const KeyPrefix = "docgraph:"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrAreaNotFound signals a missing area.
	ErrAreaNotFound = errors.New("area not found")
	// ErrRelationshipNotFound signals a missing relationship edge.
	ErrRelationshipNotFound = errors.New("relationship not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation signals invalid user input.
	ErrValidation = errors.New("validation failed")
	// ErrSelfRelationship signals a link from a document to itself.
	ErrSelfRelationship = errors.New("document cannot relate to itself")
	// ErrDuplicateRelationship signals a second edge of the same type between the same pair.
	ErrDuplicateRelationship = errors.New("relationship already exists")
	// ErrConsistency signals a violated graph invariant (e.g. a one-sided edge).
	ErrConsistency = errors.New("consistency violation")
)

// FieldViolation describes one invalid field of a request.
type FieldViolation struct {
	Field  string
	Reason string
}

// ValidationError wraps ErrValidation with every violated field at once,
// not just the first one encountered.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Reason
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a ValidationError from one or more violations.
func NewValidation(violations ...FieldViolation) error {
	return &ValidationError{Violations: violations}
}

// ConsistencyError wraps ErrConsistency with a description of the broken invariant.
type ConsistencyError struct {
	Detail string
}

func (e *ConsistencyError) Error() string {
	return ErrConsistency.Error() + ": " + e.Detail
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// NewConsistency creates a consistency error.
func NewConsistency(detail string) error {
	return &ConsistencyError{Detail: detail}
}
