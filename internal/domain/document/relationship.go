package document

import (
	"fmt"

	"github.com/urbanatlas/docgraph/internal/domain"
)

// RelationType classifies a link between two documents.
type RelationType string

const (
	// DirectConsequence marks a document directly caused by its peer.
	DirectConsequence RelationType = "direct consequence"
	// CollateralConsequence marks a side effect of the peer.
	CollateralConsequence RelationType = "collateral consequence"
	// Projection marks a forecast derived from the peer.
	Projection RelationType = "projection"
	// Update marks a revision of the peer.
	Update RelationType = "update"
)

// RelationTypes lists all valid relation types in display order.
var RelationTypes = []RelationType{DirectConsequence, CollateralConsequence, Projection, Update}

// ParseRelationType validates a relation type string.
func ParseRelationType(s string) (RelationType, error) {
	for _, t := range RelationTypes {
		if s == string(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown relation type %q: %w", s, domain.ErrValidation)
}

// Relationship is one directed half of a bidirectional link. The two halves
// live on the two endpoint documents and share the same ID.
type Relationship struct {
	ID        string
	PeerID    string
	PeerTitle string
	Type      RelationType
}

// Resource is metadata for a file attached to a document; storage and
// download of the bytes happen outside this core.
type Resource struct {
	StoredName   string
	OriginalName string
	URL          string
	MimeType     string
}
