package document

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/urbanatlas/docgraph/internal/domain"
)

// Named scale categories for documents without a numeric ratio.
const (
	ScaleText       = "Text"
	ScaleConcept    = "Concept"
	ScaleBlueprints = "Blueprints/effects"
)

var ratioRegex = regexp.MustCompile(`^1:(\d+)$`)

// Scale is either a numeric ratio ("1:N") or one of the named categories.
type Scale struct {
	raw   string
	ratio int // denominator N for "1:N", 0 for named categories
}

// ParseScale validates a scale string.
func ParseScale(s string) (Scale, error) {
	if m := ratioRegex.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n == 0 {
			return Scale{}, fmt.Errorf("scale %q: ratio denominator must be a positive integer: %w", s, domain.ErrValidation)
		}
		return Scale{raw: s, ratio: n}, nil
	}

	switch s {
	case ScaleText, ScaleConcept, ScaleBlueprints:
		return Scale{raw: s}, nil
	}
	return Scale{}, fmt.Errorf(
		"scale %q must be \"1:N\" or one of %q, %q, %q: %w",
		s, ScaleText, ScaleConcept, ScaleBlueprints, domain.ErrValidation,
	)
}

// String returns the scale as entered.
func (s Scale) String() string { return s.raw }

// Ratio returns the denominator N of a "1:N" scale; ok is false for named categories.
func (s Scale) Ratio() (int, bool) { return s.ratio, s.ratio != 0 }

// IsZero reports whether the scale is unset.
func (s Scale) IsZero() bool { return s.raw == "" }
