package document

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/urbanatlas/docgraph/internal/domain"
)

var dateRegex = regexp.MustCompile(`^(\d{4})(?:-(\d{2})(?:-(\d{2}))?)?$`)

// Precision is the granularity of a partial issuance date.
type Precision string

const (
	// PrecisionYear is a YYYY date.
	PrecisionYear Precision = "year"
	// PrecisionMonth is a YYYY-MM date.
	PrecisionMonth Precision = "month"
	// PrecisionDay is a YYYY-MM-DD date.
	PrecisionDay Precision = "day"
)

// Date is a partial issuance date: year, year-month, or full date.
// The zero value is not a valid date.
type Date struct {
	year      int
	month     int
	day       int
	precision Precision
}

// ParseDate accepts exactly three formats: YYYY, YYYY-MM, YYYY-MM-DD.
// Anything else is a validation error.
func ParseDate(s string) (Date, error) {
	m := dateRegex.FindStringSubmatch(s)
	if m == nil {
		return Date{}, fmt.Errorf("issuance date %q must be YYYY, YYYY-MM or YYYY-MM-DD: %w", s, domain.ErrValidation)
	}

	year, _ := strconv.Atoi(m[1])
	if year == 0 {
		return Date{}, fmt.Errorf("issuance date %q: year must be positive: %w", s, domain.ErrValidation)
	}
	d := Date{year: year, precision: PrecisionYear}

	if m[2] != "" {
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return Date{}, fmt.Errorf("issuance date %q: month out of range: %w", s, domain.ErrValidation)
		}
		d.month = month
		d.precision = PrecisionMonth
	}

	if m[3] != "" {
		day, _ := strconv.Atoi(m[3])
		if day < 1 || day > 31 {
			return Date{}, fmt.Errorf("issuance date %q: day out of range: %w", s, domain.ErrValidation)
		}
		d.day = day
		d.precision = PrecisionDay
	}

	return d, nil
}

// Year returns the 4-digit year, or 0 for the zero value.
func (d Date) Year() int { return d.year }

// Precision returns the date granularity.
func (d Date) Precision() Precision { return d.precision }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.year == 0 }

// String renders the date back in its original format.
func (d Date) String() string {
	switch d.precision {
	case PrecisionDay:
		return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
	case PrecisionMonth:
		return fmt.Sprintf("%04d-%02d", d.year, d.month)
	default:
		return fmt.Sprintf("%04d", d.year)
	}
}
