package document

import "github.com/urbanatlas/docgraph/internal/domain/geometry"

// LocationMode identifies which location variant a document carries.
type LocationMode string

const (
	// ModePoint places the document at exact coordinates.
	ModePoint LocationMode = "point"
	// ModeArea assigns the document to a named polygonal area.
	ModeArea LocationMode = "area"
	// ModeMunicipality attaches the document to the whole municipality.
	ModeMunicipality LocationMode = "municipality"
)

// Location is a tagged union over the three location modes, so exactly one
// mode is active at a time by construction. The zero value is not a valid
// location; use a constructor.
type Location struct {
	mode   LocationMode
	point  geometry.Point
	areaID string
}

// PointLocation places a document at lng/lat coordinates.
func PointLocation(lng, lat float64) Location {
	return Location{mode: ModePoint, point: geometry.Point{Lng: lng, Lat: lat}}
}

// AreaLocation assigns a document to an area.
func AreaLocation(areaID string) Location {
	return Location{mode: ModeArea, areaID: areaID}
}

// MunicipalityLocation attaches a document to the municipality as a whole.
func MunicipalityLocation() Location {
	return Location{mode: ModeMunicipality}
}

// Mode returns the active location mode.
func (l Location) Mode() LocationMode { return l.mode }

// IsZero reports whether no mode is set.
func (l Location) IsZero() bool { return l.mode == "" }

// Point returns the coordinates; ok is false unless the mode is ModePoint.
func (l Location) Point() (geometry.Point, bool) {
	return l.point, l.mode == ModePoint
}

// AreaID returns the referenced area; ok is false unless the mode is ModeArea.
func (l Location) AreaID() (string, bool) {
	return l.areaID, l.mode == ModeArea
}
