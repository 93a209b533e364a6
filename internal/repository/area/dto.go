package area

import (
	"bytes"
	"encoding/json"
	"fmt"

	domarea "github.com/urbanatlas/docgraph/internal/domain/area"
	"github.com/urbanatlas/docgraph/internal/domain/geometry"
)

type geoPointRow struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// geoPolygonRow is the persisted GeoJSON polygon: rings of [lng, lat] pairs.
type geoPolygonRow struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

type areaPropsRow struct {
	Name     string      `json:"name,omitempty"`
	Color    string      `json:"color,omitempty"`
	Centroid geoPointRow `json:"centroid"`
}

type areaRow struct {
	ID         string        `json:"id"`
	Geometry   geoPolygonRow `json:"geometry"`
	Properties areaPropsRow  `json:"properties"`
}

func marshalArea(a *domarea.Area) ([]byte, error) {
	polygon := a.Polygon()
	coords := make([][][2]float64, len(polygon))
	for i, ring := range polygon {
		coords[i] = make([][2]float64, len(ring))
		for j, pt := range ring {
			coords[i][j] = [2]float64{pt.Lng, pt.Lat}
		}
	}

	row := areaRow{
		ID:       a.ID(),
		Geometry: geoPolygonRow{Type: "Polygon", Coordinates: coords},
		Properties: areaPropsRow{
			Name:  a.Name(),
			Color: a.Color(),
			Centroid: geoPointRow{
				Type:        "Point",
				Coordinates: [2]float64{a.Centroid().Lng, a.Centroid().Lat},
			},
		},
	}

	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("marshal area %s: %w", a.ID(), err)
	}
	return data, nil
}

func unmarshalArea(raw []byte) (domarea.Area, error) {
	row, err := decodeAreaRow(raw)
	if err != nil {
		return domarea.Area{}, err
	}

	polygon := make(geometry.Polygon, len(row.Geometry.Coordinates))
	for i, ring := range row.Geometry.Coordinates {
		polygon[i] = make(geometry.Ring, len(ring))
		for j, pt := range ring {
			polygon[i][j] = geometry.Point{Lng: pt[0], Lat: pt[1]}
		}
	}

	centroid := geometry.Point{
		Lng: row.Properties.Centroid.Coordinates[0],
		Lat: row.Properties.Centroid.Coordinates[1],
	}
	return domarea.Reconstruct(row.ID, row.Properties.Name, polygon, centroid, row.Properties.Color), nil
}

func decodeAreaRow(raw []byte) (areaRow, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []areaRow
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return areaRow{}, fmt.Errorf("unmarshal area: %w", err)
		}
		if len(rows) == 0 {
			return areaRow{}, fmt.Errorf("unmarshal area: empty result array")
		}
		return rows[0], nil
	}

	var row areaRow
	if err := json.Unmarshal(trimmed, &row); err != nil {
		return areaRow{}, fmt.Errorf("unmarshal area: %w", err)
	}
	return row, nil
}
