package geo

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/branch-risk/internal/dashboard"
	"github.com/sells-group/branch-risk/internal/format"
)

// Feature converts a marker into a GeoJSON point feature keyed by branch ID.
func Feature(m dashboard.MapMarker) *geojson.Feature {
	props := map[string]any{
		"name":              m.Name,
		"address":           m.Address,
		"branch_type":       string(m.BranchType),
		"branch_type_label": format.BranchTypeLabel(m.BranchType),
		"has_data":          m.HasData,
		"score":             m.Score,
		"level":             string(m.Level),
		"level_label":       format.RiskLabel(m.Level),
		"color":             m.Color,
		"profit":            m.Profit,
		"profit_label":      format.Currency(m.Profit),
	}
	if !m.HasData {
		props["level_label"] = "No data"
		props["profit_label"] = dashboard.NotApplicable
	}
	return &geojson.Feature{
		ID:         m.BranchID,
		Geometry:   Point(m.Latitude, m.Longitude),
		Properties: props,
	}
}

// FeatureCollection converts markers into a FeatureCollection with a bbox.
// An empty input yields an empty collection without a bbox.
func FeatureCollection(markers []dashboard.MapMarker) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{
		BBox:     Bounds(markers),
		Features: make([]*geojson.Feature, 0, len(markers)),
	}
	for _, m := range markers {
		fc.Features = append(fc.Features, Feature(m))
	}
	return fc
}

// MarshalFeatureCollection encodes markers as GeoJSON.
func MarshalFeatureCollection(markers []dashboard.MapMarker) ([]byte, error) {
	data, err := json.Marshal(FeatureCollection(markers))
	if err != nil {
		return nil, eris.Wrap(err, "geo: marshal feature collection")
	}
	return data, nil
}
