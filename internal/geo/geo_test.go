package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/branch-risk/internal/dashboard"
	"github.com/sells-group/branch-risk/internal/model"
)

func markers() []dashboard.MapMarker {
	return []dashboard.MapMarker{
		{BranchID: "a", Name: "SM Lanang", Latitude: 7.0731, Longitude: 125.6128, BranchType: model.BranchTypeMall,
			HasData: true, Score: 0, Level: model.RiskLow, Color: "#10b981", Profit: 330000},
		{BranchID: "b", Name: "J.P. Laurel Ave", Latitude: 7.0644, Longitude: 125.6091, BranchType: model.BranchTypeRoadside,
			HasData: true, Score: 65, Level: model.RiskMedium, Color: "#f59e0b", Profit: 25000},
		{BranchID: "c", Name: "UM Matina", Latitude: 7.0658, Longitude: 125.5947, BranchType: model.BranchTypeCampus,
			Color: "#64748b"},
	}
}

func TestPoint_AxisOrder(t *testing.T) {
	p := Point(7.0731, 125.6128)
	assert.InDelta(t, 125.6128, p.X(), 1e-12)
	assert.InDelta(t, 7.0731, p.Y(), 1e-12)
	assert.Equal(t, SRID, p.SRID())
}

func TestBounds(t *testing.T) {
	assert.Nil(t, Bounds(nil))

	b := Bounds(markers())
	require.NotNil(t, b)
	assert.InDelta(t, 125.5947, b.Min(0), 1e-12)
	assert.InDelta(t, 125.6128, b.Max(0), 1e-12)
	assert.InDelta(t, 7.0644, b.Min(1), 1e-12)
	assert.InDelta(t, 7.0731, b.Max(1), 1e-12)
}

func TestCenter(t *testing.T) {
	assert.Equal(t, DefaultCenter, Center(nil))

	c := Center(markers())
	assert.InDelta(t, (7.0644+7.0731)/2, c.Lat, 1e-12)
	assert.InDelta(t, (125.5947+125.6128)/2, c.Lng, 1e-12)

	single := Center(markers()[:1])
	assert.InDelta(t, 7.0731, single.Lat, 1e-12)
	assert.InDelta(t, 125.6128, single.Lng, 1e-12)
}

func TestDistanceKM(t *testing.T) {
	tests := []struct {
		name string
		a, b LatLng
		want float64
		tol  float64
	}{
		{"same point", DefaultCenter, DefaultCenter, 0, 1e-9},
		{"one degree of latitude", LatLng{0, 0}, LatLng{1, 0}, 111.19, 0.01},
		{"across Davao", LatLng{7.0731, 125.6128}, LatLng{7.0644, 125.6091}, 1.05, 0.02},
		{"antipodes", LatLng{0, 0}, LatLng{0, 180}, 20015.09, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistanceKM(tt.a, tt.b), tt.tol)
			assert.InDelta(t, DistanceKM(tt.a, tt.b), DistanceKM(tt.b, tt.a), 1e-9)
		})
	}
}

func TestNearest(t *testing.T) {
	origin := LatLng{Lat: 7.0650, Lng: 125.6090}

	all := Nearest(markers(), origin, 0)
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[0].BranchID)
	assert.LessOrEqual(t, all[0].DistanceKM, all[1].DistanceKM)
	assert.LessOrEqual(t, all[1].DistanceKM, all[2].DistanceKM)

	top := Nearest(markers(), origin, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "b", top[0].BranchID)

	assert.Empty(t, Nearest(nil, origin, 5))
}

func TestFeatureCollection_JSON(t *testing.T) {
	data, err := MarshalFeatureCollection(markers())
	require.NoError(t, err)

	var doc struct {
		Type     string    `json:"type"`
		BBox     []float64 `json:"bbox"`
		Features []struct {
			Type     string `json:"type"`
			ID       string `json:"id"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.BBox, 4)
	require.Len(t, doc.Features, 3)

	f := doc.Features[1]
	assert.Equal(t, "Feature", f.Type)
	assert.Equal(t, "b", f.ID)
	assert.Equal(t, "Point", f.Geometry.Type)
	assert.Equal(t, []float64{125.6091, 7.0644}, f.Geometry.Coordinates)
	assert.Equal(t, "medium", f.Properties["level"])
	assert.Equal(t, "Roadside", f.Properties["branch_type_label"])
	assert.Equal(t, "₱25,000.00", f.Properties["profit_label"])
	assert.InDelta(t, 65.0, f.Properties["score"], 1e-9)

	noData := doc.Features[2]
	assert.Equal(t, false, noData.Properties["has_data"])
	assert.Equal(t, "No data", noData.Properties["level_label"])
	assert.Equal(t, "N/A", noData.Properties["profit_label"])
}

func TestFeatureCollection_Empty(t *testing.T) {
	data, err := MarshalFeatureCollection(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}
