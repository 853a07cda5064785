// Package geo places branches on the map: points, bounds, distances and the
// GeoJSON feed consumed by the map view.
package geo

import (
	"math"
	"sort"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/branch-risk/internal/dashboard"
)

// SRID is WGS 84, the coordinate system of branch lat/lng.
const SRID = 4326

// earthRadiusKM is the mean Earth radius used for great-circle distances.
const earthRadiusKM = 6371.0

// DefaultZoom is the initial map zoom level.
const DefaultZoom = 13

// LatLng is a WGS 84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultCenter is Davao City, used when there are no branches to frame.
var DefaultCenter = LatLng{Lat: 7.0731, Lng: 125.6128}

// Point returns a 2D point in lng/lat axis order with SRID 4326.
func Point(lat, lng float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lng, lat}).SetSRID(SRID)
}

// Bounds returns the bounding box of all markers, or nil when there are none.
func Bounds(markers []dashboard.MapMarker) *geom.Bounds {
	if len(markers) == 0 {
		return nil
	}
	b := geom.NewBounds(geom.XY)
	for _, m := range markers {
		b.Extend(Point(m.Latitude, m.Longitude))
	}
	return b
}

// Center returns the midpoint of the markers' bounding box, or
// DefaultCenter when there are no markers.
func Center(markers []dashboard.MapMarker) LatLng {
	b := Bounds(markers)
	if b == nil || b.IsEmpty() {
		return DefaultCenter
	}
	return LatLng{
		Lat: (b.Min(1) + b.Max(1)) / 2,
		Lng: (b.Min(0) + b.Max(0)) / 2,
	}
}

// DistanceKM returns the haversine great-circle distance between a and b.
func DistanceKM(a, b LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Neighbor is a marker with its distance from a query point.
type Neighbor struct {
	dashboard.MapMarker
	DistanceKM float64 `json:"distance_km"`
}

// Nearest returns up to limit markers closest to origin, nearest first.
// A limit of zero or less returns all markers.
func Nearest(markers []dashboard.MapMarker, origin LatLng, limit int) []Neighbor {
	out := make([]Neighbor, 0, len(markers))
	for _, m := range markers {
		out = append(out, Neighbor{
			MapMarker:  m,
			DistanceKM: DistanceKM(origin, LatLng{Lat: m.Latitude, Lng: m.Longitude}),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKM < out[j].DistanceKM
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
