package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sells-group/branch-risk/internal/dashboard"
	"github.com/sells-group/branch-risk/internal/geo"
	"github.com/sells-group/branch-risk/internal/model"
)

// defaultNearbyLimit caps /api/map/nearby when no limit is given.
const defaultNearbyLimit = 5

// dashboardResponse is the payload of GET /api/dashboard.
type dashboardResponse struct {
	Summary  *dashboard.Summary    `json:"summary"`
	Branches []dashboard.BranchRow `json:"branches"`
}

// getDashboard returns the summary and branch table. ?sort=risk orders the
// table by score, highest first.
func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort")
	if sortBy != "" && sortBy != "risk" {
		writeError(w, r, errBadRequest("sort must be risk"))
		return
	}

	s.serveCached(w, r, "application/json", func(ctx context.Context) ([]byte, error) {
		snap, err := s.dash.Load(ctx)
		if err != nil {
			return nil, err
		}
		rows := dashboard.BuildRows(snap)
		if sortBy == "risk" {
			dashboard.SortByRisk(rows)
		}
		return marshalJSON(dashboardResponse{
			Summary:  dashboard.BuildSummary(snap),
			Branches: rows,
		})
	})
}

// getMap returns branch markers as a GeoJSON FeatureCollection, optionally
// filtered by ?type= and ?level=.
func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	filter, err := parseMarkerFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.serveCached(w, r, "application/geo+json", func(ctx context.Context) ([]byte, error) {
		markers, err := s.dash.MapMarkers(ctx)
		if err != nil {
			return nil, err
		}
		return geo.MarshalFeatureCollection(dashboard.FilterMarkers(markers, filter))
	})
}

// getNearby returns the branches closest to ?lat=&lng=.
func (s *Server) getNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		writeError(w, r, errBadRequest("lat must be a number between -90 and 90"))
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		writeError(w, r, errBadRequest("lng must be a number between -180 and 180"))
		return
	}
	limit := defaultNearbyLimit
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, r, errBadRequest("limit must be a positive integer"))
			return
		}
	}

	markers, err := s.dash.MapMarkers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, geo.Nearest(markers, geo.LatLng{Lat: lat, Lng: lng}, limit))
}

func parseMarkerFilter(r *http.Request) (dashboard.MarkerFilter, error) {
	var f dashboard.MarkerFilter
	q := r.URL.Query()
	if v := q.Get("type"); v != "" && v != "all" {
		bt, err := model.ParseBranchType(v)
		if err != nil {
			return f, errBadRequest("type must be one of mall, roadside, campus, commercial")
		}
		f.BranchType = bt
	}
	if v := q.Get("level"); v != "" && v != "all" {
		level := model.RiskLevel(v)
		switch level {
		case model.RiskLow, model.RiskMedium, model.RiskHigh:
			f.Level = level
		default:
			return f, errBadRequest("level must be one of low, medium, high")
		}
	}
	return f, nil
}
