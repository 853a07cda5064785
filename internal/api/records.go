package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/branch-risk/internal/model"
	"github.com/sells-group/branch-risk/internal/store"
)

// parseRecordFilter reads from, to (YYYY-MM) and limit from the query.
func parseRecordFilter(q url.Values, branchID string) (store.RecordFilter, error) {
	f := store.RecordFilter{BranchID: branchID}
	if v := q.Get("from"); v != "" {
		m, err := model.ParseMonth(v)
		if err != nil {
			return f, errBadRequest("from must be a month in YYYY-MM form")
		}
		f.FromMonth = m
	}
	if v := q.Get("to"); v != "" {
		m, err := model.ParseMonth(v)
		if err != nil {
			return f, errBadRequest("to must be a month in YYYY-MM form")
		}
		f.ToMonth = m
	}
	if !f.FromMonth.IsZero() && !f.ToMonth.IsZero() && f.FromMonth.After(f.ToMonth) {
		return f, errBadRequest("from must not be after to")
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, errBadRequest("limit must be a non-negative integer")
		}
		f.Limit = n
	}
	return f, nil
}

// listRecords returns a branch's records, newest month first.
func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	filter, err := parseRecordFilter(r.URL.Query(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.store.GetBranch(r.Context(), id); err != nil {
		writeError(w, r, wrapStore(err, "get branch"))
		return
	}

	records, err := s.store.ListRecords(r.Context(), filter)
	if err != nil {
		writeError(w, r, wrapStore(err, "list records"))
		return
	}
	if records == nil {
		records = []model.PerformanceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	var rec model.PerformanceRecord
	if err := decodeJSON(w, r, &rec); err != nil {
		writeError(w, r, err)
		return
	}
	rec.ID = ""
	rec.BranchID = chi.URLParam(r, "id")
	if err := model.Validate(rec); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.store.CreateRecord(r.Context(), rec)
	if err != nil {
		writeError(w, r, wrapStore(err, "create record"))
		return
	}
	s.Invalidate()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, wrapStore(err, "get record"))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// updateRecord replaces a record's metrics. Records stay with their branch.
func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := s.store.GetRecord(r.Context(), id)
	if err != nil {
		writeError(w, r, wrapStore(err, "get record"))
		return
	}

	var rec model.PerformanceRecord
	if err := decodeJSON(w, r, &rec); err != nil {
		writeError(w, r, err)
		return
	}
	rec.ID = id
	rec.BranchID = existing.BranchID
	if err := model.Validate(rec); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.UpdateRecord(r.Context(), rec); err != nil {
		writeError(w, r, wrapStore(err, "update record"))
		return
	}
	s.Invalidate()

	updated, err := s.store.GetRecord(r.Context(), id)
	if err != nil {
		writeError(w, r, wrapStore(err, "get record"))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRecord(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, wrapStore(err, "delete record"))
		return
	}
	s.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}
