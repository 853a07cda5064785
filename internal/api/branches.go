package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/branch-risk/internal/model"
)

func (s *Server) listBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := s.store.ListBranches(r.Context())
	if err != nil {
		writeError(w, r, wrapStore(err, "list branches"))
		return
	}
	if branches == nil {
		branches = []model.Branch{}
	}
	writeJSON(w, http.StatusOK, branches)
}

func (s *Server) createBranch(w http.ResponseWriter, r *http.Request) {
	var b model.Branch
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	b.ID = ""
	if err := model.Validate(b); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.store.CreateBranch(r.Context(), b)
	if err != nil {
		writeError(w, r, wrapStore(err, "create branch"))
		return
	}
	s.Invalidate()
	writeJSON(w, http.StatusCreated, created)
}

// getBranch returns the branch with its records, metrics and assessment.
func (s *Server) getBranch(w http.ResponseWriter, r *http.Request) {
	detail, err := s.dash.BranchDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) updateBranch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var b model.Branch
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	b.ID = id
	if err := model.Validate(b); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.store.UpdateBranch(r.Context(), b); err != nil {
		writeError(w, r, wrapStore(err, "update branch"))
		return
	}
	s.Invalidate()

	updated, err := s.store.GetBranch(r.Context(), id)
	if err != nil {
		writeError(w, r, wrapStore(err, "get branch"))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// deleteBranch removes the branch and all of its records.
func (s *Server) deleteBranch(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteBranch(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, wrapStore(err, "delete branch"))
		return
	}
	s.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}
