package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/branch-risk/internal/model"
	"github.com/sells-group/branch-risk/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// badRequest marks client input errors that are not validation failures.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func errBadRequest(msg string) error { return &badRequest{msg: msg} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}

func writeRaw(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// writeError maps err onto a status code: validation and malformed input
// are 400, missing entities 404, everything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *model.ValidationError
	var br *badRequest
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: ve.Fields})
	case errors.As(err, &br):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: br.msg})
	case store.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	default:
		zap.L().Error("api: request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errBadRequest("request body is required")
		}
		return errBadRequest("invalid request body: " + err.Error())
	}
	if dec.More() {
		return errBadRequest("request body must contain a single JSON object")
	}
	return nil
}

// wrapStore annotates store errors without hiding ErrNotFound.
func wrapStore(err error, action string) error {
	if err == nil {
		return nil
	}
	return eris.Wrap(err, "api: "+action)
}
