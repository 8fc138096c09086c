package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jackzampolin/layerscope/internal/docapi"
	"github.com/jackzampolin/layerscope/internal/sessions"
	"github.com/jackzampolin/layerscope/internal/svcctx"
	"github.com/jackzampolin/layerscope/internal/viewer"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// backendStatus maps a document API or session error to the status we
// answer with.
func backendStatus(err error) int {
	var apiErr *docapi.APIError
	switch {
	case errors.Is(err, viewer.ErrStaleResponse):
		return http.StatusConflict
	case errors.Is(err, docapi.ErrNotFound), errors.Is(err, sessions.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, docapi.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		return apiErr.StatusCode
	default:
		return http.StatusBadGateway
	}
}

func writeBackendError(w http.ResponseWriter, err error) {
	writeError(w, backendStatus(err), err.Error())
}

// lookupSession resolves the {id} path value, answering 404 itself when the
// session does not exist.
func lookupSession(w http.ResponseWriter, r *http.Request) (*viewer.Session, bool) {
	mgr := svcctx.SessionsFrom(r.Context())
	if mgr == nil {
		writeError(w, http.StatusServiceUnavailable, "session manager not initialized")
		return nil, false
	}
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return nil, false
	}
	sess, err := mgr.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

// zIndexParam parses the {z} path value.
func zIndexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	z, err := strconv.Atoi(r.PathValue("z"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "layer z-index must be an integer")
		return 0, false
	}
	return z, true
}
