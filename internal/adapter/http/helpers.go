package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/AgentCanvas/internal/domain"
)

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request, bodyLimit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// requireField writes a 400 error and returns false when value is blank.
func requireField(w http.ResponseWriter, value, fieldName string) bool {
	if strings.TrimSpace(value) == "" {
		writeError(w, http.StatusBadRequest, fieldName+" is required")
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// domainStatus maps each domain sentinel to its HTTP status and error kind.
var domainStatus = []struct {
	sentinel error
	status   int
	kind     string
}{
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrValidation, http.StatusBadRequest, "validation"},
	{domain.ErrSendFailed, http.StatusBadGateway, "send_failed"},
	{domain.ErrDelegationFailed, http.StatusBadGateway, "delegation_failed"},
}

// writeDomainError answers {"error": "Failed to <op>: <reason>"} with the
// status of the first matching domain sentinel. Unknown errors are logged and
// reported as a generic 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	for _, m := range domainStatus {
		if !errors.Is(err, m.sentinel) {
			continue
		}
		if m.status >= http.StatusInternalServerError {
			slog.WarnContext(r.Context(), "upstream agent failed", "op", op, "error", err)
		}
		reason := strings.TrimPrefix(err.Error(), m.sentinel.Error()+": ")
		writeJSON(w, m.status, errorResponse{Error: "Failed to " + op + ": " + reason, Kind: m.kind})
		return
	}
	slog.ErrorContext(r.Context(), "request failed", "op", op, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to " + op + ": internal server error", Kind: "internal"})
}
