// Package middleware provides HTTP middleware for AgentCanvas.
package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Strob0t/AgentCanvas/internal/logger"
)

// HeaderRequestID carries the correlation id across HTTP hops, including
// outbound task sends to remote agents.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLen = 128

// RequestID stores the caller's X-Request-ID in the context, or a fresh one
// when the header is missing or unusable, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if !validRequestID(id) {
			id = NewRequestID()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// NewRequestID returns 32 hex characters.
func NewRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// validRequestID accepts short ids made of characters that are safe to log
// and forward as a header.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}
