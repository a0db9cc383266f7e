package http

import (
	"context"
	"net/http"
)

// ---------------------------------------------------------------------------
// Generic handler factories
// ---------------------------------------------------------------------------

// handleList creates a handler that wraps a listing under key.
func handleList[T any](key string, listFn func(ctx context.Context) []T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := listFn(r.Context())
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, map[string][]T{key: items})
	}
}

// handleGet creates a handler that retrieves a single resource by URL param "id".
func handleGet[T any](getFn func(ctx context.Context, id string) (T, error), op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, err := getFn(r.Context(), urlParam(r, "id"))
		if err != nil {
			writeDomainError(w, r, op, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

// handleDelete creates a handler that deletes by URL param and answers 204.
func handleDelete(param string, deleteFn func(ctx context.Context, id string) error, op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deleteFn(r.Context(), urlParam(r, param)); err != nil {
			writeDomainError(w, r, op, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
