package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the REST API on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": h.Version})
		})

		// Agents
		r.Get("/agents", h.ListAgents)
		r.Post("/agents", h.CreateAgent)
		r.Get("/agents/{id}", h.GetAgent)
		r.Put("/agents/{id}", h.UpdateAgent)
		r.Delete("/agents/{id}", h.DeleteAgent)
		r.Post("/discover-agents", h.DiscoverAgents)

		// Canvas
		r.Get("/canvas-actions", h.ListCanvasActions)
		r.Post("/canvas-actions", h.CreateCanvasAction)
		r.Delete("/canvas-actions/{agentID}", h.ClearAgentLayer)
		r.Post("/modification-requests", h.RequestModification)

		// Dispatch
		r.Post("/query", h.Query)
	})
}
