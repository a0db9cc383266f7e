package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Strob0t/AgentCanvas/internal/domain/agent"
	"github.com/Strob0t/AgentCanvas/internal/domain/canvas"
	"github.com/Strob0t/AgentCanvas/internal/service"
)

const maxQueryLength = 2000

// ObserverCounter reports how many observers are connected.
type ObserverCounter interface {
	ConnectionCount() int
}

// Handlers holds the coordinator service used by the REST API.
type Handlers struct {
	Coordinator *service.CoordinatorService
	Observers   ObserverCounter
	BodyLimit   int64
	Version     string
}

type healthResponse struct {
	Status    string `json:"status"`
	Agents    int    `json:"agents"`
	Observers int    `json:"observers"`
}

// Health reports liveness with registry and observer counts.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Agents: len(h.Coordinator.ListAgents(r.Context()))}
	if h.Observers != nil {
		resp.Observers = h.Observers.ConnectionCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListAgents handles GET /api/v1/agents.
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	handleList("agents", h.Coordinator.ListAgents)(w, r)
}

// GetAgent handles GET /api/v1/agents/{id}.
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Coordinator.GetAgent, "get agent")(w, r)
}

type createAgentRequest struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Color                string   `json:"color"`
	Tools                []string `json:"tools"`
	ServerURL            string   `json:"server_url"`
	AcceptedContentTypes []string `json:"accepted_content_types"`
	IsActive             *bool    `json:"is_active"`
}

// CreateAgent handles POST /api/v1/agents. Agents are active unless
// is_active is false.
func (h *Handlers) CreateAgent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[createAgentRequest](w, r, h.BodyLimit)
	if !ok {
		return
	}
	if !requireField(w, req.Name, "name") {
		return
	}
	active := req.IsActive == nil || *req.IsActive
	d, err := h.Coordinator.AddAgent(r.Context(), agent.Descriptor{
		ID:                   req.ID,
		Name:                 req.Name,
		Description:          req.Description,
		Color:                req.Color,
		Tools:                req.Tools,
		ServerURL:            req.ServerURL,
		AcceptedContentTypes: req.AcceptedContentTypes,
		IsActive:             active,
		Source:               agent.SourceManual,
	})
	if err != nil {
		writeDomainError(w, r, "add agent", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// UpdateAgent handles PUT /api/v1/agents/{id}.
func (h *Handlers) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	u, ok := readJSON[agent.Update](w, r, h.BodyLimit)
	if !ok {
		return
	}
	d, err := h.Coordinator.UpdateAgent(r.Context(), urlParam(r, "id"), u)
	if err != nil {
		writeDomainError(w, r, "update agent", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// DeleteAgent handles DELETE /api/v1/agents/{id}.
func (h *Handlers) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	handleDelete("id", h.Coordinator.RemoveAgent, "remove agent")(w, r)
}

type discoverResponse struct {
	Message string             `json:"message"`
	Agents  []agent.Descriptor `json:"agents"`
}

// DiscoverAgents handles POST /api/v1/discover-agents.
func (h *Handlers) DiscoverAgents(w http.ResponseWriter, r *http.Request) {
	added, err := h.Coordinator.DiscoverAgents(r.Context())
	if err != nil {
		writeDomainError(w, r, "discover agents", err)
		return
	}
	if added == nil {
		added = []agent.Descriptor{}
	}
	writeJSON(w, http.StatusOK, discoverResponse{
		Message: "Discovered " + strconv.Itoa(len(added)) + " agents",
		Agents:  added,
	})
}

// ListCanvasActions handles GET /api/v1/canvas-actions[?agent_id=].
func (h *Handlers) ListCanvasActions(w http.ResponseWriter, r *http.Request) {
	agentID := r.URL.Query().Get("agent_id")
	handleList("actions", func(ctx context.Context) []canvas.Action {
		return h.Coordinator.CanvasActions(ctx, agentID)
	})(w, r)
}

// CreateCanvasAction handles POST /api/v1/canvas-actions. A missing
// timestamp is set to the time of acceptance.
func (h *Handlers) CreateCanvasAction(w http.ResponseWriter, r *http.Request) {
	a, ok := readJSON[canvas.Action](w, r, h.BodyLimit)
	if !ok {
		return
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	got, err := h.Coordinator.RecordCanvasAction(r.Context(), a)
	if err != nil {
		writeDomainError(w, r, "record canvas action", err)
		return
	}
	writeJSON(w, http.StatusCreated, got)
}

// ClearAgentLayer handles DELETE /api/v1/canvas-actions/{agentID}.
func (h *Handlers) ClearAgentLayer(w http.ResponseWriter, r *http.Request) {
	handleDelete("agentID", h.Coordinator.ClearAgentLayer, "clear agent layer")(w, r)
}

// RequestModification handles POST /api/v1/modification-requests.
func (h *Handlers) RequestModification(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[canvas.ModificationRequest](w, r, h.BodyLimit)
	if !ok {
		return
	}
	if err := h.Coordinator.RequestModification(r.Context(), req); err != nil {
		writeDomainError(w, r, "send modification request", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type queryRequest struct {
	Query string `json:"query"`
}

// Query handles POST /api/v1/query. It blocks until every active agent has
// answered or failed.
func (h *Handlers) Query(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[queryRequest](w, r, h.BodyLimit)
	if !ok {
		return
	}
	if !requireField(w, req.Query, "query") {
		return
	}
	if len(req.Query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "query too long")
		return
	}
	agg, err := h.Coordinator.Query(r.Context(), req.Query)
	if err != nil {
		writeDomainError(w, r, "query agents", err)
		return
	}
	if agg.CanvasActions == nil {
		agg.CanvasActions = []canvas.Action{}
	}
	writeJSON(w, http.StatusOK, agg)
}
