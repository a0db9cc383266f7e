package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/AgentCanvas/internal/domain/task"
	"github.com/Strob0t/AgentCanvas/internal/logger"
)

// TaskHandler executes one inbound task.
type TaskHandler interface {
	HandleTask(ctx context.Context, env task.Envelope) (*task.Result, error)
}

// TaskHandlerFunc adapts a function to TaskHandler.
type TaskHandlerFunc func(ctx context.Context, env task.Envelope) (*task.Result, error)

// HandleTask calls f.
func (f TaskHandlerFunc) HandleTask(ctx context.Context, env task.Envelope) (*task.Result, error) {
	return f(ctx, env)
}

const (
	maxBodyBytes = 1 << 20
	maxRetained  = 1024
)

// Handler serves the agent side of the protocol: the card, task submission,
// and lookup of recently answered tasks.
type Handler struct {
	card    AgentCard
	handler TaskHandler

	mu    sync.RWMutex
	tasks map[string]*task.Result
	order []string
}

// NewHandler creates a handler answering tasks with th.
func NewHandler(card AgentCard, th TaskHandler) *Handler {
	return &Handler{
		card:    card,
		handler: th,
		tasks:   make(map[string]*task.Result),
	}
}

// MountRoutes registers the agent routes on r. Tasks are accepted at the
// root, at /tasks/send, and under the card's endpoint prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get(WellKnownCardPath, h.handleAgentCard)
	r.Post("/", h.handleSendTask)
	r.Post("/tasks/send", h.handleSendTask)
	r.Get("/tasks/{id}", h.handleGetTask)
	if h.card.Endpoint != "" && h.card.Endpoint != "/" {
		r.Post(h.card.Endpoint, h.handleSendTask)
		r.Post(h.card.Endpoint+"/tasks", h.handleSendTask)
	}
}

func (h *Handler) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.card)
}

func (h *Handler) handleSendTask(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, nil, &RPCError{Code: CodeParseError, Message: "read body"})
		return
	}

	env, rpcID, err := DecodeEnvelope(body)
	if err != nil {
		var rpcErr *RPCError
		if !errors.As(err, &rpcErr) {
			rpcErr = &RPCError{Code: CodeInvalidRequest, Message: err.Error()}
		}
		status := http.StatusBadRequest
		if rpcErr.Code == CodeMethodNotFound {
			status = http.StatusNotFound
		}
		writeRPCError(w, status, rpcID, rpcErr)
		return
	}

	ctx := logger.WithTaskID(r.Context(), env.ID)
	res, err := h.handler.HandleTask(ctx, env)
	switch {
	case err != nil:
		slog.ErrorContext(ctx, "a2a task failed", "error", err)
		res = task.NewResult(env, task.StateFailed, task.TextPart("Error: "+err.Error()))
	case res == nil:
		res = task.NewResult(env, task.StateFailed, task.TextPart("Error: agent produced no result"))
	}
	res.ID, res.SessionID = env.ID, env.SessionID

	h.store(res)
	slog.InfoContext(ctx, "a2a task answered", "state", res.Status.State)

	writeJSON(w, http.StatusOK, Response{JSONRPC: "2.0", ID: rpcID, Result: res})
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.RLock()
	res, ok := h.tasks[id]
	h.mu.RUnlock()

	if !ok {
		writeRPCError(w, http.StatusNotFound, id, &RPCError{Code: CodeTaskNotFound, Message: "task not found"})
		return
	}
	writeJSON(w, http.StatusOK, Response{JSONRPC: "2.0", ID: id, Result: res})
}

// store keeps the most recent results, evicting the oldest.
func (h *Handler) store(res *task.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.tasks[res.ID]; !ok {
		h.order = append(h.order, res.ID)
	}
	h.tasks[res.ID] = res
	for len(h.order) > maxRetained {
		delete(h.tasks, h.order[0])
		h.order = h.order[1:]
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRPCError(w http.ResponseWriter, status int, id any, e *RPCError) {
	writeJSON(w, status, Response{JSONRPC: "2.0", ID: id, Error: e})
}
