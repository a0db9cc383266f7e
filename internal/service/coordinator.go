package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/AgentCanvas/internal/adapter/ws"
	"github.com/Strob0t/AgentCanvas/internal/domain"
	"github.com/Strob0t/AgentCanvas/internal/domain/agent"
	"github.com/Strob0t/AgentCanvas/internal/domain/canvas"
	"github.com/Strob0t/AgentCanvas/internal/port/broadcast"
)

// CoordinatorService is the command surface shared by the observer socket,
// the REST API and the MCP tools. Every mutation broadcasts its event.
type CoordinatorService struct {
	registry  *AgentRegistry
	canvas    *CanvasLog
	dispatch  *DispatchService
	discovery *DiscoveryService
	hub       broadcast.Broadcaster
}

// NewCoordinatorService wires the coordinator. discovery may be nil.
func NewCoordinatorService(registry *AgentRegistry, canvasLog *CanvasLog, dispatch *DispatchService, discovery *DiscoveryService, hub broadcast.Broadcaster) *CoordinatorService {
	return &CoordinatorService{
		registry:  registry,
		canvas:    canvasLog,
		dispatch:  dispatch,
		discovery: discovery,
		hub:       broadcast.OrDiscard(hub),
	}
}

var _ ws.Commands = (*CoordinatorService)(nil)

// AddAgent registers d and announces it.
func (s *CoordinatorService) AddAgent(ctx context.Context, d agent.Descriptor) (agent.Descriptor, error) {
	added, err := s.registry.Add(d)
	if err != nil {
		return agent.Descriptor{}, err
	}
	slog.Info("agent added", "agent_id", added.ID, "name", added.Name)
	s.hub.BroadcastEvent(ctx, ws.EventAgentAdded, ws.AgentEvent{Agent: added})
	return added, nil
}

// UpdateAgent changes agent id and announces the new descriptor.
func (s *CoordinatorService) UpdateAgent(ctx context.Context, id string, u agent.Update) (agent.Descriptor, error) {
	updated, err := s.registry.Update(id, u)
	if err != nil {
		return agent.Descriptor{}, err
	}
	slog.Info("agent updated", "agent_id", id)
	s.hub.BroadcastEvent(ctx, ws.EventAgentUpdated, ws.AgentEvent{Agent: updated})
	return updated, nil
}

// RemoveAgent drops agent id together with its canvas actions.
func (s *CoordinatorService) RemoveAgent(ctx context.Context, id string) error {
	if err := s.registry.Remove(id); err != nil {
		return err
	}
	slog.Info("agent removed", "agent_id", id)
	s.hub.BroadcastEvent(ctx, ws.EventAgentRemoved, ws.AgentRemovedEvent{AgentID: id})
	return nil
}

// ListAgents returns every registered agent.
func (s *CoordinatorService) ListAgents(_ context.Context) []agent.Descriptor {
	return s.registry.List()
}

// GetAgent returns agent id.
func (s *CoordinatorService) GetAgent(_ context.Context, id string) (agent.Descriptor, error) {
	return s.registry.Get(id)
}

// RecordCanvasAction accepts an observer-drawn action. The agent must be
// registered.
func (s *CoordinatorService) RecordCanvasAction(ctx context.Context, a canvas.Action) (canvas.Action, error) {
	if err := a.Validate(); err != nil {
		return canvas.Action{}, err
	}
	if _, err := s.registry.Get(a.AgentID); err != nil {
		return canvas.Action{}, err
	}
	if a.Data == nil {
		a.Data = map[string]any{}
	}
	if len(s.registry.AppendOwned(s.canvas, []canvas.Action{a})) == 0 {
		return canvas.Action{}, fmt.Errorf("%w: agent %s", domain.ErrNotFound, a.AgentID)
	}
	s.hub.BroadcastEvent(ctx, ws.EventCanvasAction, ws.CanvasActionEvent{Action: a})
	return a, nil
}

// CanvasActions returns the log, optionally filtered by agent.
func (s *CoordinatorService) CanvasActions(_ context.Context, agentID string) []canvas.Action {
	if agentID == "" {
		return s.canvas.All()
	}
	return s.canvas.ForAgent(agentID)
}

// ClearAgentLayer drops all canvas actions of agentID. Clearing an empty
// layer is not an error.
func (s *CoordinatorService) ClearAgentLayer(ctx context.Context, agentID string) error {
	if agentID == "" {
		return fmt.Errorf("%w: agent id is required", domain.ErrValidation)
	}
	n := s.canvas.RemoveAgent(agentID)
	slog.Info("agent layer cleared", "agent_id", agentID, "actions", n)
	s.hub.BroadcastEvent(ctx, ws.EventLayerCleared, ws.LayerClearedEvent{AgentID: agentID})
	return nil
}

// RequestModification relays req to every observer.
func (s *CoordinatorService) RequestModification(ctx context.Context, req canvas.ModificationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	s.hub.BroadcastEvent(ctx, ws.EventModificationRequest, ws.ModificationRequestEvent{Request: req})
	return nil
}

// Query dispatches query to every active agent.
func (s *CoordinatorService) Query(ctx context.Context, query string) (*Aggregate, error) {
	return s.dispatch.Dispatch(ctx, query)
}

// QueryAgents dispatches query; results reach observers as events.
func (s *CoordinatorService) QueryAgents(ctx context.Context, query string) error {
	_, err := s.dispatch.Dispatch(ctx, query)
	return err
}

// QueryResponses dispatches query and returns the responses by agent id.
func (s *CoordinatorService) QueryResponses(ctx context.Context, query string) (map[string]string, error) {
	agg, err := s.dispatch.Dispatch(ctx, query)
	if err != nil {
		return nil, err
	}
	return agg.Responses, nil
}

// DiscoverAgents probes the candidates and announces each new agent.
func (s *CoordinatorService) DiscoverAgents(ctx context.Context) ([]agent.Descriptor, error) {
	if s.discovery == nil {
		return nil, nil
	}
	added, err := s.discovery.Discover(ctx)
	for _, d := range added {
		s.hub.BroadcastEvent(ctx, ws.EventAgentAdded, ws.AgentEvent{Agent: d})
	}
	return added, err
}
