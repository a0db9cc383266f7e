package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/AgentCanvas/internal/adapter/a2aclient"
	cfotel "github.com/Strob0t/AgentCanvas/internal/adapter/otel"
	"github.com/Strob0t/AgentCanvas/internal/adapter/ws"
	"github.com/Strob0t/AgentCanvas/internal/domain"
	"github.com/Strob0t/AgentCanvas/internal/domain/canvas"
	"github.com/Strob0t/AgentCanvas/internal/domain/task"
	"github.com/Strob0t/AgentCanvas/internal/logger"
	"github.com/Strob0t/AgentCanvas/internal/port/broadcast"
)

// NoResponseText is reported for an agent that answered without text.
const NoResponseText = "No response received"

// AgentOutcome is one agent's share of a dispatch.
type AgentOutcome struct {
	AgentID   string        `json:"agent_id"`
	AgentName string        `json:"agent_name"`
	TaskID    string        `json:"task_id,omitempty"`
	State     task.State    `json:"state,omitempty"`
	Text      string        `json:"text,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Response is the text reported for the agent in agent_responses.
func (o AgentOutcome) Response() string {
	if o.Error != "" {
		return "Error: " + o.Error
	}
	if o.Text == "" {
		return NoResponseText
	}
	return o.Text
}

// Aggregate is the combined result of one dispatch.
type Aggregate struct {
	Query         string            `json:"query"`
	Responses     map[string]string `json:"responses"`
	Outcomes      []AgentOutcome    `json:"outcomes"`
	CanvasActions []canvas.Action   `json:"canvas_actions"`
}

type callResult struct {
	outcome  AgentOutcome
	payloads []map[string]any
}

// DispatchService fans a query out to every active agent and joins the
// results.
type DispatchService struct {
	registry    *AgentRegistry
	canvas      *CanvasLog
	hub         broadcast.Broadcaster
	metrics     *cfotel.Metrics
	outputModes []string
	now         func() time.Time
}

// NewDispatchService creates a dispatcher. outputModes are advertised on
// every envelope. A nil hub discards events.
func NewDispatchService(registry *AgentRegistry, canvasLog *CanvasLog, hub broadcast.Broadcaster, outputModes []string) *DispatchService {
	return &DispatchService{
		registry:    registry,
		canvas:      canvasLog,
		hub:         broadcast.OrDiscard(hub),
		outputModes: outputModes,
		now:         time.Now,
	}
}

// SetMetrics attaches dispatch and agent-call instruments.
func (s *DispatchService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// Dispatch sends query to every agent active at call time and waits for all
// of them. Per-agent failures are reported in the aggregate; only an empty
// query is an error. Canvas actions are appended and broadcast before the
// agent_responses event.
func (s *DispatchService) Dispatch(ctx context.Context, query string) (*Aggregate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}

	bindings := s.registry.ActiveBindings()
	ctx, span := cfotel.StartDispatchSpan(ctx, query, len(bindings))
	defer span.End()
	s.metrics.RecordDispatch(ctx, len(bindings))

	slog.InfoContext(ctx, "dispatching query", "agents", len(bindings))

	// Sends outlive a cancelled caller; each is bounded by the connection timeout.
	sendCtx := context.WithoutCancel(ctx)
	done := make(chan callResult, len(bindings))
	var g errgroup.Group
	for _, b := range bindings {
		g.Go(func() error {
			done <- s.call(sendCtx, b, query)
			return nil
		})
	}
	_ = g.Wait()
	close(done)

	agg := &Aggregate{
		Query:     query,
		Responses: make(map[string]string, len(bindings)),
		Outcomes:  make([]AgentOutcome, 0, len(bindings)),
	}
	for r := range done {
		agg.Outcomes = append(agg.Outcomes, r.outcome)
		agg.Responses[r.outcome.AgentID] = r.outcome.Response()
		for _, payload := range r.payloads {
			a, err := canvas.FromPayload(r.outcome.AgentID, payload, s.now().UTC())
			if err != nil {
				slog.Warn("discarding canvas action", "agent_id", r.outcome.AgentID, "error", err)
				continue
			}
			agg.CanvasActions = append(agg.CanvasActions, a)
		}
	}

	// Agents removed while their call was in flight get no log entries.
	agg.CanvasActions = s.registry.AppendOwned(s.canvas, agg.CanvasActions)
	s.metrics.RecordCanvasActions(ctx, len(agg.CanvasActions))

	// The requesting observer may disconnect mid-dispatch; everyone else
	// still gets the events.
	bctx := context.WithoutCancel(ctx)
	for _, a := range agg.CanvasActions {
		s.hub.BroadcastEvent(bctx, ws.EventCanvasAction, ws.CanvasActionEvent{Action: a})
	}
	s.hub.BroadcastEvent(bctx, ws.EventAgentResponses, ws.AgentResponsesEvent{
		Query:     query,
		Responses: agg.Responses,
	})
	return agg, nil
}

// call performs one agent's send and classifies the outcome.
func (s *DispatchService) call(ctx context.Context, b AgentBinding, query string) callResult {
	out := AgentOutcome{AgentID: b.Agent.ID, AgentName: b.Agent.Name}
	start := s.now()

	if b.Conn == nil {
		out.Error = fmt.Sprintf("agent %s has no server address", b.Agent.Name)
		s.metrics.RecordAgentCall(ctx, b.Agent.ID, cfotel.OutcomeSendFailed, 0)
		return callResult{outcome: out}
	}

	env, err := task.NewQueryEnvelope(query, task.WithAcceptedOutputModes(s.outputModes...))
	if err != nil {
		out.Error = err.Error()
		return callResult{outcome: out}
	}
	out.TaskID = env.ID

	ctx = logger.WithTaskID(logger.WithAgentID(ctx, b.Agent.ID), env.ID)
	ctx, span := cfotel.StartAgentCallSpan(ctx, b.Agent.ID, env.ID)
	defer span.End()

	res, err := b.Conn.SendTask(ctx, env)
	out.Duration = s.now().Sub(start)
	if err != nil {
		outcome := cfotel.OutcomeSendFailed
		if a2aclient.IsTimeout(err) {
			outcome = cfotel.OutcomeTimeout
		}
		span.RecordError(err)
		s.metrics.RecordAgentCall(ctx, b.Agent.ID, outcome, out.Duration)
		slog.WarnContext(ctx, "agent call failed", "error", err)
		out.Error = err.Error()
		return callResult{outcome: out}
	}

	out.State = res.Status.State
	if res.Status.State.Failed() {
		failure := fmt.Errorf("agent %s task %s %s", b.Agent.Name, env.ID, res.Status.State)
		if detail := res.StatusText(); detail != "" {
			failure = fmt.Errorf("%w: %s", failure, detail)
		}
		s.metrics.RecordAgentCall(ctx, b.Agent.ID, cfotel.OutcomeFailed, out.Duration)
		out.Error = failure.Error()
		return callResult{outcome: out}
	}

	outcome := cfotel.OutcomeCompleted
	if res.Status.State == task.StateInputRequired {
		outcome = cfotel.OutcomeInputRequired
	}
	s.metrics.RecordAgentCall(ctx, b.Agent.ID, outcome, out.Duration)
	out.Text = res.Text()

	var payloads []map[string]any
	for _, data := range res.DataParts() {
		if canvas.HasPayload(data) {
			payloads = append(payloads, data)
		}
	}
	return callResult{outcome: out, payloads: payloads}
}
