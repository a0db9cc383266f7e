package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agentcanvas"

// Outcome attribute values for agent calls.
const (
	OutcomeCompleted     = "completed"
	OutcomeInputRequired = "input_required"
	OutcomeFailed        = "failed"
	OutcomeSendFailed    = "send_failed"
	OutcomeTimeout       = "timeout"
)

// Metrics holds all AgentCanvas metric instruments. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Dispatches        metric.Int64Counter
	AgentCalls        metric.Int64Counter
	AgentCallDuration metric.Float64Histogram
	CanvasActions     metric.Int64Counter
	AgentsDiscovered  metric.Int64Counter
	Observers         metric.Int64UpDownCounter
}

// NewMetrics creates all instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWith(otel.Meter(meterName))
}

// NewMetricsWith creates all instruments on meter.
func NewMetricsWith(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.Dispatches, err = meter.Int64Counter("agentcanvas.dispatches",
		metric.WithDescription("Number of queries fanned out to agents"))
	if err != nil {
		return nil, err
	}

	m.AgentCalls, err = meter.Int64Counter("agentcanvas.agent.calls",
		metric.WithDescription("Number of task sends by agent and outcome"))
	if err != nil {
		return nil, err
	}

	m.AgentCallDuration, err = meter.Float64Histogram("agentcanvas.agent.call.duration_seconds",
		metric.WithDescription("Task send round trip in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.CanvasActions, err = meter.Int64Counter("agentcanvas.canvas.actions",
		metric.WithDescription("Number of canvas actions accepted"))
	if err != nil {
		return nil, err
	}

	m.AgentsDiscovered, err = meter.Int64Counter("agentcanvas.discovery.agents",
		metric.WithDescription("Number of agents registered by discovery"))
	if err != nil {
		return nil, err
	}

	m.Observers, err = meter.Int64UpDownCounter("agentcanvas.observers",
		metric.WithDescription("Connected WebSocket observers"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordDispatch counts one fan-out over agents.
func (m *Metrics) RecordDispatch(ctx context.Context, agents int) {
	if m == nil {
		return
	}
	m.Dispatches.Add(ctx, 1, metric.WithAttributes(attribute.Int("agents", agents)))
}

// RecordAgentCall counts one send and its duration.
func (m *Metrics) RecordAgentCall(ctx context.Context, agentID, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("agent.id", agentID),
		attribute.String("outcome", outcome),
	)
	m.AgentCalls.Add(ctx, 1, attrs)
	m.AgentCallDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordCanvasActions counts accepted canvas actions.
func (m *Metrics) RecordCanvasActions(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.CanvasActions.Add(ctx, int64(n))
}

// RecordDiscovered counts agents added by discovery.
func (m *Metrics) RecordDiscovered(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.AgentsDiscovered.Add(ctx, int64(n))
}

// ObserverDelta tracks connects (+1) and disconnects (-1).
func (m *Metrics) ObserverDelta(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.Observers.Add(ctx, delta)
}
