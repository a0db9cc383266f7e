package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "agentcanvas"

// StartDispatchSpan starts a span for one query fan-out.
func StartDispatchSpan(ctx context.Context, query string, agents int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "dispatch",
		trace.WithAttributes(
			attribute.Int("dispatch.agents", agents),
			attribute.Int("dispatch.query_length", len(query)),
		),
	)
}

// StartAgentCallSpan starts a span for one task send.
func StartAgentCallSpan(ctx context.Context, agentID, taskID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "agent.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("agent.id", agentID),
			attribute.String("task.id", taskID),
		),
	)
}

// StartDelegationSpan starts a span for a delegated task.
func StartDelegationSpan(ctx context.Context, target string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "delegation",
		trace.WithAttributes(attribute.String("delegation.target", target)),
	)
}

// StartDiscoverySpan starts a span for a discovery run.
func StartDiscoverySpan(ctx context.Context, candidates int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "discovery",
		trace.WithAttributes(attribute.Int("discovery.candidates", candidates)),
	)
}
