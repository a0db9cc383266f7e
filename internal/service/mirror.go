package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/AgentCanvas/internal/adapter/ws"
	"github.com/Strob0t/AgentCanvas/internal/logger"
	"github.com/Strob0t/AgentCanvas/internal/port/broadcast"
	"github.com/Strob0t/AgentCanvas/internal/port/messagequeue"
)

// EventMirror forwards every observer event to a message queue subject
// after handing it to the wrapped broadcaster. Publish failures are logged
// and never affect observers.
type EventMirror struct {
	inner broadcast.Broadcaster
	queue messagequeue.Queue
}

// NewEventMirror wraps inner.
func NewEventMirror(inner broadcast.Broadcaster, queue messagequeue.Queue) *EventMirror {
	return &EventMirror{inner: broadcast.OrDiscard(inner), queue: queue}
}

var _ broadcast.Broadcaster = (*EventMirror)(nil)

// BroadcastEvent implements broadcast.Broadcaster.
func (m *EventMirror) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	m.inner.BroadcastEvent(ctx, eventType, payload)
	if m.queue == nil || !m.queue.IsConnected() {
		return
	}
	data, err := ws.EncodeEvent(eventType, payload)
	if err != nil {
		slog.Error("mirror encode failed", "type", eventType, "error", err)
		return
	}
	if err := m.queue.Publish(ctx, messagequeue.EventSubject(eventType), data); err != nil {
		slog.Warn("mirror publish failed", "type", eventType, "error", err)
	}
}

// QueryRunnerFunc dispatches one query and returns the responses by agent id.
type QueryRunnerFunc func(ctx context.Context, query string) (map[string]string, error)

// ServeQueries answers canvas.query messages on canvas.query.result. A
// failed dispatch is reported in the result's error field.
func ServeQueries(ctx context.Context, queue messagequeue.Queue, run QueryRunnerFunc) (cancel func(), err error) {
	return queue.Subscribe(ctx, messagequeue.SubjectQuery, func(ctx context.Context, _ string, data []byte) error {
		var req messagequeue.QueryPayload
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}
		if req.RequestID != "" && logger.RequestID(ctx) == "" {
			ctx = logger.WithRequestID(ctx, req.RequestID)
		}

		out := messagequeue.QueryResultPayload{RequestID: req.RequestID, Query: req.Query}
		responses, err := run(ctx, req.Query)
		if err != nil {
			out.Error = err.Error()
		}
		out.Responses = responses
		if out.Responses == nil {
			out.Responses = map[string]string{}
		}

		body, err := json.Marshal(out)
		if err != nil {
			return err
		}
		return queue.Publish(ctx, messagequeue.SubjectQueryResult, body)
	})
}
