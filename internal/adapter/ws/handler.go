// Package ws implements the WebSocket broadcast hub observers connect to.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	cfotel "github.com/Strob0t/AgentCanvas/internal/adapter/otel"
)

const readLimit = 1 << 20

// Replier sends an event to a single observer.
type Replier interface {
	Reply(ctx context.Context, eventType string, payload any)
}

// InboundHandler receives every message an observer sends.
type InboundHandler func(ctx context.Context, from Replier, data []byte)

// conn wraps a single WebSocket connection.
type conn struct {
	ws           *websocket.Conn
	cancel       context.CancelFunc
	remote       string
	writeTimeout time.Duration
}

func (c *conn) write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()
	return c.ws.Write(ctx, websocket.MessageText, data)
}

// Reply writes one event to this connection only.
func (c *conn) Reply(ctx context.Context, eventType string, payload any) {
	data, err := EncodeEvent(eventType, payload)
	if err != nil {
		slog.Error("marshal ws reply", "type", eventType, "error", err)
		return
	}
	if err := c.write(ctx, data); err != nil {
		slog.Debug("websocket reply failed", "remote", c.remote, "error", err)
	}
}

// Hub manages all active WebSocket connections and broadcasts messages.
type Hub struct {
	mu           sync.RWMutex
	conns        map[*conn]struct{}
	inbound      InboundHandler
	writeTimeout time.Duration
	metrics      *cfotel.Metrics
}

// NewHub creates a hub whose writes are each bounded by writeTimeout.
func NewHub(writeTimeout time.Duration) *Hub {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Hub{
		conns:        make(map[*conn]struct{}),
		writeTimeout: writeTimeout,
	}
}

// SetInbound installs the handler for observer messages. It must be called
// before the hub serves connections.
func (h *Hub) SetInbound(fn InboundHandler) { h.inbound = fn }

// SetMetrics attaches observer gauges.
func (h *Hub) SetMetrics(m *cfotel.Metrics) { h.metrics = m }

// HandleWS upgrades the request and serves the connection until it closes.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}
	ws.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(r.Context())
	c := &conn{ws: ws, cancel: cancel, remote: r.RemoteAddr, writeTimeout: h.writeTimeout}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.ObserverDelta(ctx, 1)

	slog.Info("websocket connected", "remote", r.RemoteAddr)

	defer func() {
		h.remove(c)
		_ = ws.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			return
		}
		if h.inbound != nil {
			h.inbound(ctx, c, data)
		}
	}
}

// Broadcast writes data to every connection. Connections whose write fails
// are dropped after the pass; the rest still receive the message. Writes are
// bounded by the write timeout only, so a caller that goes away mid-broadcast
// cannot fail the writes to other observers.
func (h *Hub) Broadcast(ctx context.Context, data []byte) {
	ctx = context.WithoutCancel(ctx)
	h.mu.RLock()
	targets := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var failed []*conn
	for _, c := range targets {
		if err := c.write(ctx, data); err != nil {
			slog.Debug("websocket write failed", "remote", c.remote, "error", err)
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		h.remove(c)
		c.ws.CloseNow()
	}
}

// BroadcastEvent serializes one flat {"type": ...} event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := EncodeEvent(eventType, payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}
	h.Broadcast(ctx, data)
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	_, ok := h.conns[c]
	if ok {
		delete(h.conns, c)
	}
	h.mu.Unlock()

	if ok {
		c.cancel()
		h.metrics.ObserverDelta(context.Background(), -1)
		slog.Info("websocket disconnected", "remote", c.remote)
	}
}

// EncodeEvent merges the event type into the payload object so observers
// receive {"type": eventType, ...payload fields}.
func EncodeEvent(eventType string, payload any) ([]byte, error) {
	typ, err := json.Marshal(eventType)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	if len(body) < 2 || body[0] != '{' {
		return json.Marshal(struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}{eventType, body})
	}

	out := make([]byte, 0, len(body)+len(typ)+10)
	out = append(out, `{"type":`...)
	out = append(out, typ...)
	if string(body) != "{}" {
		out = append(out, ',')
	}
	out = append(out, body[1:]...)
	return out, nil
}
