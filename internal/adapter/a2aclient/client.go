// Package a2aclient implements the outbound agent connection over HTTP
// JSON-RPC.
package a2aclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Strob0t/AgentCanvas/internal/domain/task"
	"github.com/Strob0t/AgentCanvas/internal/logger"
	"github.com/Strob0t/AgentCanvas/internal/middleware"
	"github.com/Strob0t/AgentCanvas/internal/port/a2a"
)

const maxResponseBytes = 8 << 20

// Dialer builds connections sharing one HTTP client. The client timeout is
// the per-call bound on every send.
type Dialer struct {
	httpClient *http.Client
}

// NewDialer creates a Dialer whose calls time out after timeout.
func NewDialer(timeout time.Duration) *Dialer {
	return &Dialer{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Dial returns a connection to the agent at baseURL. No I/O happens here.
func (d *Dialer) Dial(baseURL string) a2a.Connection {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: d.httpClient}
}

// FetchCard retrieves the agent card at baseURL.
func (d *Dialer) FetchCard(ctx context.Context, baseURL string) (*a2a.AgentCard, error) {
	url := strings.TrimRight(baseURL, "/") + a2a.WellKnownCardPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch card %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch card %s: status %d", url, resp.StatusCode)
	}

	var card a2a.AgentCard
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&card); err != nil {
		return nil, fmt.Errorf("decode card %s: %w", url, err)
	}
	if card.Name == "" {
		return nil, fmt.Errorf("card %s has no name", url)
	}
	return &card, nil
}

// Client is a connection to one remote agent.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a connection to baseURL with its own call timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewDialer(timeout).Dial(baseURL).(*Client)
}

// BaseURL returns the agent address.
func (c *Client) BaseURL() string { return c.baseURL }

// SendTask posts env as a tasks/send request and returns the correlated result.
func (c *Client) SendTask(ctx context.Context, env task.Envelope) (*task.Result, error) {
	rpc, err := a2a.NewSendRequest(uuid.NewString(), env)
	if err != nil {
		return nil, c.fail(env, a2a.KindProtocol, err)
	}
	body, err := json.Marshal(rpc)
	if err != nil {
		return nil, c.fail(env, a2a.KindProtocol, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/", bytes.NewReader(body))
	if err != nil {
		return nil, c.fail(env, a2a.KindTransport, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(env, a2a.KindTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.fail(env, a2a.KindTransport, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(env, a2a.KindTransport, fmt.Errorf("status %d: %s", resp.StatusCode, snippet(data)))
	}

	res, err := a2a.DecodeResponse(data)
	if err != nil {
		return nil, c.fail(env, a2a.KindProtocol, err)
	}
	if res.ID != env.ID {
		return nil, c.fail(env, a2a.KindProtocol, fmt.Errorf("result id %q does not match task id", res.ID))
	}
	return res, nil
}

func (c *Client) fail(env task.Envelope, kind string, err error) error {
	return &a2a.SendError{Address: c.baseURL, TaskID: env.ID, Kind: kind, Err: err}
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// IsTimeout reports whether a send failed because the call deadline passed.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
