package a2a

import (
	"context"
	"fmt"

	"github.com/Strob0t/AgentCanvas/internal/domain"
	"github.com/Strob0t/AgentCanvas/internal/domain/task"
)

// Connection sends tasks to one remote agent. Implementations are stateless
// per call and safe for concurrent use.
type Connection interface {
	// SendTask delivers env and returns the agent's result. Any transport or
	// protocol failure is a *SendError; an agent reporting a failed state
	// is a successful send.
	SendTask(ctx context.Context, env task.Envelope) (*task.Result, error)
	// BaseURL is the agent's address.
	BaseURL() string
}

// CardFetcher retrieves agent cards; a successful fetch doubles as a
// liveness probe.
type CardFetcher interface {
	FetchCard(ctx context.Context, baseURL string) (*AgentCard, error)
}

// Failure kinds reported by SendError.
const (
	KindTransport = "transport"
	KindProtocol  = "protocol"
)

// SendError describes why a task could not be exchanged with an agent.
// It matches domain.ErrSendFailed under errors.Is.
type SendError struct {
	Address string
	TaskID  string
	Kind    string
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send task %s to %s: %s: %v", e.TaskID, e.Address, e.Kind, e.Err)
}

// Unwrap exposes both the failure kind sentinel and the cause.
func (e *SendError) Unwrap() []error { return []error{domain.ErrSendFailed, e.Err} }
