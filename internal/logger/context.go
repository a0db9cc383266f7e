package logger

import "context"

type contextKey int

const (
	requestIDKey contextKey = iota
	taskIDKey
	agentIDKey
)

// WithRequestID returns a new context with the given request ID stored.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func RequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithTaskID tags ctx with the id of the task being sent or answered.
func WithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskIDKey, id)
}

// TaskID returns the task id stored by WithTaskID.
func TaskID(ctx context.Context) string {
	return stringValue(ctx, taskIDKey)
}

// WithAgentID tags ctx with the registry id of the agent being called.
func WithAgentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, agentIDKey, id)
}

// AgentID returns the agent id stored by WithAgentID.
func AgentID(ctx context.Context) string {
	return stringValue(ctx, agentIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}
