// Package a2a defines the agent-to-agent wire contract: the JSON-RPC task
// envelope, the agent card, the outbound Connection port, and the HTTP
// handler built-in agents serve.
package a2a

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	a2aproto "github.com/a2aproject/a2a-go/a2a"

	"github.com/Strob0t/AgentCanvas/internal/domain/task"
)

// JSON-RPC method names.
const (
	MethodSendTask = "tasks/send"
	MethodGetTask  = "tasks/get"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeTaskNotFound   = -32001
)

// Request is a JSON-RPC request carrying a task envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

// Response is a JSON-RPC response carrying a task result.
type Response struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      any          `json:"id"`
	Result  *task.Result `json:"result,omitempty"`
	Error   *RPCError    `json:"error,omitempty"`
}

// NewSendRequest wraps env in a tasks/send request.
func NewSendRequest(rpcID string, env task.Envelope) (Request, error) {
	params, err := json.Marshal(env)
	if err != nil {
		return Request{}, fmt.Errorf("marshal envelope: %w", err)
	}
	return Request{JSONRPC: "2.0", ID: rpcID, Method: MethodSendTask, Params: params}, nil
}

// ParseState maps a wire state onto task.State. Both the underscore form
// and the hyphenated A2A spelling are accepted; rejected maps to failed and
// auth-required to input_required.
func ParseState(s string) (task.State, error) {
	switch a2aproto.TaskState(strings.ToLower(strings.TrimSpace(s))) {
	case a2aproto.TaskStateSubmitted:
		return task.StateSubmitted, nil
	case a2aproto.TaskStateWorking:
		return task.StateWorking, nil
	case a2aproto.TaskStateInputRequired, a2aproto.TaskStateAuthRequired, "input_required":
		return task.StateInputRequired, nil
	case a2aproto.TaskStateCompleted:
		return task.StateCompleted, nil
	case a2aproto.TaskStateCanceled, "cancelled":
		return task.StateCanceled, nil
	case a2aproto.TaskStateFailed, a2aproto.TaskStateRejected:
		return task.StateFailed, nil
	}
	return "", fmt.Errorf("unknown task state %q", s)
}

// DecodeResponse parses a tasks/send response body. A body without the
// JSON-RPC wrapper is accepted when it is itself a task result.
func DecodeResponse(body []byte) (*task.Result, error) {
	var probe struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
		Status json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if probe.Error != nil {
		return nil, probe.Error
	}

	raw := probe.Result
	if len(raw) == 0 || string(raw) == "null" {
		if len(probe.Status) == 0 {
			return nil, errors.New("response has no result")
		}
		raw = body
	}

	var res task.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	state, err := ParseState(string(res.Status.State))
	if err != nil {
		return nil, err
	}
	res.Status.State = state
	return &res, nil
}

// DecodeEnvelope parses an inbound task request. The body may be a JSON-RPC
// tasks/send request or the bare envelope. It returns the JSON-RPC id to
// echo, falling back to the task id.
func DecodeEnvelope(body []byte) (task.Envelope, any, error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return task.Envelope{}, nil, &RPCError{Code: CodeParseError, Message: "invalid JSON"}
	}

	params := json.RawMessage(body)
	rpcID := req.ID
	if req.Method != "" {
		if req.Method != MethodSendTask {
			return task.Envelope{}, rpcID, &RPCError{Code: CodeMethodNotFound, Message: "method not found: " + req.Method}
		}
		params = req.Params
	}

	var env task.Envelope
	if err := json.Unmarshal(params, &env); err != nil {
		return task.Envelope{}, rpcID, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}
	if env.Message.Role == "" {
		env.Message.Role = task.RoleUser
	}
	if err := env.Validate(); err != nil {
		return task.Envelope{}, rpcID, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}
	if rpcID == nil {
		rpcID = env.ID
	}
	return env, rpcID, nil
}
