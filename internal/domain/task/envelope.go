package task

import (
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/Strob0t/AgentCanvas/internal/domain"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// MetaConversationID is the metadata key correlating a task with the
// conversation (session) it belongs to.
const MetaConversationID = "conversation_id"

// Message is one turn in a task conversation.
type Message struct {
	ID       string         `json:"message_id"`
	Role     Role           `json:"role"`
	Parts    []Part         `json:"parts"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UserMessage builds a user message from parts with a fresh id.
func UserMessage(parts ...Part) Message {
	return Message{ID: NewMessageID(), Role: RoleUser, Parts: parts}
}

// AgentMessage builds an agent message from parts with a fresh id.
func AgentMessage(parts ...Part) Message {
	return Message{ID: NewMessageID(), Role: RoleAgent, Parts: parts}
}

// Envelope is a task sent to a remote agent. It is built once through
// NewEnvelope and never modified afterwards.
type Envelope struct {
	ID                  string         `json:"id"`
	SessionID           string         `json:"sessionId"`
	Message             Message        `json:"message"`
	AcceptedOutputModes []string       `json:"acceptedOutputModes,omitempty"`
	Metadata            map[string]any `json:"metadata,omitempty"`
}

// Option customizes an envelope under construction.
type Option func(*Envelope)

// WithAcceptedOutputModes sets the output modes the caller can consume.
func WithAcceptedOutputModes(modes ...string) Option {
	return func(e *Envelope) { e.AcceptedOutputModes = append([]string(nil), modes...) }
}

// WithMetadata adds one metadata entry.
func WithMetadata(key string, value any) Option {
	return func(e *Envelope) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// WithSessionID overrides the generated session id of NewQueryEnvelope.
func WithSessionID(id string) Option {
	return func(e *Envelope) { e.SessionID = id }
}

// NewEnvelope validates and returns an envelope. The conversation id
// metadata defaults to the session id.
func NewEnvelope(id, sessionID string, msg Message, opts ...Option) (Envelope, error) {
	e := Envelope{ID: id, SessionID: sessionID, Message: msg}
	e.Message.Parts = append([]Part(nil), msg.Parts...)
	e.Message.Metadata = maps.Clone(msg.Metadata)
	for _, opt := range opts {
		opt(&e)
	}
	if e.Message.ID == "" {
		e.Message.ID = NewMessageID()
	}
	if _, ok := e.Metadata[MetaConversationID]; !ok {
		WithMetadata(MetaConversationID, e.SessionID)(&e)
	}
	if err := e.Validate(); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

// NewQueryEnvelope wraps a user query in a fresh envelope with new task and
// session ids.
func NewQueryEnvelope(query string, opts ...Option) (Envelope, error) {
	return NewEnvelope(NewTaskID(), NewSessionID(), UserMessage(TextPart(query)), opts...)
}

// Validate checks the structural invariants of an envelope.
func (e Envelope) Validate() error {
	var errs []error
	if e.ID == "" {
		errs = append(errs, errors.New("task id is required"))
	}
	if e.SessionID == "" {
		errs = append(errs, errors.New("session id is required"))
	}
	switch e.Message.Role {
	case RoleUser:
		if len(e.Message.Parts) == 0 {
			errs = append(errs, errors.New("user message must contain at least one part"))
		}
	case RoleAgent:
	default:
		errs = append(errs, fmt.Errorf("unknown message role %q", e.Message.Role))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrValidation, errors.Join(errs...))
	}
	return nil
}

// Query returns the concatenated text parts of the envelope's message.
func (e Envelope) Query() string {
	return joinTexts(e.Message.Parts)
}

// NewTaskID returns a fresh task id.
func NewTaskID() string { return "task-" + uuid.NewString() }

// NewSessionID returns a fresh session id.
func NewSessionID() string { return "session-" + uuid.NewString() }

// NewMessageID returns a fresh message id.
func NewMessageID() string { return "msg-" + uuid.NewString() }
