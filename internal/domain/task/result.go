package task

import (
	"strings"
	"time"
)

// Status is the state of a task at the time the agent answered.
type Status struct {
	State     State    `json:"state"`
	Message   *Message `json:"message,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// Artifact is an ordered bundle of output parts.
type Artifact struct {
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Result is a remote agent's answer to an Envelope.
type Result struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	Status    Status         `json:"status"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewResult answers env with state and an agent message made of parts.
func NewResult(env Envelope, state State, parts ...Part) *Result {
	msg := AgentMessage(parts...)
	return &Result{
		ID:        env.ID,
		SessionID: env.SessionID,
		Status: Status{
			State:     state,
			Message:   &msg,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// Parts returns the status message parts followed by every artifact's
// parts, in order.
func (r *Result) Parts() []Part {
	var out []Part
	if r.Status.Message != nil {
		out = append(out, r.Status.Message.Parts...)
	}
	for _, a := range r.Artifacts {
		out = append(out, a.Parts...)
	}
	return out
}

// Text joins every text part of the result with newlines.
func (r *Result) Text() string {
	return joinTexts(r.Parts())
}

// StatusText joins the text parts of the status message only.
func (r *Result) StatusText() string {
	if r.Status.Message == nil {
		return ""
	}
	return joinTexts(r.Status.Message.Parts)
}

// Flatten returns text parts and function response values in order.
func (r *Result) Flatten() []string {
	var out []string
	for _, p := range r.Parts() {
		switch p.Kind {
		case PartText:
			out = append(out, p.Text)
		case PartFunctionResponse:
			if p.Function != nil {
				out = append(out, p.Function.Values()...)
			}
		}
	}
	return out
}

// DataParts returns the data payloads of the result, in order.
func (r *Result) DataParts() []map[string]any {
	var out []map[string]any
	for _, p := range r.Parts() {
		if p.Kind == PartData && p.Data != nil {
			out = append(out, p.Data)
		}
	}
	return out
}

func joinTexts(parts []Part) string {
	var texts []string
	for _, p := range parts {
		if p.Kind == PartText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}
