// Package canvas defines drawing and diagram instructions emitted by agents
// for the shared canvas.
package canvas

import (
	"fmt"
	"time"

	"github.com/Strob0t/AgentCanvas/internal/domain"
)

// ActionType is the kind of canvas instruction.
type ActionType string

const (
	ActionDraw    ActionType = "draw"
	ActionMermaid ActionType = "mermaid"
	ActionClear   ActionType = "clear"
)

// PayloadKey is the data part key under which agents embed an action.
const PayloadKey = "canvas_action"

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	return t == ActionDraw || t == ActionMermaid || t == ActionClear
}

// Action is one accepted canvas instruction. Data is opaque to the
// coordinator and interpreted by viewers.
type Action struct {
	AgentID    string         `json:"agent_id"`
	ActionType ActionType     `json:"action_type"`
	Data       map[string]any `json:"data"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Validate checks the fields every action must carry.
func (a Action) Validate() error {
	if a.AgentID == "" {
		return fmt.Errorf("%w: canvas action agent_id is required", domain.ErrValidation)
	}
	if !a.ActionType.Valid() {
		return fmt.Errorf("%w: unknown canvas action type %q", domain.ErrValidation, a.ActionType)
	}
	return nil
}

// FromPayload builds an action from a data part payload. The originating
// agent id always wins over any agent_id inside the payload.
func FromPayload(agentID string, payload map[string]any, at time.Time) (Action, error) {
	raw, ok := payload[PayloadKey].(map[string]any)
	if !ok {
		return Action{}, fmt.Errorf("%w: %s is not an object", domain.ErrValidation, PayloadKey)
	}
	typ, _ := raw["action_type"].(string)
	data, _ := raw["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}

	a := Action{
		AgentID:    agentID,
		ActionType: ActionType(typ),
		Data:       data,
		Timestamp:  at,
	}
	if err := a.Validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}

// HasPayload reports whether a data part carries a canvas action.
func HasPayload(data map[string]any) bool {
	_, ok := data[PayloadKey]
	return ok
}

// Payload wraps an action for embedding in a data part.
func Payload(t ActionType, agentID string, data map[string]any) map[string]any {
	return map[string]any{
		PayloadKey: map[string]any{
			"action_type": string(t),
			"agent_id":    agentID,
			"data":        data,
		},
	}
}

// ModificationRequest asks one agent to revise another agent's canvas work.
// It is relayed to observers verbatim.
type ModificationRequest struct {
	FromAgentID string         `json:"from_agent_id"`
	ToAgentID   string         `json:"to_agent_id"`
	Data        map[string]any `json:"data"`
}

// Validate requires both agent ids and a data object.
func (r ModificationRequest) Validate() error {
	if r.FromAgentID == "" || r.ToAgentID == "" || r.Data == nil {
		return fmt.Errorf("%w: modification request needs from_agent_id, to_agent_id and data", domain.ErrValidation)
	}
	return nil
}
