package task

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/AgentCanvas/internal/domain"
)

func TestNewEnvelopeValidation(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		session   string
		msg       Message
		wantError string
	}{
		{"missing id", "", "s1", UserMessage(TextPart("hi")), "task id is required"},
		{"missing session", "t1", "", UserMessage(TextPart("hi")), "session id is required"},
		{"user without parts", "t1", "s1", UserMessage(), "at least one part"},
		{"unknown role", "t1", "s1", Message{Role: "robot", Parts: []Part{TextPart("x")}}, "unknown message role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEnvelope(tt.id, tt.session, tt.msg)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("expected %q in %q", tt.wantError, err.Error())
			}
		})
	}
}

func TestNewEnvelopeDefaults(t *testing.T) {
	env, err := NewEnvelope("t1", "s1", Message{Role: RoleUser, Parts: []Part{TextPart("draw a circle")}},
		WithAcceptedOutputModes("text", "text/plain"))
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if env.Message.ID == "" {
		t.Error("expected generated message id")
	}
	if env.Metadata[MetaConversationID] != "s1" {
		t.Errorf("expected conversation_id s1, got %v", env.Metadata[MetaConversationID])
	}
	if len(env.AcceptedOutputModes) != 2 {
		t.Errorf("expected 2 output modes, got %v", env.AcceptedOutputModes)
	}
	if env.Query() != "draw a circle" {
		t.Errorf("Query() = %q", env.Query())
	}
}

func TestNewEnvelopeCopiesParts(t *testing.T) {
	parts := []Part{TextPart("original")}
	env, err := NewEnvelope("t1", "s1", Message{Role: RoleUser, Parts: parts})
	if err != nil {
		t.Fatal(err)
	}
	parts[0] = TextPart("mutated")
	if env.Message.Parts[0].Text != "original" {
		t.Errorf("envelope shares caller's part slice: %q", env.Message.Parts[0].Text)
	}
}

func TestNewQueryEnvelopeFreshIDs(t *testing.T) {
	a, err := NewQueryEnvelope("q")
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewQueryEnvelope("q")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID || a.SessionID == b.SessionID {
		t.Errorf("expected distinct ids, got %s/%s and %s/%s", a.ID, a.SessionID, b.ID, b.SessionID)
	}
	if !strings.HasPrefix(a.ID, "task-") || !strings.HasPrefix(a.SessionID, "session-") {
		t.Errorf("unexpected id format %s %s", a.ID, a.SessionID)
	}
}

func TestNewQueryEnvelopeSessionOverride(t *testing.T) {
	env, err := NewQueryEnvelope("q", WithSessionID("conv-7"))
	if err != nil {
		t.Fatal(err)
	}
	if env.SessionID != "conv-7" || env.Metadata[MetaConversationID] != "conv-7" {
		t.Errorf("expected session conv-7 everywhere, got %s / %v", env.SessionID, env.Metadata)
	}
}

func TestEnvelopeWireShape(t *testing.T) {
	env, err := NewEnvelope("t1", "s1", Message{ID: "m1", Role: RoleUser, Parts: []Part{TextPart("hello")}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"t1","sessionId":"s1","message":{"message_id":"m1","role":"user","parts":[{"type":"text","text":"hello"}]},"metadata":{"conversation_id":"s1"}}`
	if string(b) != want {
		t.Errorf("wire shape mismatch\n got: %s\nwant: %s", b, want)
	}
}
