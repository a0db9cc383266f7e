package messagequeue

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		data    string
		wantErr string
	}{
		{"query", SubjectQuery, `{"request_id":"r1","query":"draw a circle"}`, ""},
		{"query without text", SubjectQuery, `{"request_id":"r1"}`, "query is required"},
		{"query wrong type", SubjectQuery, `{"query":42}`, "schema validation failed"},
		{"query result", SubjectQueryResult, `{"request_id":"r1","query":"q","responses":{"a":"hi"}}`, ""},
		{"query result bad responses", SubjectQueryResult, `{"responses":"nope"}`, "schema validation failed"},
		{"event", EventSubject("layer_cleared"), `{"type":"layer_cleared","agent_id":"a1"}`, ""},
		{"event type mismatch", EventSubject("layer_cleared"), `{"type":"agent_removed"}`, "does not match subject"},
		{"unknown subject", "other.subject", `{"anything":true}`, ""},
		{"invalid json", SubjectQuery, `{broken`, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.subject, []byte(tt.data))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestEventSubject(t *testing.T) {
	if got := EventSubject("canvas_action"); got != "canvas.events.canvas_action" {
		t.Fatalf("unexpected subject %s", got)
	}
}
