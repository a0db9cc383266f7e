package task

import (
	"reflect"
	"testing"
)

func TestResultFlattenOrder(t *testing.T) {
	msg := AgentMessage(TextPart("status text"), FunctionResponsePart("search", []any{"r1", "r2"}))
	r := &Result{
		ID:     "t1",
		Status: Status{State: StateCompleted, Message: &msg},
		Artifacts: []Artifact{
			{Parts: []Part{TextPart("artifact one"), DataPart(map[string]any{"x": 1})}},
			{Parts: []Part{FunctionResponsePart("calc", 7.0)}},
		},
	}

	want := []string{"status text", "r1", "r2", "artifact one", "7"}
	if got := r.Flatten(); !reflect.DeepEqual(got, want) {
		t.Errorf("Flatten() = %v, want %v", got, want)
	}
	if got := r.Text(); got != "status text\nartifact one" {
		t.Errorf("Text() = %q", got)
	}
	if got := r.StatusText(); got != "status text" {
		t.Errorf("StatusText() = %q", got)
	}
	if got := r.DataParts(); len(got) != 1 || got[0]["x"] != 1 {
		t.Errorf("DataParts() = %v", got)
	}
}

func TestResultWithoutMessage(t *testing.T) {
	r := &Result{ID: "t1", Status: Status{State: StateWorking}}
	if r.Text() != "" || len(r.Flatten()) != 0 || len(r.Parts()) != 0 {
		t.Errorf("expected empty projections, got %q %v", r.Text(), r.Flatten())
	}
}

func TestNewResultCorrelates(t *testing.T) {
	env, err := NewQueryEnvelope("q")
	if err != nil {
		t.Fatal(err)
	}
	r := NewResult(env, StateCompleted, TextPart("done"))
	if r.ID != env.ID || r.SessionID != env.SessionID {
		t.Errorf("result ids %s/%s do not match envelope %s/%s", r.ID, r.SessionID, env.ID, env.SessionID)
	}
	if r.Status.Message.Role != RoleAgent {
		t.Errorf("expected agent role, got %s", r.Status.Message.Role)
	}
}
