package a2a

import (
	"errors"
	"testing"

	"github.com/Strob0t/AgentCanvas/internal/domain"
	"github.com/Strob0t/AgentCanvas/internal/domain/task"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		in   string
		want task.State
	}{
		{"submitted", task.StateSubmitted},
		{"working", task.StateWorking},
		{"input_required", task.StateInputRequired},
		{"input-required", task.StateInputRequired},
		{"auth-required", task.StateInputRequired},
		{"completed", task.StateCompleted},
		{"COMPLETED", task.StateCompleted},
		{"canceled", task.StateCanceled},
		{"cancelled", task.StateCanceled},
		{"failed", task.StateFailed},
		{"rejected", task.StateFailed},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseState(tt.in)
			if err != nil {
				t.Fatalf("ParseState(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseState(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseState("sleeping"); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestDecodeResponse(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":"r1","result":{"id":"t1","sessionId":"s1","status":{"state":"input-required","message":{"message_id":"m","role":"agent","parts":[{"type":"text","text":"which city?"}]}}}}`
	res, err := DecodeResponse([]byte(body))
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if res.Status.State != task.StateInputRequired {
		t.Errorf("expected normalized input_required, got %s", res.Status.State)
	}
	if res.Text() != "which city?" {
		t.Errorf("unexpected text %q", res.Text())
	}
}

func TestDecodeResponseBareResult(t *testing.T) {
	res, err := DecodeResponse([]byte(`{"id":"t1","sessionId":"s1","status":{"state":"completed"}}`))
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if res.ID != "t1" || res.Status.State != task.StateCompleted {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestDecodeResponseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>bad gateway</html>`},
		{"rpc error", `{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"boom"}}`},
		{"no result", `{"jsonrpc":"2.0","id":1}`},
		{"unknown state", `{"result":{"id":"t","status":{"state":"dreaming"}}}`},
		{"unknown part", `{"result":{"id":"t","status":{"state":"completed","message":{"role":"agent","parts":[{"type":"hologram"}]}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeResponse([]byte(tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSendErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&SendError{Address: "http://x", TaskID: "t1", Kind: KindTransport, Err: cause})

	if !errors.Is(err, domain.ErrSendFailed) {
		t.Error("SendError must match ErrSendFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("SendError must expose its cause")
	}
	var se *SendError
	if !errors.As(err, &se) || se.Kind != KindTransport {
		t.Errorf("errors.As failed: %+v", se)
	}
}
