package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend unavailable")

func fail() error    { return errBackend }
func succeed() error { return nil }

func tripped(t *testing.T, maxFailures int) (*Breaker, *time.Time) {
	t.Helper()
	now := time.Unix(1000, 0)
	b := NewBreaker(maxFailures, time.Second)
	b.now = func() time.Time { return now }
	for range maxFailures {
		_ = b.Execute(fail)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open after %d failures, got %s", maxFailures, b.State())
	}
	return b, &now
}

func TestClosedStateAllowsCalls(t *testing.T) {
	b := NewBreaker(3, time.Second)
	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestOpenRejectsWithoutCalling(t *testing.T) {
	b, _ := tripped(t, 3)

	called := false
	err := b.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Fatal("fn must not run while open")
	}
}

func TestHalfOpenProbeSuccessCloses(t *testing.T) {
	b, now := tripped(t, 2)
	*now = now.Add(2 * time.Second)

	if b.State() != StateHalfOpen {
		t.Fatalf("expected half_open after timeout, got %s", b.State())
	}
	if err := b.Execute(succeed); err != nil {
		t.Fatalf("probe: expected nil, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", b.State())
	}
}

func TestHalfOpenProbeFailureReopens(t *testing.T) {
	b, now := tripped(t, 2)
	*now = now.Add(2 * time.Second)

	if err := b.Execute(fail); !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error from probe, got %v", err)
	}
	if err := b.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after failed probe, got %v", err)
	}
}

func TestHalfOpenAdmitsSingleProbe(t *testing.T) {
	b, now := tripped(t, 1)
	*now = now.Add(2 * time.Second)

	release := make(chan struct{})
	done := make(chan error, 1)
	started := make(chan struct{})
	go func() {
		done <- b.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := b.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second caller during probe: expected ErrCircuitOpen, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestCancellationNotCounted(t *testing.T) {
	b := NewBreaker(2, time.Second)
	for range 5 {
		_ = b.Execute(func() error { return context.Canceled })
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after cancellations, got %s", b.State())
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker(3, time.Second)

	_ = b.Execute(fail)
	_ = b.Execute(fail)
	_ = b.Execute(succeed)
	_ = b.Execute(fail)
	_ = b.Execute(fail)

	if err := b.Execute(succeed); err != nil {
		t.Fatalf("expected closed circuit, got %v", err)
	}
}
