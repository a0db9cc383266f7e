// Package task defines the task envelope exchanged with remote agents and
// the lifecycle of its result.
package task

// State is the lifecycle state reported by a remote agent for a task.
type State string

const (
	StateSubmitted     State = "submitted"
	StateWorking       State = "working"
	StateInputRequired State = "input_required"
	StateCompleted     State = "completed"
	StateCanceled      State = "canceled"
	StateFailed        State = "failed"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateSubmitted, StateWorking, StateInputRequired,
		StateCompleted, StateCanceled, StateFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCanceled || s == StateFailed
}

// HaltsAutomation reports whether automated processing must stop at s.
// input_required is not terminal for the agent, but a human has to answer
// before anything else can proceed.
func (s State) HaltsAutomation() bool {
	return s.Terminal() || s == StateInputRequired
}

// Failed reports whether s is an application-level failure.
func (s State) Failed() bool {
	return s == StateCanceled || s == StateFailed
}
