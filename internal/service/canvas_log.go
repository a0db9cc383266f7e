package service

import (
	"slices"
	"sync"

	"github.com/Strob0t/AgentCanvas/internal/domain/canvas"
)

// CanvasLog is the append-only, per-agent scoped log of accepted canvas
// actions. Readers always get a copy.
type CanvasLog struct {
	mu      sync.RWMutex
	entries []canvas.Action
}

// NewCanvasLog returns an empty log.
func NewCanvasLog() *CanvasLog {
	return &CanvasLog{}
}

// Append adds actions in order as a single step.
func (l *CanvasLog) Append(actions ...canvas.Action) {
	if len(actions) == 0 {
		return
	}
	l.mu.Lock()
	l.entries = append(l.entries, actions...)
	l.mu.Unlock()
}

// RemoveAgent deletes every entry from agentID and reports how many were
// removed. Other agents' entries keep their relative order.
func (l *CanvasLog) RemoveAgent(agentID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	before := len(l.entries)
	kept := make([]canvas.Action, 0, before)
	for _, a := range l.entries {
		if a.AgentID != agentID {
			kept = append(kept, a)
		}
	}
	l.entries = kept
	return before - len(kept)
}

// All returns every entry in arrival order.
func (l *CanvasLog) All() []canvas.Action {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// ForAgent returns agentID's entries in arrival order.
func (l *CanvasLog) ForAgent(agentID string) []canvas.Action {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []canvas.Action
	for _, a := range l.entries {
		if a.AgentID == agentID {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of entries.
func (l *CanvasLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
