// Package broadcast defines the port services use to notify observers.
package broadcast

import "context"

// Broadcaster delivers one event to every connected observer. Delivery is
// best effort: a failing observer is dropped by the implementation and the
// caller never sees an error.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Func adapts a function to Broadcaster.
type Func func(ctx context.Context, eventType string, payload any)

// BroadcastEvent calls f.
func (f Func) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	f(ctx, eventType, payload)
}

// Discard drops every event. Services built without observers use it.
var Discard Broadcaster = Func(func(context.Context, string, any) {})

// OrDiscard returns b, or Discard when b is nil.
func OrDiscard(b Broadcaster) Broadcaster {
	if b == nil {
		return Discard
	}
	return b
}
