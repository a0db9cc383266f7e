package service

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Strob0t/AgentCanvas/internal/domain"
	"github.com/Strob0t/AgentCanvas/internal/domain/agent"
	"github.com/Strob0t/AgentCanvas/internal/domain/canvas"
	"github.com/Strob0t/AgentCanvas/internal/port/a2a"
)

// ConnectionFactory binds an agent address to a connection. It must not
// touch the network.
type ConnectionFactory func(baseURL string) a2a.Connection

// AgentBinding pairs a registered agent with its connection.
type AgentBinding struct {
	Agent agent.Descriptor
	Conn  a2a.Connection
}

type registryEntry struct {
	desc agent.Descriptor
	conn a2a.Connection
}

// AgentRegistry maps agent ids to descriptors and connections. Ids, names
// and address+name pairs are each unique. It is safe for concurrent use and
// keeps insertion order for listings.
type AgentRegistry struct {
	mu      sync.RWMutex
	dial    ConnectionFactory
	canvas  *CanvasLog
	entries map[string]*registryEntry
	order   []string
}

// NewAgentRegistry creates an empty registry. canvasLog may be nil when no
// canvas state is kept (built-in agents).
func NewAgentRegistry(dial ConnectionFactory, canvasLog *CanvasLog) *AgentRegistry {
	return &AgentRegistry{
		dial:    dial,
		canvas:  canvasLog,
		entries: make(map[string]*registryEntry),
	}
}

// Add registers d. A missing id is generated. The connection is bound
// eagerly when d has an address.
func (r *AgentRegistry) Add(d agent.Descriptor) (agent.Descriptor, error) {
	if err := d.Validate(); err != nil {
		return agent.Descriptor{}, err
	}
	d = d.Clone()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Source == "" {
		d.Source = agent.SourceManual
	}
	if d.Tools == nil {
		d.Tools = []string{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkUniqueLocked(d, ""); err != nil {
		return agent.Descriptor{}, err
	}
	r.insertLocked(d)
	return d.Clone(), nil
}

// Ensure registers d unless an agent with the same address and name is
// already present, in which case the existing descriptor is returned and
// created is false.
func (r *AgentRegistry) Ensure(d agent.Descriptor) (out agent.Descriptor, created bool, err error) {
	if err := d.Validate(); err != nil {
		return agent.Descriptor{}, false, err
	}
	d = d.Clone()
	if d.Tools == nil {
		d.Tools = []string{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := d.Key()
	for _, id := range r.order {
		if e := r.entries[id]; e.desc.Key() == key {
			return e.desc.Clone(), false, nil
		}
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if err := r.checkUniqueLocked(d, ""); err != nil {
		return agent.Descriptor{}, false, err
	}
	r.insertLocked(d)
	return d.Clone(), true, nil
}

// Update replaces the mutable fields of agent id. The id and connection are
// never changed.
func (r *AgentRegistry) Update(id string, u agent.Update) (agent.Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return agent.Descriptor{}, fmt.Errorf("%w: agent %s", domain.ErrNotFound, id)
	}
	next, err := u.Apply(e.desc.Clone())
	if err != nil {
		return agent.Descriptor{}, err
	}
	if err := r.checkUniqueLocked(next, id); err != nil {
		return agent.Descriptor{}, err
	}
	e.desc = next
	return next.Clone(), nil
}

// Remove deletes agent id, its connection and its canvas log entries.
func (r *AgentRegistry) Remove(id string) error {
	r.mu.Lock()
	if _, ok := r.entries[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: agent %s", domain.ErrNotFound, id)
	}
	delete(r.entries, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	// Cascade under the lock so AppendOwned cannot slip entries in between.
	if r.canvas != nil {
		r.canvas.RemoveAgent(id)
	}
	r.mu.Unlock()
	return nil
}

// AppendOwned appends to log the actions whose agent is still registered
// and returns them in order.
func (r *AgentRegistry) AppendOwned(log *CanvasLog, actions []canvas.Action) []canvas.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kept := make([]canvas.Action, 0, len(actions))
	for _, a := range actions {
		if _, ok := r.entries[a.AgentID]; ok {
			kept = append(kept, a)
		}
	}
	log.Append(kept...)
	return kept
}

// Registered reports whether an agent with this address and name exists.
func (r *AgentRegistry) Registered(address, name string) bool {
	key := agent.Key(address, name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.desc.Key() == key {
			return true
		}
	}
	return false
}

// Get returns agent id.
func (r *AgentRegistry) Get(id string) (agent.Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return agent.Descriptor{}, fmt.Errorf("%w: agent %s", domain.ErrNotFound, id)
	}
	return e.desc.Clone(), nil
}

// Lookup returns the binding of the agent called name.
func (r *AgentRegistry) Lookup(name string) (AgentBinding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if e := r.entries[id]; e.desc.Name == name {
			return AgentBinding{Agent: e.desc.Clone(), Conn: e.conn}, nil
		}
	}
	return AgentBinding{}, fmt.Errorf("%w: agent named %q", domain.ErrNotFound, name)
}

// List returns all descriptors in insertion order.
func (r *AgentRegistry) List() []agent.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]agent.Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].desc.Clone())
	}
	return out
}

// ListActive returns the descriptors currently marked active.
func (r *AgentRegistry) ListActive() []agent.Descriptor {
	var out []agent.Descriptor
	for _, b := range r.snapshot(true) {
		out = append(out, b.Agent)
	}
	return out
}

// ActiveBindings returns a snapshot of active agents together with their
// connections. Active agents without an address have no connection.
func (r *AgentRegistry) ActiveBindings() []AgentBinding {
	return r.snapshot(true)
}

// Names returns all agent names in insertion order.
func (r *AgentRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].desc.Name)
	}
	return out
}

// Len returns the number of registered agents.
func (r *AgentRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *AgentRegistry) snapshot(activeOnly bool) []AgentBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AgentBinding, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		if activeOnly && !e.desc.IsActive {
			continue
		}
		out = append(out, AgentBinding{Agent: e.desc.Clone(), Conn: e.conn})
	}
	return out
}

// checkUniqueLocked rejects d if another agent (other than self) shares its
// id, name, or address+name.
func (r *AgentRegistry) checkUniqueLocked(d agent.Descriptor, self string) error {
	if self == "" {
		if _, ok := r.entries[d.ID]; ok {
			return fmt.Errorf("%w: agent id %s already registered", domain.ErrConflict, d.ID)
		}
	}
	key := d.Key()
	for _, id := range r.order {
		if id == self {
			continue
		}
		other := r.entries[id].desc
		if other.Name == d.Name {
			return fmt.Errorf("%w: agent name %q already registered", domain.ErrConflict, d.Name)
		}
		if d.ServerURL != "" && other.Key() == key {
			return fmt.Errorf("%w: agent %q at %s already registered", domain.ErrConflict, d.Name, d.ServerURL)
		}
	}
	return nil
}

func (r *AgentRegistry) insertLocked(d agent.Descriptor) {
	e := &registryEntry{desc: d}
	if d.ServerURL != "" && r.dial != nil {
		e.conn = r.dial(d.ServerURL)
	}
	r.entries[d.ID] = e
	r.order = append(r.order, d.ID)
}
