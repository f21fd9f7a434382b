// Package agent defines the capability contract the engine invokes per step.
// Concrete agents live outside this module; the registry dispatches by agent
// id and two trivial built-ins (nop, printer) support wiring and tests.
package agent

import (
	"context"
	"fmt"
	"sync"
)

// Agent statuses reported through metadata.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Metadata describes an agent for display purposes.
type Metadata struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}

// Agent is a callable capability. Invoke runs a named action with opaque
// inputs and returns an opaque output map.
type Agent interface {
	Metadata() Metadata

	Invoke(ctx context.Context, action string, inputs map[string]interface{}) (map[string]interface{}, error)
}

// NewUnknownActionError flags an action an agent does not implement.
func NewUnknownActionError(agentID, action string) error {
	return fmt.Errorf("agent %s does not support action %s", agentID, action)
}

// Registry dispatches agents by id.
type Registry struct {
	agents map[string]Agent
	mux    sync.RWMutex
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register adds or replaces an agent.
func (r *Registry) Register(a Agent) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.agents[a.Metadata().ID] = a
}

// Lookup returns an agent by id, nil when absent.
func (r *Registry) Lookup(id string) Agent {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.agents[id]
}

// Metadata resolves display metadata for an agent id. Unknown agents are
// reported offline rather than erroring, so workflow detail views degrade
// gracefully.
func (r *Registry) Metadata(id string) Metadata {
	if a := r.Lookup(id); a != nil {
		return a.Metadata()
	}
	return Metadata{ID: id, Name: id, Status: StatusOffline}
}
