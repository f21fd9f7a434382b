package nop

import (
	"context"

	svc "github.com/viant/agentspace/service/agent"
)

const id = "nop"

// Agent performs no operation and returns immediately.
type Agent struct{}

// New creates a new nop agent.
func New() *Agent {
	return &Agent{}
}

// Metadata returns the agent metadata.
func (a *Agent) Metadata() svc.Metadata {
	return svc.Metadata{ID: id, Name: "No-op", Type: "builtin", Status: svc.StatusOnline}
}

// Invoke does nothing.
func (a *Agent) Invoke(_ context.Context, _ string, _ map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}
