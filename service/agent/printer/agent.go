package printer

import (
	"context"
	"fmt"
	"strings"

	svc "github.com/viant/agentspace/service/agent"
)

const id = "printer"

// Agent prints a message to standard output.
type Agent struct{}

// New creates a new printer agent.
func New() *Agent {
	return &Agent{}
}

// Metadata returns the agent metadata.
func (a *Agent) Metadata() svc.Metadata {
	return svc.Metadata{ID: id, Name: "Printer", Type: "builtin", Status: svc.StatusOnline}
}

// Invoke prints the message input and echoes it back as output.
func (a *Agent) Invoke(_ context.Context, action string, inputs map[string]interface{}) (map[string]interface{}, error) {
	if strings.ToLower(action) != "print" {
		return nil, svc.NewUnknownActionError(id, action)
	}
	message := ""
	if m, ok := inputs["message"]; ok {
		message = fmt.Sprintf("%v", m)
	}
	fmt.Println(message)
	return map[string]interface{}{"message": message}, nil
}
