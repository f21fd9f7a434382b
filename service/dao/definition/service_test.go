package definition

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/agentspace/model"
)

const triageYAML = `
workspaceId: ws-1
teamId: team-1
name: ticket-triage
description: classify and route tickets
trigger: event
triggerConfig:
  source: helpdesk
steps:
  - id: classify
    agent: agent-1
    action: classify_ticket
    inputs:
      model: fast
    timeout: 30s
    retry:
      maxAttempts: 3
      backoff: 2s
    onSuccess: notify
    onFailure: escalate
  - id: notify
    name: Notify requester
    agent: agent-2
    action: send_email
    conditions:
      - field: classify.confidence
        op: gte
        value: 0.8
  - id: escalate
    agent: agent-3
    action: create_ticket
`

func TestDecodeYAML(t *testing.T) {
	definition, err := New().DecodeYAML([]byte(triageYAML))
	require.NoError(t, err)

	assert.Equal(t, "ws-1", definition.WorkspaceID)
	assert.Equal(t, "team-1", definition.TeamID)
	assert.Equal(t, "ticket-triage", definition.Name)
	assert.Equal(t, model.TriggerEvent, definition.TriggerType)
	assert.Equal(t, model.StatusDraft, definition.Status)
	assert.Equal(t, map[string]interface{}{"source": "helpdesk"}, definition.TriggerConfig)
	require.Len(t, definition.Steps, 3)

	classify := definition.Steps[0]
	assert.Equal(t, "classify", classify.ID)
	// name falls back to the step id
	assert.Equal(t, "classify", classify.Name)
	assert.Equal(t, "agent-1", classify.AgentID)
	assert.Equal(t, map[string]interface{}{"model": "fast"}, classify.Inputs)
	assert.Equal(t, "30s", classify.Timeout)
	require.NotNil(t, classify.Retry)
	assert.Equal(t, 3, classify.Retry.MaxAttempts)
	assert.Equal(t, "2s", classify.Retry.Backoff)
	assert.Equal(t, "notify", classify.OnSuccess)
	assert.Equal(t, "escalate", classify.OnFailure)

	notify := definition.Steps[1]
	assert.Equal(t, "Notify requester", notify.Name)
	require.Len(t, notify.Conditions, 1)
	assert.Equal(t, "classify.confidence", notify.Conditions[0].Field)
	assert.Equal(t, "gte", notify.Conditions[0].Operator)
	assert.Equal(t, 0.8, notify.Conditions[0].Value)
}

func TestDecodeYAMLDefaults(t *testing.T) {
	definition, err := New().DecodeYAML([]byte("workspaceId: ws-1"))
	require.NoError(t, err)
	assert.Equal(t, model.TriggerManual, definition.TriggerType)
	assert.Equal(t, model.StatusDraft, definition.Status)
	assert.Empty(t, definition.Steps)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "triage.yaml")
	require.NoError(t, os.WriteFile(location, []byte("workspaceId: ws-1\nsteps:\n  - id: only\n    agent: agent-1\n    action: noop\n"), 0o644))

	definition, err := New().Load(context.Background(), location)
	require.NoError(t, err)
	// name defaults to the file basename
	assert.Equal(t, "triage", definition.Name)
	require.Len(t, definition.Steps, 1)
}

func TestLoadAppendsExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "routing.yaml"), []byte("workspaceId: ws-1"), 0o644))

	definition, err := New().Load(context.Background(), filepath.Join(dir, "routing"))
	require.NoError(t, err)
	assert.Equal(t, "routing", definition.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
