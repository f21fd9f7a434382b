package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/agentspace/model/graph"
)

func validDefinition() *Definition {
	d := NewDefinition("ws-1", "triage")
	d.AddStep("classify", "agent-1", "classify_ticket").WithOnSuccess("notify")
	d.AddStep("notify", "agent-2", "send_email")
	return d
}

func TestValidateAcceptsSoundDefinition(t *testing.T) {
	assert.Empty(t, validDefinition().Validate())
}

func TestValidateRequiredFields(t *testing.T) {
	d := &Definition{}
	issues := d.Validate()
	messages := make([]string, 0, len(issues))
	for _, issue := range issues {
		messages = append(messages, issue.Error())
	}
	assert.Contains(t, messages, "name is empty")
	assert.Contains(t, messages, "workspaceId is empty")
	assert.Contains(t, messages, "triggerType is empty")
	assert.Contains(t, messages, "workflow has no steps")
}

func TestValidateRejectsUnknownTrigger(t *testing.T) {
	d := validDefinition()
	d.TriggerType = "cron"
	issues := d.Validate()
	assert.Len(t, issues, 1)
	assert.Contains(t, issues[0].Error(), "unknown triggerType")
}

func TestValidateRejectsDuplicateStepIDs(t *testing.T) {
	d := validDefinition()
	d.AddStep("classify", "agent-3", "classify_ticket")
	issues := d.Validate()
	assert.Len(t, issues, 1)
	assert.Contains(t, issues[0].Error(), "duplicate step id")
}

func TestValidateRejectsDanglingTransitions(t *testing.T) {
	d := validDefinition()
	d.Steps[1].OnSuccess = "missing"
	d.Steps[1].OnFailure = "also-missing"
	issues := d.Validate()
	assert.Len(t, issues, 2)
}

func TestValidateRejectsBadDurations(t *testing.T) {
	d := validDefinition()
	d.Steps[0].Timeout = "not a duration"
	d.Steps[0].Retry = &graph.Retry{MaxAttempts: 2, Backoff: "fast"}
	issues := d.Validate()
	assert.Len(t, issues, 2)
}

func TestValidateRejectsUnknownOperator(t *testing.T) {
	d := validDefinition()
	d.Steps[0].Conditions = []*graph.Condition{{Field: "priority", Operator: "matches", Value: "high"}}
	issues := d.Validate()
	assert.Len(t, issues, 1)
	assert.Contains(t, issues[0].Error(), "unknown condition operator")
}

func TestValidateDetectsExplicitCycle(t *testing.T) {
	d := NewDefinition("ws-1", "looping")
	d.AddStep("a", "agent-1", "noop").WithOnSuccess("b")
	d.AddStep("b", "agent-1", "noop").WithOnSuccess("a")
	issues := d.Validate()
	assert.Len(t, issues, 1)
	assert.Contains(t, issues[0].Error(), "cyclic")
}

func TestValidateDetectsFailureEdgeCycle(t *testing.T) {
	d := NewDefinition("ws-1", "looping")
	d.AddStep("a", "agent-1", "noop")
	d.AddStep("b", "agent-1", "noop").WithOnFailure("a")
	issues := d.Validate()
	assert.Len(t, issues, 1)
	assert.Contains(t, issues[0].Error(), "cyclic")
}

func TestValidateAcceptsDiamondGraph(t *testing.T) {
	d := NewDefinition("ws-1", "diamond")
	d.AddStep("start", "agent-1", "noop").WithOnSuccess("left").WithOnFailure("right")
	d.AddStep("left", "agent-1", "noop").WithOnSuccess("join")
	d.AddStep("right", "agent-1", "noop").WithOnSuccess("join")
	d.AddStep("join", "agent-1", "noop")
	assert.Empty(t, d.Validate())
}

func TestCloneIsDeep(t *testing.T) {
	d := validDefinition()
	d.TriggerConfig = map[string]interface{}{"channel": "#ops"}
	clone := d.Clone()

	clone.Steps[0].Action = "changed"
	clone.TriggerConfig["channel"] = "#other"

	assert.Equal(t, "classify_ticket", d.Steps[0].Action)
	assert.Equal(t, "#ops", d.TriggerConfig["channel"])
}

func TestSnapshotAndApplyRoundTrip(t *testing.T) {
	d := validDefinition()
	d.ID = "wf-1"
	d.Status = StatusActive
	version := d.Snapshot()

	d.Name = "renamed"
	d.Steps = d.Steps[:1]
	d.TriggerType = TriggerEvent

	version.Apply(d)
	assert.Equal(t, "triage", d.Name)
	assert.Len(t, d.Steps, 2)
	assert.Equal(t, TriggerManual, d.TriggerType)
	// identity and lifecycle state stay untouched
	assert.Equal(t, "wf-1", d.ID)
	assert.Equal(t, StatusActive, d.Status)
}
