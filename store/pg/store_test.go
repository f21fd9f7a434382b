package pg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/agentspace/internal/testutil"
	"github.com/viant/agentspace/model"
	"github.com/viant/agentspace/model/graph"
	"github.com/viant/agentspace/runtime/execution"
	"github.com/viant/agentspace/service/approval"
	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/service/memory"
)

func TestPostgresStores(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed store test in short mode")
	}
	td := testutil.SetupTestDB(t)
	defer td.Teardown(t)

	store := NewWithDB(td.DB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("definitions", func(t *testing.T) {
		definitions := NewDefinitions(store)
		definition := &model.Definition{
			ID:          "wf-1",
			WorkspaceID: "ws-1",
			Name:        "triage",
			TriggerType: model.TriggerManual,
			Status:      model.StatusActive,
			Steps:       []*graph.Step{{ID: "classify", Name: "classify", AgentID: "agent-1", Action: "classify"}},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		require.NoError(t, definitions.Save(ctx, definition))

		loaded, err := definitions.Load(ctx, "wf-1")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, "triage", loaded.Name)
		assert.Len(t, loaded.Steps, 1)

		definition.Name = "triage v2"
		require.NoError(t, definitions.Save(ctx, definition))
		loaded, err = definitions.Load(ctx, "wf-1")
		require.NoError(t, err)
		assert.Equal(t, "triage v2", loaded.Name)

		listed, err := definitions.List(ctx, dao.NewParameter("WorkspaceID", "ws-1"))
		require.NoError(t, err)
		assert.Len(t, listed, 1)

		missing, err := definitions.Load(ctx, "absent")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("versions unique per workflow", func(t *testing.T) {
		versions := NewVersions(store)
		require.NoError(t, versions.Save(ctx, &model.Version{ID: "v-1", WorkflowID: "wf-1", Number: 1, CreatedAt: now}))
		require.NoError(t, versions.Save(ctx, &model.Version{ID: "v-2", WorkflowID: "wf-1", Number: 2, CreatedAt: now}))

		err := versions.Save(ctx, &model.Version{ID: "v-3", WorkflowID: "wf-1", Number: 2, CreatedAt: now})
		assert.ErrorIs(t, err, dao.ErrConflict)

		listed, err := versions.List(ctx, dao.NewParameter("WorkflowID", "wf-1"))
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, 2, listed[0].Number)
	})

	t.Run("executions", func(t *testing.T) {
		executions := NewExecutions(store)
		exec := execution.New("ex-1", "wf-1", "ws-1", 3, map[string]interface{}{"source": "test"})
		require.NoError(t, executions.Save(ctx, exec))

		exec.Start()
		require.NoError(t, executions.Save(ctx, exec))

		loaded, err := executions.Load(ctx, "ex-1")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, execution.StateRunning, loaded.Status)
		assert.Equal(t, 3, loaded.TotalSteps)
	})

	t.Run("approvals conditional resolve", func(t *testing.T) {
		approvals := NewApprovals(store)
		action := &approval.PendingAction{
			ID:          "pa-1",
			WorkspaceID: "ws-1",
			ActionType:  "email.send",
			Status:      approval.StatusPending,
			CreatedAt:   now,
		}
		require.NoError(t, approvals.Save(ctx, action))

		action.Status = approval.StatusApproved
		require.NoError(t, approvals.Save(ctx, action))

		action.Status = approval.StatusRejected
		err := approvals.Save(ctx, action)
		assert.ErrorIs(t, err, dao.ErrConflict)

		loaded, err := approvals.Load(ctx, "pa-1")
		require.NoError(t, err)
		assert.Equal(t, approval.StatusApproved, loaded.Status)
	})

	t.Run("memories ordering", func(t *testing.T) {
		memories := NewMemories(store)
		low := &memory.Entry{ID: "m-1", WorkspaceID: "ws-1", Key: "a", Tier: memory.TierShortTerm, Importance: 10, CreatedAt: now, UpdatedAt: now}
		high := &memory.Entry{ID: "m-2", WorkspaceID: "ws-1", Key: "b", Tier: memory.TierLongTerm, Importance: 90, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, memories.Save(ctx, low))
		require.NoError(t, memories.Save(ctx, high))

		listed, err := memories.List(ctx, dao.NewParameter("WorkspaceID", "ws-1"))
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, "m-2", listed[0].ID)
	})
}
