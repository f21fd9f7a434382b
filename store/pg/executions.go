package pg

import (
	"context"

	"github.com/viant/agentspace/runtime/execution"
	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/service/dao/criteria"
)

// Executions is the relational execution store.
type Executions struct {
	store *Store
}

// NewExecutions creates an execution store on the given connection.
func NewExecutions(store *Store) *Executions {
	return &Executions{store: store}
}

// Save upserts an execution by id.
func (e *Executions) Save(ctx context.Context, exec *execution.Execution) error {
	if exec == nil {
		return dao.ErrNilEntity
	}
	data, err := marshalDocument(exec)
	if err != nil {
		return err
	}
	_, err = e.store.db.ExecContext(ctx, `
		INSERT INTO workflow_executions (id, workflow_id, workspace_id, status, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    data = EXCLUDED.data`,
		exec.ID, exec.WorkflowID, exec.WorkspaceID, exec.Status, data, exec.CreatedAt)
	return err
}

// Load returns an execution by id, or nil when absent.
func (e *Executions) Load(ctx context.Context, id string) (*execution.Execution, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	return loadDocument[execution.Execution](e.store.db,
		"SELECT id, data FROM workflow_executions WHERE id = $1", id)
}

// Delete removes an execution by id.
func (e *Executions) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	_, err := e.store.db.ExecContext(ctx, "DELETE FROM workflow_executions WHERE id = $1", id)
	return err
}

// List returns executions, narrowed by a WorkflowID or WorkspaceID parameter
// when present, newest first.
func (e *Executions) List(ctx context.Context, parameters ...*dao.Parameter) ([]*execution.Execution, error) {
	query := "SELECT id, data FROM workflow_executions"
	var args []interface{}
	if workflowID := criteria.Value("WorkflowID", parameters); workflowID != "" {
		query += " WHERE workflow_id = $1"
		args = append(args, workflowID)
	} else if workspace := criteria.Value("WorkspaceID", parameters); workspace != "" {
		query += " WHERE workspace_id = $1"
		args = append(args, workspace)
	}
	query += " ORDER BY created_at DESC"
	return listDocuments[execution.Execution](e.store.db, query, args...)
}
