package pg

import (
	"context"

	"github.com/viant/agentspace/service/approval"
	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/service/dao/criteria"
)

// Approvals is the relational pending action store. Resolution writes are
// conditional on the row still being pending, so a lost decision race
// surfaces as a conflict instead of silently overwriting the winner.
type Approvals struct {
	store *Store
}

// NewApprovals creates a pending action store on the given connection.
func NewApprovals(store *Store) *Approvals {
	return &Approvals{store: store}
}

// Save upserts an action by id. A resolving save, one that moves the action
// out of pending, only applies while the stored row is still pending and
// returns dao.ErrConflict otherwise.
func (a *Approvals) Save(ctx context.Context, action *approval.PendingAction) error {
	if action == nil {
		return dao.ErrNilEntity
	}
	data, err := marshalDocument(action)
	if err != nil {
		return err
	}
	if action.Status != approval.StatusPending {
		result, err := a.store.db.ExecContext(ctx, `
			UPDATE pending_actions
			SET status = $1, data = $2
			WHERE id = $3 AND status = $4`,
			action.Status, data, action.ID, approval.StatusPending)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			// Either missing or already resolved; an insert covers the first
			// case for callers persisting pre-resolved audit records.
			if existing, err := a.Load(ctx, action.ID); err != nil {
				return err
			} else if existing != nil {
				return dao.ErrConflict
			}
			return a.insert(ctx, action, data)
		}
		return nil
	}
	_, err = a.store.db.ExecContext(ctx, `
		INSERT INTO pending_actions (id, workspace_id, team_id, execution_id, status, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    data = EXCLUDED.data`,
		action.ID, action.WorkspaceID, action.TeamID, action.ExecutionID,
		action.Status, data, action.CreatedAt)
	return err
}

func (a *Approvals) insert(ctx context.Context, action *approval.PendingAction, data []byte) error {
	_, err := a.store.db.ExecContext(ctx, `
		INSERT INTO pending_actions (id, workspace_id, team_id, execution_id, status, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		action.ID, action.WorkspaceID, action.TeamID, action.ExecutionID,
		action.Status, data, action.CreatedAt)
	return err
}

// Load returns an action by id, or nil when absent.
func (a *Approvals) Load(ctx context.Context, id string) (*approval.PendingAction, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	return loadDocument[approval.PendingAction](a.store.db,
		"SELECT id, data FROM pending_actions WHERE id = $1", id)
}

// Delete removes an action by id.
func (a *Approvals) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	_, err := a.store.db.ExecContext(ctx, "DELETE FROM pending_actions WHERE id = $1", id)
	return err
}

// List returns actions, narrowed by a WorkspaceID or Status parameter when
// present, oldest first.
func (a *Approvals) List(ctx context.Context, parameters ...*dao.Parameter) ([]*approval.PendingAction, error) {
	query := "SELECT id, data FROM pending_actions"
	var args []interface{}
	if workspace := criteria.Value("WorkspaceID", parameters); workspace != "" {
		query += " WHERE workspace_id = $1"
		args = append(args, workspace)
	} else if status := criteria.Value("Status", parameters); status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY created_at ASC"
	return listDocuments[approval.PendingAction](a.store.db, query, args...)
}
