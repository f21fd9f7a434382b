package pg

import (
	"context"

	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/service/dao/criteria"
	"github.com/viant/agentspace/service/memory"
)

// Memories is the relational memory entry store. A unique index on the
// logical identity backstops the service-level upsert serialization.
type Memories struct {
	store *Store
}

// NewMemories creates a memory entry store on the given connection.
func NewMemories(store *Store) *Memories {
	return &Memories{store: store}
}

// Save upserts an entry by id.
func (m *Memories) Save(ctx context.Context, entry *memory.Entry) error {
	if entry == nil {
		return dao.ErrNilEntity
	}
	data, err := marshalDocument(entry)
	if err != nil {
		return err
	}
	_, err = m.store.db.ExecContext(ctx, `
		INSERT INTO memory_entries (id, workspace_id, identity, tier, importance, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE
		SET identity = EXCLUDED.identity,
		    tier = EXCLUDED.tier,
		    importance = EXCLUDED.importance,
		    data = EXCLUDED.data,
		    updated_at = EXCLUDED.updated_at`,
		entry.ID, entry.WorkspaceID, entry.Identity(), entry.Tier, entry.Importance,
		data, entry.CreatedAt, entry.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return dao.ErrConflict
	}
	return err
}

// Load returns an entry by id, or nil when absent.
func (m *Memories) Load(ctx context.Context, id string) (*memory.Entry, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	return loadDocument[memory.Entry](m.store.db,
		"SELECT id, data FROM memory_entries WHERE id = $1", id)
}

// Delete removes an entry by id.
func (m *Memories) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	_, err := m.store.db.ExecContext(ctx, "DELETE FROM memory_entries WHERE id = $1", id)
	return err
}

// List returns entries, narrowed by a WorkspaceID parameter when present,
// highest importance first.
func (m *Memories) List(ctx context.Context, parameters ...*dao.Parameter) ([]*memory.Entry, error) {
	query := "SELECT id, data FROM memory_entries"
	var args []interface{}
	if workspace := criteria.Value("WorkspaceID", parameters); workspace != "" {
		query += " WHERE workspace_id = $1"
		args = append(args, workspace)
	}
	query += " ORDER BY importance DESC, updated_at DESC"
	return listDocuments[memory.Entry](m.store.db, query, args...)
}
