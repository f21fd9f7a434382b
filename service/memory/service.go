package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/viant/agentspace/internal/clock"
	"github.com/viant/agentspace/internal/idgen"
	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/service/dao/store"
)

// Service stores and retrieves shared memory entries. Writes are
// last-writer-wins on the logical identity; expired entries are invisible to
// queries but only removed by explicit delete.
type Service struct {
	entries dao.Service[string, Entry]

	// mux serializes upserts so two concurrent stores of the same identity
	// collapse into one record.
	mux sync.Mutex
}

func entryKey(e *Entry) string { return e.ID }

// New creates a memory service over the default in-memory store.
func New() *Service {
	return NewWithDAO(store.NewMemoryStore[string, Entry](entryKey))
}

// NewWithDAO creates a memory service over the supplied entry DAO.
func NewWithDAO(entries dao.Service[string, Entry]) *Service {
	return &Service{entries: entries}
}

// Store upserts an entry by its logical identity and returns the stored
// record. New identities get a fresh id and CreatedAt; existing ones keep
// both and refresh UpdatedAt.
func (s *Service) Store(ctx context.Context, entry *Entry) (*Entry, error) {
	if entry == nil {
		return nil, dao.ErrNilEntity
	}
	if entry.WorkspaceID == "" {
		return nil, fmt.Errorf("memory: workspaceId is required")
	}
	if entry.Key == "" {
		return nil, fmt.Errorf("memory: key is required")
	}
	if entry.Tier == "" {
		entry.Tier = TierShortTerm
	}
	switch entry.Tier {
	case TierShortTerm, TierMediumTerm, TierLongTerm:
	default:
		return nil, fmt.Errorf("memory: unknown tier %s", entry.Tier)
	}
	if entry.Importance < 0 || entry.Importance > 100 {
		return nil, fmt.Errorf("memory: importance %d out of range", entry.Importance)
	}

	now := clock.Now()
	s.mux.Lock()
	defer s.mux.Unlock()

	existing, err := s.lookupIdentity(ctx, entry)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	} else {
		entry.ID = idgen.New()
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if err = s.entries.Save(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Get returns an entry by id, scoped to the workspace.
func (s *Service) Get(ctx context.Context, workspaceID, id string) (*Entry, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	entry, err := s.entries.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.WorkspaceID != workspaceID {
		return nil, dao.ErrNotFound
	}
	return entry, nil
}

// Query returns matching unexpired entries ordered by importance descending,
// then most recently updated first.
func (s *Service) Query(ctx context.Context, workspaceID string, query *Query) ([]*Entry, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("memory: workspaceId is required")
	}
	if query == nil {
		query = &Query{}
	}
	all, err := s.entries.List(ctx)
	if err != nil {
		return nil, err
	}
	now := clock.Now()
	matched := make([]*Entry, 0, len(all))
	for _, e := range all {
		if e.WorkspaceID != workspaceID || e.IsExpired(now) {
			continue
		}
		if query.TeamID != "" && e.TeamID != query.TeamID {
			continue
		}
		if query.AgentID != "" && e.AgentID != query.AgentID {
			continue
		}
		if query.Tier != "" && e.Tier != query.Tier {
			continue
		}
		if query.Category != "" && e.Category != query.Category {
			continue
		}
		if query.KeyContains != "" && !strings.Contains(e.Key, query.KeyContains) {
			continue
		}
		if e.Importance < query.MinImportance {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Importance != matched[j].Importance {
			return matched[i].Importance > matched[j].Importance
		}
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	if query.Offset > 0 {
		if query.Offset >= len(matched) {
			return []*Entry{}, nil
		}
		matched = matched[query.Offset:]
	}
	if query.Limit > 0 && query.Limit < len(matched) {
		matched = matched[:query.Limit]
	}
	return matched, nil
}

// Delete removes an entry by id, scoped to the workspace. Deleting an
// already-absent entry reports ErrNotFound.
func (s *Service) Delete(ctx context.Context, workspaceID, id string) error {
	if _, err := s.Get(ctx, workspaceID, id); err != nil {
		return err
	}
	return s.entries.Delete(ctx, id)
}

func (s *Service) lookupIdentity(ctx context.Context, entry *Entry) (*Entry, error) {
	all, err := s.entries.List(ctx)
	if err != nil {
		return nil, err
	}
	identity := entry.Identity()
	for _, e := range all {
		if e.Identity() == identity {
			return e, nil
		}
	}
	return nil, nil
}
