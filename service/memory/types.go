// Package memory implements the shared memory service: durable, tiered
// key-value context shared across agents and workflow runs.
package memory

import "time"

// Tiers express intended retention; they are caller convention only, no
// automatic promotion or demotion happens between tiers.
const (
	TierShortTerm  = "short_term"
	TierMediumTerm = "medium_term"
	TierLongTerm   = "long_term"
)

// Categories classify what kind of knowledge an entry holds.
const (
	CategoryContext      = "context"
	CategoryPattern      = "pattern"
	CategoryPreference   = "preference"
	CategoryKnowledge    = "knowledge"
	CategoryRelationship = "relationship"
)

// Metadata carries provenance for an entry.
type Metadata struct {
	Source     string   `json:"source,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	RelatedIDs []string `json:"relatedIds,omitempty"`
}

// Entry is a single shared memory record. Its logical identity is
// (WorkspaceID, TeamID, AgentID, Key); storing to an existing identity
// overwrites the previous value.
type Entry struct {
	ID          string      `json:"id"`
	WorkspaceID string      `json:"workspaceId"`
	TeamID      string      `json:"teamId,omitempty"`
	AgentID     string      `json:"agentId,omitempty"`
	Tier        string      `json:"tier"`
	Category    string      `json:"category"`
	Key         string      `json:"key"`
	Value       interface{} `json:"value"`
	Metadata    *Metadata   `json:"metadata,omitempty"`
	// Importance ranks entries for retrieval, 0-100.
	Importance int        `json:"importance"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Identity returns the upsert key of the entry.
func (e *Entry) Identity() string {
	return e.WorkspaceID + "\x00" + e.TeamID + "\x00" + e.AgentID + "\x00" + e.Key
}

// IsExpired reports whether the entry is past its expiry as of now.
func (e *Entry) IsExpired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// Query narrows and pages memory retrieval.
type Query struct {
	TeamID        string `json:"teamId,omitempty"`
	AgentID       string `json:"agentId,omitempty"`
	Tier          string `json:"tier,omitempty"`
	Category      string `json:"category,omitempty"`
	KeyContains   string `json:"keyContains,omitempty"`
	MinImportance int    `json:"minImportance,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}
