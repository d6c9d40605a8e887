package model

import (
	"time"
)

// Role represents the role of a turn's author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged, ordered collection of content blocks representing
// a single user submission or assistant response.
type Turn struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Blocks    []ContentBlock `json:"blocks"`
	CreatedAt time.Time      `json:"created_at"`
}

// Clone returns a deep-enough copy of the turn: the block slice is copied so
// later folds into the original do not show through published snapshots.
// Payloads are never mutated after creation, so they are shared.
func (t Turn) Clone() Turn {
	blocks := make([]ContentBlock, len(t.Blocks))
	copy(blocks, t.Blocks)
	t.Blocks = blocks
	return t
}

// Find returns the first block of the given kind, or false.
func (t Turn) Find(kind BlockKind) (ContentBlock, bool) {
	for _, b := range t.Blocks {
		if b.Kind == kind {
			return b, true
		}
	}
	return ContentBlock{}, false
}

// Has reports whether the turn contains a block of the given kind.
func (t Turn) Has(kind BlockKind) bool {
	_, ok := t.Find(kind)
	return ok
}

// Kinds returns the ordered block kinds, mostly for tests and logging.
func (t Turn) Kinds() []BlockKind {
	kinds := make([]BlockKind, len(t.Blocks))
	for i, b := range t.Blocks {
		kinds[i] = b.Kind
	}
	return kinds
}
