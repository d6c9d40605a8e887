package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/datalens-ai/analytics-console/internal/dispatch"
	"github.com/datalens-ai/analytics-console/internal/model"
)

// turnBuilder accumulates the content blocks of one assistant turn. One
// builder exists per request; it is bound to that request's token so a stale
// stream can never fold into a newer turn.
type turnBuilder struct {
	turn    model.Turn
	started bool
	now     func() time.Time
}

func newTurnBuilder(now func() time.Time) *turnBuilder {
	return &turnBuilder{now: now}
}

// apply folds one instruction into the turn. The turn itself is created
// lazily on the first block.
func (b *turnBuilder) apply(instr dispatch.Instruction) {
	if !b.started {
		b.turn = model.Turn{
			ID:        uuid.Must(uuid.NewV7()).String(),
			Role:      model.RoleAssistant,
			CreatedAt: b.now(),
		}
		b.started = true
	}

	if instr.Fold == dispatch.ReplaceKind {
		b.removeKind(instr.Block.Kind)
	}
	b.turn.Blocks = append(b.turn.Blocks, instr.Block)
}

// applyError folds a transport error block, creating the turn if no other
// block arrived first.
func (b *turnBuilder) applyError(block model.ContentBlock) {
	b.apply(dispatch.Instruction{Block: block})
}

// finalize strips any residual thinking block. A finished turn never shows a
// thinking indicator.
func (b *turnBuilder) finalize() {
	if b.started {
		b.removeKind(model.BlockThinking)
	}
}

func (b *turnBuilder) removeKind(kind model.BlockKind) {
	kept := b.turn.Blocks[:0]
	for _, blk := range b.turn.Blocks {
		if blk.Kind != kind {
			kept = append(kept, blk)
		}
	}
	b.turn.Blocks = kept
}

// snapshot returns an immutable copy of the in-progress turn.
func (b *turnBuilder) snapshot() (model.Turn, bool) {
	if !b.started {
		return model.Turn{}, false
	}
	return b.turn.Clone(), true
}
