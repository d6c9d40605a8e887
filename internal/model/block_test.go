package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextBlockRoundTrip(t *testing.T) {
	b := TextBlock("how many courses?")

	assert.Equal(t, BlockText, b.Kind)
	assert.Equal(t, "how many courses?", b.Text())
}

func TestTextOnNonTextBlock(t *testing.T) {
	b := NewBlock(BlockAnalysis, json.RawMessage(`{"summary":"x"}`))
	assert.Empty(t, b.Text())
}

func TestErrorBlock(t *testing.T) {
	b := ErrorBlock("Connection Error", "backend unreachable")

	var payload ErrorPayload
	require.NoError(t, b.Decode(&payload))
	assert.Equal(t, "Connection Error", payload.Message)
	assert.Equal(t, "backend unreachable", payload.Details)
}

func TestSQLPayloadStatement(t *testing.T) {
	plain := SQLPayload{SQL: "SELECT 1"}
	assert.Equal(t, "SELECT 1", plain.Statement())
	assert.False(t, plain.IsRetry())

	retried := SQLPayload{SQL: "SELECT broken", CorrectedSQL: "SELECT fixed"}
	assert.Equal(t, "SELECT fixed", retried.Statement())
	assert.True(t, retried.IsRetry())
}

func TestDataPayloadRows(t *testing.T) {
	preview := DataPayload{Preview: []map[string]any{{"a": 1}}}
	assert.Len(t, preview.Rows(), 1)

	// A full data field wins over the preview.
	both := DataPayload{
		Preview: []map[string]any{{"a": 1}},
		Data:    []map[string]any{{"a": 1}, {"a": 2}},
	}
	assert.Len(t, both.Rows(), 2)
}

func TestTurnCloneIsolatesBlocks(t *testing.T) {
	turn := Turn{
		ID:     "t-1",
		Role:   RoleAssistant,
		Blocks: []ContentBlock{TextBlock("a")},
	}

	clone := turn.Clone()
	clone.Blocks[0] = TextBlock("b")

	assert.Equal(t, "a", turn.Blocks[0].Text())
}

func TestTurnFindAndKinds(t *testing.T) {
	turn := Turn{Blocks: []ContentBlock{
		NewBlock(BlockSQL, json.RawMessage(`{}`)),
		NewBlock(BlockData, json.RawMessage(`{}`)),
	}}

	_, ok := turn.Find(BlockSQL)
	assert.True(t, ok)
	assert.False(t, turn.Has(BlockChart))
	assert.Equal(t, []BlockKind{BlockSQL, BlockData}, turn.Kinds())
}
