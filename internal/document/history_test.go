package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_UndoRedo(t *testing.T) {
	h := NewHistory(0)
	h.Record("p", "v1")
	h.Record("p", "v2")
	h.Record("p", "v3")

	got, ok := h.Undo("p")
	assert.True(t, ok)
	assert.Equal(t, "v2", got)

	got, ok = h.Undo("p")
	assert.True(t, ok)
	assert.Equal(t, "v1", got)

	_, ok = h.Undo("p")
	assert.False(t, ok)

	got, ok = h.Redo("p")
	assert.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestHistory_RecordDropsRedoBranch(t *testing.T) {
	h := NewHistory(10)
	h.Record("p", "v1")
	h.Record("p", "v2")
	h.Undo("p")
	h.Record("p", "v3")

	assert.False(t, h.CanRedo("p"))
	got, _ := h.Undo("p")
	assert.Equal(t, "v1", got)
}

func TestHistory_DuplicateSnapshotIgnored(t *testing.T) {
	h := NewHistory(10)
	h.Record("p", "v1")
	h.Record("p", "v1")
	assert.False(t, h.CanUndo("p"))
}

func TestHistory_Depth(t *testing.T) {
	h := NewHistory(2)
	h.Record("p", "v1")
	h.Record("p", "v2")
	h.Record("p", "v3")

	got, ok := h.Undo("p")
	assert.True(t, ok)
	assert.Equal(t, "v2", got)
	_, ok = h.Undo("p")
	assert.False(t, ok)
}

func TestHistory_Forget(t *testing.T) {
	h := NewHistory(10)
	h.Record("p", "v1")
	h.Record("p", "v2")
	h.Forget("p")
	assert.False(t, h.CanUndo("p"))
	_, ok := h.Redo("unknown")
	assert.False(t, ok)
}

func TestHistory_SplitStep(t *testing.T) {
	h := NewHistory(0)
	h.Record("p", "<p>a</p>")
	cont := Page{ID: "c", Content: "<p>b</p>"}
	h.RecordSplit("p", "<p>a</p><p>b</p>", "<p>a</p>", cont)

	step, ok := h.UndoStep("p")
	require.True(t, ok)
	assert.Equal(t, "<p>a</p><p>b</p>", step.Content)
	assert.Equal(t, "<p>a</p>", step.Left)
	require.NotNil(t, step.Continuation)
	assert.Equal(t, cont, *step.Continuation)

	step, ok = h.UndoStep("p")
	require.True(t, ok)
	assert.Equal(t, "<p>a</p>", step.Content)
	assert.Nil(t, step.Continuation)

	h.RedoStep("p")
	step, ok = h.RedoStep("p")
	require.True(t, ok)
	assert.Equal(t, "<p>a</p>", step.Content)
	assert.Equal(t, &cont, step.Continuation)

	assert.False(t, h.CanUndo("c"), "the continuation starts a fresh history")
}
