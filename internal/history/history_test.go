package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/quotecalc/internal/kv"
	"github.com/Simplici0/quotecalc/internal/logger"
	"github.com/Simplici0/quotecalc/internal/repository"
)

func newRepo() *repository.Repository {
	return repository.New(kv.NewMemory(), logger.Nop())
}

func snapshot(t *testing.T, repo *repository.Repository) string {
	t.Helper()
	raw, err := repo.SnapshotQuotes(context.Background())
	require.NoError(t, err)
	return string(raw)
}

func TestUndoRedoIsInverse(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	h := New(repo, 20, logger.Nop())

	require.NoError(t, h.Capture(ctx, ""))
	q, err := repo.CreateQuote(ctx, "Bracket")
	require.NoError(t, err)
	afterCreate := snapshot(t, repo)

	require.NoError(t, h.Capture(ctx, q.ID))
	_, err = repo.RenameQuote(ctx, q.ID, "Bracket v2")
	require.NoError(t, err)
	afterRename := snapshot(t, repo)

	active, ok, err := h.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, q.ID, active)
	assert.JSONEq(t, afterCreate, snapshot(t, repo))

	_, ok, err = h.Redo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, afterRename, snapshot(t, repo))

	_, ok, err = h.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = h.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, "[]", snapshot(t, repo))

	_, ok, err = h.Undo(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "nothing left to undo")
	assert.True(t, h.CanRedo())
}

func TestCaptureClearsFuture(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	h := New(repo, 20, logger.Nop())

	require.NoError(t, h.Capture(ctx, ""))
	_, err := repo.CreateQuote(ctx, "A")
	require.NoError(t, err)

	_, _, err = h.Undo(ctx)
	require.NoError(t, err)
	require.True(t, h.CanRedo())

	require.NoError(t, h.Capture(ctx, ""))
	assert.False(t, h.CanRedo())

	_, ok, err := h.Redo(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCaptureEvictsOldest(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	h := New(repo, 3, logger.Nop())

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Capture(ctx, ""))
		_, err := repo.CreateQuote(ctx, "")
		require.NoError(t, err)
	}

	undone := 0
	for {
		_, ok, err := h.Undo(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		undone++
	}
	assert.Equal(t, 3, undone)

	list, err := repo.Quotes(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2, "the two oldest captures were evicted")
}

// recapturing calls back into the manager from RestoreQuotes, as an auto-save
// or mutation hook would.
type recapturing struct {
	*repository.Repository
	h *Manager
}

func (r *recapturing) RestoreQuotes(ctx context.Context, snapshot []byte) error {
	if err := r.h.Capture(ctx, "from-restore"); err != nil {
		return err
	}
	return r.Repository.RestoreQuotes(ctx, snapshot)
}

func TestRestoreDoesNotRecordHistory(t *testing.T) {
	ctx := context.Background()
	src := &recapturing{Repository: newRepo()}
	h := New(src, 20, logger.Nop())
	src.h = h

	require.NoError(t, h.Capture(ctx, ""))
	_, err := src.CreateQuote(ctx, "A")
	require.NoError(t, err)

	_, ok, err := h.Undo(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	assert.False(t, h.CanUndo())
	assert.True(t, h.CanRedo())
}

type brokenRestore struct {
	*repository.Repository
}

func (brokenRestore) RestoreQuotes(context.Context, []byte) error {
	return errors.New("disk full")
}

func TestFailedRestoreKeepsStacks(t *testing.T) {
	ctx := context.Background()
	src := brokenRestore{newRepo()}
	h := New(src, 20, logger.Nop())

	require.NoError(t, h.Capture(ctx, ""))

	_, ok, err := h.Undo(ctx)
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestDiscardRestoresRedo(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	h := New(repo, 20, logger.Nop())

	require.NoError(t, h.Capture(ctx, ""))
	_, err := repo.CreateQuote(ctx, "A")
	require.NoError(t, err)
	_, _, err = h.Undo(ctx)
	require.NoError(t, err)
	require.True(t, h.CanRedo())

	// A capture whose mutation was rejected.
	require.NoError(t, h.Capture(ctx, ""))
	require.False(t, h.CanRedo())
	h.Discard()

	assert.False(t, h.CanUndo())
	assert.True(t, h.CanRedo())

	_, ok, err := h.Redo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	list, err := repo.Quotes(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDiscardRestoresEvictedEntry(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	h := New(repo, 2, logger.Nop())

	for i := 0; i < 2; i++ {
		require.NoError(t, h.Capture(ctx, ""))
		_, err := repo.CreateQuote(ctx, "")
		require.NoError(t, err)
	}
	require.NoError(t, h.Capture(ctx, ""))
	h.Discard()

	for i := 0; i < 2; i++ {
		_, ok, err := h.Undo(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.JSONEq(t, "[]", snapshot(t, repo), "the oldest entry survived the discarded capture")
}

func TestDiscardOnlyAfterCapture(t *testing.T) {
	ctx := context.Background()
	repo := newRepo()
	h := New(repo, 20, logger.Nop())

	require.NoError(t, h.Capture(ctx, ""))
	_, err := repo.CreateQuote(ctx, "A")
	require.NoError(t, err)
	_, _, err = h.Undo(ctx)
	require.NoError(t, err)

	h.Discard()
	assert.True(t, h.CanRedo())
	assert.False(t, h.CanUndo())
}
