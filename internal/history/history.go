// Package history keeps bounded undo/redo stacks of quote snapshots.
package history

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Simplici0/quotecalc/internal/logger"
	"github.com/Simplici0/quotecalc/internal/metrics"
)

// DefaultDepth is the number of snapshots kept on each stack.
const DefaultDepth = 20

// Snapshotter reads and replaces the whole quotes document.
type Snapshotter interface {
	SnapshotQuotes(ctx context.Context) ([]byte, error)
	RestoreQuotes(ctx context.Context, snapshot []byte) error
}

type entry struct {
	quotes        []byte
	activeQuoteID string
}

// checkpoint is the stack state from just before the latest Capture.
type checkpoint struct {
	past, future []entry
}

// Manager records the quotes document before each mutation. Only quotes are
// covered; catalog changes are not undoable.
type Manager struct {
	mu        sync.Mutex
	src       Snapshotter
	depth     int
	log       *logger.Logger
	past      []entry
	future    []entry
	last      *checkpoint
	restoring atomic.Bool
}

// New returns a manager keeping at most depth entries per stack. A depth
// below one falls back to DefaultDepth.
func New(src Snapshotter, depth int, log *logger.Logger) *Manager {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Manager{src: src, depth: depth, log: log}
}

// Capture pushes the current quotes document. It does nothing while an undo
// or redo is being applied.
func (m *Manager) Capture(ctx context.Context, activeQuoteID string) error {
	// Checked before locking: a restore may call back in on the same goroutine.
	if m.restoring.Load() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, err := m.src.SnapshotQuotes(ctx)
	if err != nil {
		return fmt.Errorf("capture history: %w", err)
	}
	m.last = &checkpoint{past: m.past, future: m.future}
	m.past = push(m.past, entry{quotes: snap, activeQuoteID: activeQuoteID}, m.depth)
	m.future = nil
	metrics.HistoryOps.WithLabelValues("capture").Inc()
	return nil
}

// Undo restores the previous snapshot and returns the quote that was active
// when it was taken. ok is false when there is nothing to undo.
func (m *Manager) Undo(ctx context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.last = nil
	if len(m.past) == 0 {
		return "", false, nil
	}
	return m.step(ctx, &m.past, &m.future, "undo")
}

// Redo reapplies the most recently undone snapshot.
func (m *Manager) Redo(ctx context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.last = nil
	if len(m.future) == 0 {
		return "", false, nil
	}
	return m.step(ctx, &m.future, &m.past, "redo")
}

// step pops from one stack, saves the current state on the other and restores
// the popped snapshot. Both stacks are left as they were if anything fails.
func (m *Manager) step(ctx context.Context, from, to *[]entry, op string) (string, bool, error) {
	current, err := m.src.SnapshotQuotes(ctx)
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	prevFrom, prevTo := *from, *to
	target := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1 : len(*from)-1]
	*to = push(*to, entry{quotes: current, activeQuoteID: target.activeQuoteID}, m.depth)

	m.restoring.Store(true)
	err = m.src.RestoreQuotes(ctx, target.quotes)
	m.restoring.Store(false)
	if err != nil {
		*from, *to = prevFrom, prevTo
		m.log.Warn("history restore failed", "op", op, "err", err)
		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	metrics.HistoryOps.WithLabelValues(op).Inc()
	return target.activeQuoteID, true, nil
}

// Discard drops the entry pushed by the latest Capture and brings back the
// redo stack it cleared. Callers use it when the mutation that followed the
// capture was rejected. It is a no-op unless Capture was the last operation.
func (m *Manager) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return
	}
	m.past, m.future = m.last.past, m.last.future
	m.last = nil
	metrics.HistoryOps.WithLabelValues("discard").Inc()
}

// CanUndo reports whether Undo has a snapshot to restore.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past) > 0
}

// CanRedo reports whether Redo has a snapshot to restore.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.future) > 0
}

// push appends e, evicting the oldest entries beyond depth. It never writes
// into the backing array of s so callers can keep the old slice for rollback.
func push(s []entry, e entry, depth int) []entry {
	out := make([]entry, 0, len(s)+1)
	out = append(out, s...)
	out = append(out, e)
	if len(out) > depth {
		out = out[len(out)-depth:]
	}
	return out
}
