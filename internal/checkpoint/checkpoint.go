// Package checkpoint coordinates the host's step-based undo history with
// the retime session, and supplies the separate full-revert cancel path.
// The manager counts the checkpoints it has pushed since activation so
// the host can never be asked to undo past the tool's own start.
package checkpoint

import (
	"log/slog"

	"github.com/animtools/timewarp/internal/cache"
	"github.com/animtools/timewarp/internal/landmark"
	"github.com/animtools/timewarp/internal/provider"
	"github.com/animtools/timewarp/internal/snapshot"
)

// History is the host's undo primitive.
type History interface {
	// Push records a named checkpoint.
	Push(label string)

	// Undo steps the host back one checkpoint.
	Undo()

	// PushIgnore records a checkpoint the host discards on merge, used
	// to unwind the tool's own entries at teardown.
	PushIgnore()
}

// undoFloor is the checkpoint count reserved for the activation
// boundary. Undo is refused at or below it.
const undoFloor = 2

// Manager tracks checkpoints pushed by one retime session.
type Manager struct {
	history History
	counter cache.SafeCounter
	log     *slog.Logger
}

// NewManager creates a checkpoint manager over the host history.
func NewManager(history History, log *slog.Logger) *Manager {
	return &Manager{
		history: history,
		log:     log,
	}
}

// Count returns the number of checkpoints pushed since activation.
func (m *Manager) Count() int {
	return m.counter.Value()
}

// Start pushes the activation checkpoint.
func (m *Manager) Start() {
	m.history.Push("retime: activate")
	m.counter.Inc()
}

// Commit pushes one checkpoint for a completed drag or structural edit.
func (m *Manager) Commit(label string) {
	m.history.Push(label)
	m.counter.Inc()
	m.log.Debug("Checkpoint committed", "label", label, "depth", m.counter.Value())
}

// Undo steps the host back one checkpoint, refusing to cross the
// activation boundary while the tool is active. Returns whether an undo
// was performed.
func (m *Manager) Undo() bool {
	if m.counter.Value() <= undoFloor {
		m.log.Debug("Undo refused at activation floor", "depth", m.counter.Value())
		return false
	}
	m.history.Undo()
	m.counter.Dec()
	return true
}

// Teardown unwinds the tool's checkpoints so its internal history does
// not leak into the host's permanent undo stack after the tool closes.
func (m *Manager) Teardown() {
	n := m.counter.Value()
	for i := 0; i < n; i++ {
		m.history.PushIgnore()
	}
	m.counter.Set(0)
	m.log.Debug("Checkpoints unwound", "count", n)
}

// HardRevert restores every sample, marker, and pin to the values
// captured before the session began. It bypasses Undo entirely; nothing
// is pushed or popped on the host history.
func (m *Manager) HardRevert(
	sess *snapshot.SessionSnapshot,
	channels provider.ChannelProvider,
	markers provider.MarkerProvider,
	table *landmark.Table,
) error {
	if err := sess.Restore(channels, markers); err != nil {
		return err
	}
	table.Restore(sess.Pins, sess.Easings)
	m.log.Info("Session hard-reverted", "samples", len(sess.Samples), "pins", len(sess.Pins))
	return nil
}
