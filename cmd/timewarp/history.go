package main

import (
	"log/slog"

	"github.com/animtools/timewarp/internal/provider/memory"
	"github.com/animtools/timewarp/internal/session"
	"github.com/animtools/timewarp/internal/snapshot"
	"github.com/animtools/timewarp/pkg/core"
)

type historyEntry struct {
	label  string
	snap   *snapshot.SessionSnapshot
	ignore bool
}

// documentHistory is the CLI's stand-in for the host application's undo
// stack. Each checkpoint captures the whole document plus the landmark
// table; stepping back restores the entry below the top.
type documentHistory struct {
	doc   *memory.Document
	sess  *session.Session
	log   *slog.Logger
	stack []historyEntry
}

func newDocumentHistory(doc *memory.Document, log *slog.Logger) *documentHistory {
	return &documentHistory{doc: doc, log: log}
}

// Bind attaches the session whose landmarks ride along with each
// checkpoint. Called once after session construction.
func (h *documentHistory) Bind(s *session.Session) {
	h.sess = s
}

func (h *documentHistory) capture() (*snapshot.SessionSnapshot, error) {
	res, err := h.doc.Resolve(core.ScopeWholeTimeline)
	if err != nil {
		return nil, err
	}
	var pins []core.Pin
	var easings []core.EasingRecord
	if h.sess != nil {
		pins = h.sess.Pins()
		easings = h.sess.Easings()
	}
	return snapshot.CaptureSession(res, h.doc, h.doc, pins, easings)
}

func (h *documentHistory) Push(label string) {
	snap, err := h.capture()
	if err != nil {
		h.log.Error("History checkpoint failed", "label", label, "error", err)
		return
	}
	h.stack = append(h.stack, historyEntry{label: label, snap: snap})
	h.log.Debug("History checkpoint", "label", label, "depth", len(h.stack))
}

func (h *documentHistory) PushIgnore() {
	h.stack = append(h.stack, historyEntry{ignore: true})
}

func (h *documentHistory) Undo() {
	for len(h.stack) > 0 && h.stack[len(h.stack)-1].ignore {
		h.stack = h.stack[:len(h.stack)-1]
	}
	if len(h.stack) < 2 {
		return
	}

	h.stack = h.stack[:len(h.stack)-1]
	top := h.stack[len(h.stack)-1]
	if err := top.snap.Restore(h.doc, h.doc); err != nil {
		h.log.Error("History restore failed", "label", top.label, "error", err)
		return
	}
	if h.sess != nil {
		h.sess.RestoreLandmarks(top.snap.Pins, top.snap.Easings)
	}
	h.log.Debug("History stepped back", "to", top.label, "depth", len(h.stack))
}
