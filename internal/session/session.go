// Package session owns one activation of the retiming tool: the landmark
// table, the drag controller, the activation snapshot, and the checkpoint
// manager, bundled behind a single object that is passed by reference.
// Nothing in here is a package-level singleton; two sessions can exist in
// one process without sharing state.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/animtools/timewarp/internal/checkpoint"
	"github.com/animtools/timewarp/internal/config"
	"github.com/animtools/timewarp/internal/drag"
	"github.com/animtools/timewarp/internal/landmark"
	"github.com/animtools/timewarp/internal/model"
	"github.com/animtools/timewarp/internal/provider"
	"github.com/animtools/timewarp/internal/remap"
	"github.com/animtools/timewarp/internal/scope"
	"github.com/animtools/timewarp/internal/snapshot"
	"github.com/animtools/timewarp/internal/storage"
	"github.com/animtools/timewarp/internal/telemetry"
	"github.com/animtools/timewarp/pkg/core"
)

// ErrNotActive is returned when an edit arrives before Activate or after
// the session has ended.
var ErrNotActive = errors.New("session not active")

// ErrAlreadyActive is returned when Activate is called twice.
var ErrAlreadyActive = errors.New("session already active")

// Dependencies holds everything a session needs from the outside.
// Storage and Telemetry are optional; a nil backend disables persistence
// without changing edit behavior.
type Dependencies struct {
	Channels  provider.ChannelProvider
	Markers   provider.MarkerProvider
	Resolver  scope.Resolver
	History   checkpoint.History
	Storage   storage.Backend
	Telemetry *telemetry.Manager
	Log       *slog.Logger

	Project string
	Clip    string
}

// Session is one tool activation.
type Session struct {
	id   uuid.UUID
	deps Dependencies
	cfg  config.ToolConfig

	table       *landmark.Table
	engine      *remap.Engine
	res         scope.Resolution
	controller  *drag.Controller
	checkpoints *checkpoint.Manager
	base        *snapshot.SessionSnapshot
	row         *model.SessionRow
	active      bool
}

// New creates an inactive session.
func New(deps Dependencies, cfg config.ToolConfig) *Session {
	return &Session{
		id:    uuid.New(),
		deps:  deps,
		cfg:   cfg,
		table: landmark.NewTable(),
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id.String()
}

// Active reports whether the session is between Activate and Commit/Cancel.
func (s *Session) Active() bool {
	return s.active
}

// Pins returns the current landmark set.
func (s *Session) Pins() []core.Pin {
	return s.table.Pins()
}

// Easings returns the current per-segment easing records.
func (s *Session) Easings() []core.EasingRecord {
	return s.table.Easings()
}

// Dragging reports whether a drag gesture is in progress.
func (s *Session) Dragging() bool {
	return s.controller != nil && s.controller.State() == drag.StateDragging
}

// CheckpointDepth returns the number of checkpoints this session has
// pushed on the host history.
func (s *Session) CheckpointDepth() int {
	if s.checkpoints == nil {
		return 0
	}
	return s.checkpoints.Count()
}

// LastStats returns the cost of the most recent recompute.
func (s *Session) LastStats() remap.Stats {
	if s.controller == nil {
		return remap.Stats{}
	}
	return s.controller.LastStats()
}

// Activate resolves the scope, captures the activation snapshot, seeds
// one landmark per distinct sample time, and pushes the start checkpoint.
// An empty scope aborts with nothing mutated.
func (s *Session) Activate(sc core.Scope) error {
	if s.active {
		return ErrAlreadyActive
	}

	res, err := s.deps.Resolver.Resolve(sc)
	if err != nil {
		return fmt.Errorf("resolving scope %s: %w", sc, err)
	}
	if res.Empty() {
		return scope.ErrEmptyScope
	}
	s.res = res

	// The activation snapshot is taken before any pins exist, so a later
	// hard revert clears seeded pins along with every sample time.
	base, err := snapshot.CaptureSession(res, s.deps.Channels, s.deps.Markers, nil, nil)
	if err != nil {
		return fmt.Errorf("capturing activation snapshot: %w", err)
	}
	s.base = base

	s.seedPins()

	s.engine = remap.New(s.deps.Channels, s.deps.Markers, s.cfg.SnapToWholeUnits)
	s.controller = drag.NewController(
		s.table, s.engine, s.deps.Channels, s.deps.Markers, res,
		drag.Config{
			SnapToWholeUnits: s.cfg.SnapToWholeUnits,
			RealtimeUpdates:  s.cfg.RealtimeUpdates,
			IncludeMarkers:   s.cfg.IncludeMarkers,
		},
		s.deps.Log,
	)
	s.checkpoints = checkpoint.NewManager(s.deps.History, s.deps.Log)
	s.checkpoints.Start()

	s.row = &model.SessionRow{
		SessionUID: s.id.String(),
		Project:    s.deps.Project,
		Clip:       s.deps.Clip,
		Scope:      sc.String(),
		StartTime:  time.Now(),
	}
	if s.deps.Storage != nil {
		if err := s.deps.Storage.StartSession(s.row); err != nil {
			s.deps.Log.Warn("Session storage unavailable", "error", err)
		} else {
			s.persistLandmarks()
		}
	}

	s.active = true
	s.deps.Log.Info("Session activated",
		"session", s.id, "scope", sc, "samples", len(res.Samples), "pins", s.table.Len())
	return nil
}

// seedPins adds one landmark per distinct sample time in scope. Times
// inside the minimum gap of an existing pin are absorbed by it.
func (s *Session) seedPins() {
	for _, ref := range s.res.Samples {
		t, err := s.deps.Channels.Time(ref)
		if err != nil {
			s.deps.Log.Warn("Skipping unreadable sample during seeding", "sample", ref, "error", err)
			continue
		}
		if _, err := s.table.Add(t); err != nil && !errors.Is(err, landmark.ErrPinTooClose) {
			s.deps.Log.Warn("Seeding pin failed", "time", t, "error", err)
		}
	}
}

// Press starts a drag gesture.
func (s *Session) Press(target drag.Target, t float64, mods core.Modifiers) error {
	if !s.active {
		return ErrNotActive
	}
	return s.controller.Press(target, t, mods)
}

// Move advances a drag gesture.
func (s *Session) Move(t float64, mods core.Modifiers) error {
	if !s.active {
		return ErrNotActive
	}
	return s.controller.Move(t, mods)
}

// Release finishes a drag gesture, pushes its commit checkpoint, and
// persists the result. Returns the commit label, or "" if no drag was in
// progress.
func (s *Session) Release(t float64, mods core.Modifiers) (string, error) {
	if !s.active {
		return "", ErrNotActive
	}

	label, err := s.controller.Release(t, mods)
	if err != nil || label == "" {
		return "", err
	}

	if s.cfg.IncludeMarkers && s.cfg.RenameMarkersOnCommit {
		s.renameMarkers()
	}

	s.commit(label)
	return label, nil
}

// commit pushes the checkpoint and records the edit everywhere it is
// tracked: host history, storage, telemetry.
func (s *Session) commit(label string) {
	s.checkpoints.Commit(label)

	if s.deps.Storage != nil {
		s.persistLandmarks()
		if err := s.deps.Storage.RecordCommit(label, s.table.Len()); err != nil {
			s.deps.Log.Warn("Recording commit failed", "error", err)
		}
		stats := s.LastStats()
		if err := s.deps.Storage.RecordPerformance(&model.RetimePerformance{
			Time:              time.Now(),
			SampleCount:       stats.Samples,
			MarkerCount:       stats.Markers,
			PinCount:          s.table.Len(),
			RecomputeDuration: float32(stats.Duration.Microseconds()) / 1000.0,
		}); err != nil {
			s.deps.Log.Warn("Recording performance failed", "error", err)
		}
	}

	if s.deps.Telemetry != nil {
		s.deps.Telemetry.RecordRecompute(s.id.String(), s.table.Len(), s.LastStats())
		s.deps.Telemetry.RecordCommit(s.id.String(), label, s.table.Len())
	}
}

func (s *Session) persistLandmarks() {
	if err := s.deps.Storage.SaveLandmarks(s.table.Pins(), s.table.Easings()); err != nil {
		s.deps.Log.Warn("Persisting landmarks failed", "error", err)
	}
}

// trailingNumber matches a marker name's time suffix, e.g. "cut_40".
var trailingNumber = regexp.MustCompile(`_\d+(\.\d+)?$`)

// renameMarkers rewrites each in-scope marker's time suffix to its new
// time, so "cut_40" follows its marker to "cut_48".
func (s *Session) renameMarkers() {
	for _, ref := range s.res.Markers {
		name, err := s.deps.Markers.Name(ref)
		if err != nil {
			continue
		}
		t, err := s.deps.Markers.MarkerTime(ref)
		if err != nil {
			continue
		}

		// Only suffixed names participate; a marker named "intro"
		// keeps its name.
		if !trailingNumber.MatchString(name) {
			continue
		}
		base := trailingNumber.ReplaceAllString(name, "")
		if base == "" {
			continue
		}
		base = strings.TrimSuffix(base, "_")
		newName := fmt.Sprintf("%s_%d", base, int(math.Round(t)))
		if newName == name {
			continue
		}
		if err := s.deps.Markers.Rename(ref, newName); err != nil {
			s.deps.Log.Warn("Renaming marker failed", "marker", ref, "error", err)
		}
	}
}

// AddPinAtPointer adds a landmark at the pointer time.
func (s *Session) AddPinAtPointer(t float64) (core.PinID, error) {
	return s.addPin(t, "pointer")
}

// AddPinAtPlayhead adds a landmark at the playhead time.
func (s *Session) AddPinAtPlayhead(t float64) (core.PinID, error) {
	return s.addPin(t, "playhead")
}

func (s *Session) addPin(t float64, source string) (core.PinID, error) {
	if !s.active {
		return 0, ErrNotActive
	}

	id, err := s.table.Add(t)
	if err != nil {
		return 0, err
	}
	s.deps.Log.Debug("Pin added", "pin", id, "time", t, "source", source)
	s.commit("retime: add pin")
	return id, nil
}

// DeletePin removes one landmark. Sample times are untouched; only the
// future mapping changes.
func (s *Session) DeletePin(id core.PinID) error {
	if !s.active {
		return ErrNotActive
	}

	if err := s.table.Remove(id); err != nil {
		return err
	}
	s.commit("retime: delete pin")
	return nil
}

// DeleteAllPins clears the landmark table.
func (s *Session) DeleteAllPins() error {
	if !s.active {
		return ErrNotActive
	}

	s.table.RemoveAll()
	s.commit("retime: delete all pins")
	return nil
}

// SetEasing sets a segment's easing bias persistently and recomputes the
// segment's samples against a fresh snapshot. Unlike the ease-handle
// drag, the bias stays until changed again.
func (s *Session) SetEasing(segment int, bias float64) error {
	if !s.active {
		return ErrNotActive
	}

	snap, err := s.opSnapshot()
	if err != nil {
		return err
	}
	if err := s.table.SetEasing(segment, bias); err != nil {
		return err
	}
	if _, err := s.engine.Recompute(snap, s.table.Pins(), s.table.Easings()); err != nil {
		return err
	}
	s.commit("retime: ease segment")
	return nil
}

// Redistribute spaces interior landmarks evenly between the outer two
// and recomputes.
func (s *Session) Redistribute() error {
	if !s.active {
		return ErrNotActive
	}
	if s.table.Len() < 3 {
		return nil
	}

	snap, err := s.opSnapshot()
	if err != nil {
		return err
	}
	s.table.Redistribute()
	if _, err := s.engine.Recompute(snap, s.table.Pins(), s.table.Easings()); err != nil {
		return err
	}
	s.commit("retime: redistribute")
	return nil
}

// opSnapshot captures the per-operation snapshot for a structural edit.
func (s *Session) opSnapshot() (*snapshot.Snapshot, error) {
	includeMarkers := s.cfg.IncludeMarkers && s.deps.Markers != nil
	snap, err := snapshot.Capture(s.res, s.deps.Channels, s.deps.Markers, s.table.Pins(), includeMarkers)
	if err != nil {
		return nil, fmt.Errorf("capturing operation snapshot: %w", err)
	}
	return snap, nil
}

// RestoreLandmarks replaces the landmark table contents. Host undo
// implementations that checkpoint tool state alongside scene state call
// this when stepping back.
func (s *Session) RestoreLandmarks(pins []core.Pin, easings []core.EasingRecord) {
	s.table.Restore(pins, easings)
}

// Undo steps the host history back one checkpoint. The activation
// boundary is never crossed. Returns whether an undo was performed.
func (s *Session) Undo() bool {
	if !s.active {
		return false
	}
	return s.checkpoints.Undo()
}

// Cancel abandons the session: any active drag is dropped and every
// sample, marker, and pin is restored from the activation snapshot,
// bypassing the host undo history.
func (s *Session) Cancel() error {
	if !s.active {
		return ErrNotActive
	}

	s.controller.Abort()
	if err := s.checkpoints.HardRevert(s.base, s.deps.Channels, s.deps.Markers, s.table); err != nil {
		return fmt.Errorf("hard revert failed: %w", err)
	}
	s.teardown(false)
	s.deps.Log.Info("Session cancelled", "session", s.id)
	return nil
}

// Commit accepts the retimed result and ends the session.
func (s *Session) Commit() error {
	if !s.active {
		return ErrNotActive
	}

	if s.deps.Storage != nil {
		s.persistLandmarks()
		if err := s.deps.Storage.RecordCommit("retime: commit", s.table.Len()); err != nil {
			s.deps.Log.Warn("Recording final commit failed", "error", err)
		}
	}
	s.teardown(true)
	s.deps.Log.Info("Session committed", "session", s.id)
	return nil
}

// teardown clears the landmark table, unwinds the session's checkpoints
// from the host history, and finalizes storage and telemetry.
func (s *Session) teardown(committed bool) {
	s.table.RemoveAll()
	s.checkpoints.Teardown()

	if s.deps.Storage != nil {
		if !committed {
			if err := s.deps.Storage.ClearLandmarks(); err != nil {
				s.deps.Log.Warn("Clearing stored landmarks failed", "error", err)
			}
		}
		if err := s.deps.Storage.EndSession(committed); err != nil {
			s.deps.Log.Warn("Ending stored session failed", "error", err)
		}
	}

	s.active = false
}
