// Package drag interprets pointer motion and modifier keys into pin
// movements and recomputes. It is a synchronous state machine stepped
// once per host-delivered event; a drag owns exactly one snapshot from
// press to release, so every recompute during the gesture is expressed
// against the same original positions.
package drag

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/animtools/timewarp/internal/landmark"
	"github.com/animtools/timewarp/internal/provider"
	"github.com/animtools/timewarp/internal/remap"
	"github.com/animtools/timewarp/internal/scope"
	"github.com/animtools/timewarp/internal/snapshot"
	"github.com/animtools/timewarp/pkg/core"
)

// ErrActiveDrag is returned when a press arrives while a drag is already
// in progress.
var ErrActiveDrag = errors.New("drag already in progress")

// easeInset keeps the ease control grabbable near segment ends: the
// outer fraction of the segment on each side maps to bias 0 or 1.
const easeInset = 0.05

// TargetKind discriminates the draggable controls.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetPin
	TargetBar
	TargetEase
)

// Target is a tagged variant over the three draggable controls: a single
// pin, the bar between two adjacent pins, or a segment's ease handle.
type Target struct {
	Kind    TargetKind
	Pin     core.PinID // TargetPin
	Left    core.PinID // TargetBar
	Right   core.PinID // TargetBar
	Segment int        // TargetEase
}

// PinTarget targets a single pin.
func PinTarget(id core.PinID) Target {
	return Target{Kind: TargetPin, Pin: id}
}

// BarTarget targets the bar between two adjacent pins.
func BarTarget(left, right core.PinID) Target {
	return Target{Kind: TargetBar, Left: left, Right: right}
}

// EaseTarget targets a segment's ease handle.
func EaseTarget(segment int) Target {
	return Target{Kind: TargetEase, Segment: segment}
}

// State is the controller's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateDragging
)

// Config is the subset of tool configuration the controller acts on.
type Config struct {
	SnapToWholeUnits bool
	RealtimeUpdates  bool
	IncludeMarkers   bool
}

// Controller drives one drag gesture at a time.
type Controller struct {
	table    *landmark.Table
	engine   *remap.Engine
	channels provider.ChannelProvider
	markers  provider.MarkerProvider
	res      scope.Resolution
	cfg      Config
	log      *slog.Logger

	state     State
	target    Target
	snap      *snapshot.Snapshot
	origTimes map[core.PinID]float64
	pressTime float64
	lastStats remap.Stats
}

// NewController creates an idle controller over the session's table,
// providers, and resolved scope.
func NewController(
	table *landmark.Table,
	engine *remap.Engine,
	channels provider.ChannelProvider,
	markers provider.MarkerProvider,
	res scope.Resolution,
	cfg Config,
	log *slog.Logger,
) *Controller {
	return &Controller{
		table:    table,
		engine:   engine,
		channels: channels,
		markers:  markers,
		res:      res,
		cfg:      cfg,
		log:      log,
	}
}

// State returns the controller state.
func (c *Controller) State() State {
	return c.state
}

// Target returns the active drag target; meaningful only while dragging.
func (c *Controller) ActiveTarget() Target {
	return c.target
}

// LastStats returns the cost of the most recent recompute.
func (c *Controller) LastStats() remap.Stats {
	return c.lastStats
}

// Press starts a drag on the given target, capturing the operation
// snapshot exactly once.
func (c *Controller) Press(target Target, t float64, mods core.Modifiers) error {
	if c.state != StateIdle {
		return ErrActiveDrag
	}

	if err := c.validTarget(target); err != nil {
		return err
	}

	includeMarkers := c.cfg.IncludeMarkers && c.markers != nil
	snap, err := snapshot.Capture(c.res, c.channels, c.markers, c.table.Pins(), includeMarkers)
	if err != nil {
		return fmt.Errorf("capturing drag snapshot: %w", err)
	}

	c.snap = snap
	c.origTimes = make(map[core.PinID]float64, len(snap.Pins))
	for _, p := range snap.Pins {
		c.origTimes[p.ID] = p.Time
	}
	c.pressTime = t
	c.target = target
	c.state = StateDragging

	c.log.Debug("Drag started", "target", target.Kind, "time", t)
	return nil
}

func (c *Controller) validTarget(target Target) error {
	switch target.Kind {
	case TargetPin:
		if _, ok := c.table.Pin(target.Pin); !ok {
			return fmt.Errorf("%w: %d", landmark.ErrUnknownPin, target.Pin)
		}
	case TargetBar:
		li := c.table.IndexOf(target.Left)
		ri := c.table.IndexOf(target.Right)
		if li < 0 || ri < 0 {
			return fmt.Errorf("%w: bar %d-%d", landmark.ErrUnknownPin, target.Left, target.Right)
		}
		if ri != li+1 {
			return fmt.Errorf("bar pins %d-%d are not adjacent", target.Left, target.Right)
		}
	case TargetEase:
		if target.Segment < 0 || target.Segment >= c.table.SegmentCount() {
			return fmt.Errorf("%w: %d", landmark.ErrSegmentIndex, target.Segment)
		}
	default:
		return fmt.Errorf("unknown drag target kind %d", target.Kind)
	}
	return nil
}

// Move handles one pointer move event. A move while idle is ignored.
func (c *Controller) Move(t float64, mods core.Modifiers) error {
	if c.state != StateDragging {
		return nil
	}

	if err := c.apply(t, mods); err != nil {
		return err
	}

	if c.cfg.RealtimeUpdates {
		return c.recompute()
	}
	return nil
}

// Release finishes the drag: applies the final position, always runs one
// recompute, and returns to idle. The commit checkpoint is the caller's
// to push; the controller reports the label to use.
func (c *Controller) Release(t float64, mods core.Modifiers) (label string, err error) {
	if c.state != StateDragging {
		return "", nil
	}

	if err := c.apply(t, mods); err != nil {
		return "", err
	}
	if err := c.recompute(); err != nil {
		return "", err
	}

	label = c.commitLabel()

	// The ease handle is one-shot: the bias snaps back to neutral after
	// the recompute has been written, without triggering another one.
	if c.target.Kind == TargetEase {
		if err := c.table.ResetEasing(c.target.Segment); err != nil {
			return "", err
		}
	}

	c.reset()
	c.log.Debug("Drag released", "label", label, "time", t)
	return label, nil
}

// Abort abandons the drag without recomputing. The caller is expected to
// hard-revert through the session snapshot.
func (c *Controller) Abort() {
	c.reset()
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.target = Target{}
	c.snap = nil
	c.origTimes = nil
}

func (c *Controller) commitLabel() string {
	switch c.target.Kind {
	case TargetPin:
		return "retime: drag pin"
	case TargetBar:
		return "retime: drag segment"
	case TargetEase:
		return "retime: ease segment"
	default:
		return "retime: drag"
	}
}

func (c *Controller) recompute() error {
	stats, err := c.engine.Recompute(c.snap, c.table.Pins(), c.table.Easings())
	if err != nil {
		return err
	}
	c.lastStats = stats
	return nil
}

// apply routes one pointer position to the active target.
func (c *Controller) apply(t float64, mods core.Modifiers) error {
	switch c.target.Kind {
	case TargetPin:
		return c.applyPin(t, mods)
	case TargetBar:
		return c.applyBar(t, mods)
	case TargetEase:
		return c.applyEase(t)
	}
	return nil
}

func (c *Controller) snapping(mods core.Modifiers) bool {
	return c.cfg.SnapToWholeUnits != mods.SnapToggle
}

func (c *Controller) applyPin(t float64, mods core.Modifiers) error {
	orig := c.origTimes[c.target.Pin]
	candidate := orig + (t - c.pressTime)
	if c.snapping(mods) {
		candidate = math.Round(candidate)
	}
	delta := candidate - orig

	// Far pins move before near ones so a propagated neighbor never
	// blocks the clamp of the pin inside it.
	c.propagate(delta, orig, orig, mods)

	if _, err := c.table.ClampedMove(c.target.Pin, candidate); err != nil {
		return err
	}
	return nil
}

func (c *Controller) applyBar(t float64, mods core.Modifiers) error {
	origL := c.origTimes[c.target.Left]
	origR := c.origTimes[c.target.Right]
	delta := t - c.pressTime
	if c.snapping(mods) {
		delta = math.Round(delta)
	}

	// The bar translates both pins together, clamped by the pins
	// outside it so the segment keeps its width.
	li := c.table.IndexOf(c.target.Left)
	pins := c.table.Pins()
	if li > 0 {
		minDelta := pins[li-1].Time + core.MinPinGap - origL
		if delta < minDelta {
			delta = minDelta
		}
	}
	if li+2 < len(pins) {
		maxDelta := pins[li+2].Time - core.MinPinGap - origR
		if delta > maxDelta {
			delta = maxDelta
		}
	}

	c.propagate(delta, origL, origR, mods)

	if err := c.table.MoveUnclamped(c.target.Left, origL+delta); err != nil {
		return err
	}
	return c.table.MoveUnclamped(c.target.Right, origR+delta)
}

// propagate extends the drag delta to pins beyond the pivot range.
// Pins ahead of the motion move through the neighbor clamp, farthest
// first; pins behind move unclamped, per the tool's asymmetric pull
// behavior.
func (c *Controller) propagate(delta, pivotLo, pivotHi float64, mods core.Modifiers) {
	if delta == 0 || (!mods.PropagateAhead && !mods.PropagateBehind) {
		return
	}

	type moved struct {
		id   core.PinID
		orig float64
	}
	var ahead, behind []moved

	for id, orig := range c.origTimes {
		if orig >= pivotLo && orig <= pivotHi {
			continue
		}
		onMotionSide := (delta > 0 && orig > pivotHi) || (delta < 0 && orig < pivotLo)
		if onMotionSide {
			ahead = append(ahead, moved{id, orig})
		} else {
			behind = append(behind, moved{id, orig})
		}
	}

	if mods.PropagateAhead {
		// Farthest from the pivot first.
		sort.Slice(ahead, func(i, j int) bool {
			if delta > 0 {
				return ahead[i].orig > ahead[j].orig
			}
			return ahead[i].orig < ahead[j].orig
		})
		for _, m := range ahead {
			if _, err := c.table.ClampedMove(m.id, m.orig+delta); err != nil {
				c.log.Warn("Propagate-ahead skipped pin", "pin", m.id, "error", err)
			}
		}
	}

	if mods.PropagateBehind {
		for _, m := range behind {
			if err := c.table.MoveUnclamped(m.id, m.orig+delta); err != nil {
				c.log.Warn("Propagate-behind skipped pin", "pin", m.id, "error", err)
			}
		}
	}
}

// applyEase maps the pointer position within the segment's current pin
// bounds to a bias in [0,1], with an inset so the extremes stay
// reachable short of the pins themselves.
func (c *Controller) applyEase(t float64) error {
	pins := c.table.Pins()
	seg := c.target.Segment
	lo := pins[seg].Time
	hi := pins[seg+1].Time

	width := hi - lo
	inset := width * easeInset
	usable := width - 2*inset
	bias := (t - (lo + inset)) / usable
	if bias < 0 {
		bias = 0
	}
	if bias > 1 {
		bias = 1
	}
	return c.table.SetEasing(seg, bias)
}
