// Package landmark maintains the ordered pin list and the easing records
// bound to the segments between adjacent pins. Pins live in a flat,
// id-keyed arena sorted by time; segments are derived by adjacency and
// never stored. The table is the single place allowed to move or create
// pins, which is what keeps the ordering and minimum-separation
// invariants global.
package landmark

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/animtools/timewarp/pkg/core"
)

var (
	// ErrPinTooClose is returned when a new pin would land within
	// core.MinPinGap of an existing one.
	ErrPinTooClose = errors.New("pin collides with an existing pin")

	// ErrSegmentIndex is returned for an out-of-range segment index.
	ErrSegmentIndex = errors.New("segment index out of range")

	// ErrUnknownPin is returned when an id does not resolve to a pin.
	ErrUnknownPin = errors.New("unknown pin id")
)

// Table is the pin/easing arena for one retime session.
type Table struct {
	pins    []core.Pin
	easings []core.EasingRecord
	nextID  core.PinID
}

// NewTable creates an empty pin table.
func NewTable() *Table {
	return &Table{}
}

// Len returns the number of pins.
func (t *Table) Len() int {
	return len(t.pins)
}

// SegmentCount returns the number of segments between adjacent pins.
func (t *Table) SegmentCount() int {
	if len(t.pins) < 2 {
		return 0
	}
	return len(t.pins) - 1
}

// Pins returns a copy of the pins in ascending time order.
func (t *Table) Pins() []core.Pin {
	out := make([]core.Pin, len(t.pins))
	copy(out, t.pins)
	return out
}

// Easings returns a copy of the per-segment easing records.
func (t *Table) Easings() []core.EasingRecord {
	out := make([]core.EasingRecord, len(t.easings))
	copy(out, t.easings)
	return out
}

// Times returns the pin times in ascending order.
func (t *Table) Times() []float64 {
	out := make([]float64, len(t.pins))
	for i, p := range t.pins {
		out[i] = p.Time
	}
	return out
}

// Pin returns the pin with the given id.
func (t *Table) Pin(id core.PinID) (core.Pin, bool) {
	i := t.indexOf(id)
	if i < 0 {
		return core.Pin{}, false
	}
	return t.pins[i], true
}

// IndexOf returns the position of a pin in time order, or -1.
func (t *Table) IndexOf(id core.PinID) int {
	return t.indexOf(id)
}

func (t *Table) indexOf(id core.PinID) int {
	for i, p := range t.pins {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Add inserts a pin at the given time, keeping the list sorted and the
// easing records in sync with the segment count.
func (t *Table) Add(time float64) (core.PinID, error) {
	for _, p := range t.pins {
		if math.Abs(p.Time-time) < core.MinPinGap {
			return 0, fmt.Errorf("%w: %.2f is within %.0f of pin %d at %.2f",
				ErrPinTooClose, time, core.MinPinGap, p.ID, p.Time)
		}
	}

	t.nextID++
	pin := core.Pin{ID: t.nextID, Time: time}

	i := sort.Search(len(t.pins), func(i int) bool {
		return t.pins[i].Time > time
	})
	t.pins = append(t.pins, core.Pin{})
	copy(t.pins[i+1:], t.pins[i:])
	t.pins[i] = pin

	t.syncEasings()
	return pin.ID, nil
}

// Remove deletes a pin and trims one easing record so records stay equal
// to the segment count.
func (t *Table) Remove(id core.PinID) error {
	i := t.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownPin, id)
	}
	t.pins = append(t.pins[:i], t.pins[i+1:]...)
	t.syncEasings()
	return nil
}

// RemoveAll clears every pin and easing record.
func (t *Table) RemoveAll() {
	t.pins = nil
	t.easings = nil
}

// SetEasing sets the bias of the given segment.
func (t *Table) SetEasing(segment int, bias float64) error {
	if segment < 0 || segment >= len(t.easings) {
		return fmt.Errorf("%w: %d (segments: %d)", ErrSegmentIndex, segment, len(t.easings))
	}
	t.easings[segment].Bias = clampUnit(bias)
	return nil
}

// Easing returns the bias of the given segment.
func (t *Table) Easing(segment int) (float64, error) {
	if segment < 0 || segment >= len(t.easings) {
		return 0, fmt.Errorf("%w: %d (segments: %d)", ErrSegmentIndex, segment, len(t.easings))
	}
	return t.easings[segment].Bias, nil
}

// ResetEasing restores the given segment to the neutral default bias.
func (t *Table) ResetEasing(segment int) error {
	return t.SetEasing(segment, core.DefaultBias)
}

// Bounds returns the allowed time range for a pin: one gap inside its
// immediate neighbors, unbounded on a side with no neighbor.
func (t *Table) Bounds(id core.PinID) (lo, hi float64, err error) {
	i := t.indexOf(id)
	if i < 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownPin, id)
	}
	lo = math.Inf(-1)
	hi = math.Inf(1)
	if i > 0 {
		lo = t.pins[i-1].Time + core.MinPinGap
	}
	if i < len(t.pins)-1 {
		hi = t.pins[i+1].Time - core.MinPinGap
	}
	return lo, hi, nil
}

// ClampedMove moves a pin to the proposed time clamped into its allowed
// range and returns the time actually applied. Being clamped is not an
// error; this is the chokepoint that keeps pins from crossing.
func (t *Table) ClampedMove(id core.PinID, proposed float64) (float64, error) {
	lo, hi, err := t.Bounds(id)
	if err != nil {
		return 0, err
	}
	applied := proposed
	if applied < lo {
		applied = lo
	}
	if applied > hi {
		applied = hi
	}
	i := t.indexOf(id)
	t.pins[i].Time = applied
	return applied, nil
}

// MoveUnclamped sets a pin's time without the neighbor clamp. Only the
// propagate-behind drag path uses this; the pin list may transiently
// leave time order until the next clamp-bearing event.
func (t *Table) MoveUnclamped(id core.PinID, time float64) error {
	i := t.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownPin, id)
	}
	t.pins[i].Time = time
	return nil
}

// Redistribute evenly re-spaces the interior pins between the first and
// last pin. A no-op with fewer than 3 pins.
func (t *Table) Redistribute() {
	n := len(t.pins)
	if n < 3 {
		return
	}
	first := t.pins[0].Time
	last := t.pins[n-1].Time
	step := (last - first) / float64(n-1)
	for i := 1; i < n-1; i++ {
		t.pins[i].Time = first + step*float64(i)
	}
}

// Restore replaces the table contents wholesale. Used by the hard-revert
// cancel path and by session load; the caller supplies pins already in
// time order.
func (t *Table) Restore(pins []core.Pin, easings []core.EasingRecord) {
	t.pins = make([]core.Pin, len(pins))
	copy(t.pins, pins)
	for _, p := range pins {
		if p.ID > t.nextID {
			t.nextID = p.ID
		}
	}
	t.easings = make([]core.EasingRecord, len(easings))
	copy(t.easings, easings)
	t.syncEasings()
}

// syncEasings repairs the records == segments invariant after any pin
// mutation. Existing biases are kept positionally; new segments get the
// default bias.
func (t *Table) syncEasings() {
	want := t.SegmentCount()
	for len(t.easings) < want {
		t.easings = append(t.easings, core.EasingRecord{Bias: core.DefaultBias})
	}
	if len(t.easings) > want {
		t.easings = t.easings[:want]
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
