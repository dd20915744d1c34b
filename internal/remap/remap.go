// Package remap recomputes sample times from a snapshot of original
// positions and the pins' current positions. Samples before the first
// pin and after the last shift rigidly with that pin's delta; samples
// between two pins map through the segment's easing curve. Because the
// math always starts from the snapshot, recompute is a pure function of
// (snapshot, current pin times, easings) no matter how many intermediate
// moves happened.
package remap

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/animtools/timewarp/internal/easing"
	"github.com/animtools/timewarp/internal/provider"
	"github.com/animtools/timewarp/internal/snapshot"
	"github.com/animtools/timewarp/pkg/core"
)

// Stats reports the size and cost of one recompute pass.
type Stats struct {
	Samples  int
	Markers  int
	Duration time.Duration
}

// Engine writes recomputed times back through the host providers.
type Engine struct {
	channels provider.ChannelProvider
	markers  provider.MarkerProvider

	// snapRound rounds every written time to a whole unit.
	snapRound bool
}

// New creates an engine over the given providers. markers may be nil.
func New(channels provider.ChannelProvider, markers provider.MarkerProvider, snapToWholeUnits bool) *Engine {
	return &Engine{
		channels:  channels,
		markers:   markers,
		snapRound: snapToWholeUnits,
	}
}

// span pairs one pin's original time with its current time.
type span struct {
	orig float64
	cur  float64
	bias float64 // easing of the segment starting at this pin
}

// buildSpans pairs snapshot pins with their current positions by id and
// sorts by original time. Pins created or destroyed mid-operation never
// appear here; structural edits start a fresh snapshot.
func buildSpans(snapPins, current []core.Pin, easings []core.EasingRecord) []span {
	curByID := make(map[core.PinID]float64, len(current))
	for _, p := range current {
		curByID[p.ID] = p.Time
	}

	ordered := make([]core.Pin, len(snapPins))
	copy(ordered, snapPins)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Time < ordered[j].Time })

	spans := make([]span, 0, len(ordered))
	for i, p := range ordered {
		cur, ok := curByID[p.ID]
		if !ok {
			cur = p.Time
		}
		s := span{orig: p.Time, cur: cur, bias: core.DefaultBias}
		if i < len(easings) {
			s.bias = easings[i].Bias
		}
		spans = append(spans, s)
	}
	return spans
}

// mapTime remaps one original time through the span list.
func mapTime(t float64, spans []span) float64 {
	n := len(spans)
	if n < 2 {
		return t
	}

	first := spans[0]
	last := spans[n-1]

	if t <= first.orig {
		return t + (first.cur - first.orig)
	}
	if t >= last.orig {
		return t + (last.cur - last.orig)
	}

	i := segmentOf(t, spans)
	return mapWithin(t, spans[i], spans[i+1])
}

// segmentOf finds the segment whose original bounds contain t. Only
// called with t strictly inside the outer pins.
func segmentOf(t float64, spans []span) int {
	i := sort.Search(len(spans), func(i int) bool { return spans[i].orig > t })
	return i - 1
}

// mapWithin applies the eased fractional mapping of one segment. The
// original width is non-zero by the minimum pin separation invariant.
// Times outside the segment (tangent handles of a sample sitting on a
// pin) extrapolate linearly; the easing curve is only defined on the
// segment itself, and its endpoint clamp would collapse such a handle
// onto the pin.
func mapWithin(t float64, lo, hi span) float64 {
	// Unmoved segment with neutral easing maps exactly to itself, which
	// keeps pick-up-and-put-back gestures lossless.
	if lo.bias == core.DefaultBias && lo.cur == lo.orig && hi.cur == hi.orig {
		return t
	}
	fraction := (t - lo.orig) / (hi.orig - lo.orig)
	if fraction >= 0 && fraction <= 1 {
		fraction = easing.Warp(fraction, lo.bias)
	}
	return lo.cur + fraction*(hi.cur-lo.cur)
}

// Recompute rewrites every snapshotted sample (and marker) time from the
// pins' current positions. With fewer than 2 pins it is a pass-through.
func (e *Engine) Recompute(snap *snapshot.Snapshot, current []core.Pin, easings []core.EasingRecord) (Stats, error) {
	start := time.Now()
	stats := Stats{}

	spans := buildSpans(snap.Pins, current, easings)
	if len(spans) < 2 {
		stats.Duration = time.Since(start)
		return stats, nil
	}

	for ref, st := range snap.Samples {
		newTime := e.round(mapTime(st.Time, spans))
		if err := e.channels.SetTime(ref, newTime); err != nil {
			return stats, fmt.Errorf("writing sample %v: %w", ref, err)
		}

		// Tangent handles share the owning sample's segment membership
		// so handle shape follows the sample's new position.
		left, right := e.mapTangents(st, spans)
		if err := e.channels.SetTangentTimes(ref, left, right); err != nil {
			return stats, fmt.Errorf("writing tangents of %v: %w", ref, err)
		}
		stats.Samples++
	}

	if e.markers != nil {
		for ref, t := range snap.Markers {
			if err := e.markers.SetMarkerTime(ref, e.round(mapTime(t, spans))); err != nil {
				return stats, fmt.Errorf("writing marker %d: %w", ref, err)
			}
			stats.Markers++
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// mapTangents remaps both tangent times using the branch selected by the
// sample's primary time.
func (e *Engine) mapTangents(st core.SampleState, spans []span) (float64, float64) {
	n := len(spans)
	first := spans[0]
	last := spans[n-1]

	var left, right float64
	switch {
	case st.Time <= first.orig:
		delta := first.cur - first.orig
		left, right = st.LeftTangent+delta, st.RightTangent+delta
	case st.Time >= last.orig:
		delta := last.cur - last.orig
		left, right = st.LeftTangent+delta, st.RightTangent+delta
	default:
		i := segmentOf(st.Time, spans)
		left = mapWithin(st.LeftTangent, spans[i], spans[i+1])
		right = mapWithin(st.RightTangent, spans[i], spans[i+1])
	}
	return e.round(left), e.round(right)
}

func (e *Engine) round(t float64) float64 {
	if !e.snapRound {
		return t
	}
	return math.Round(t)
}
