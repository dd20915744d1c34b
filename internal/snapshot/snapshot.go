// Package snapshot captures original time positions at the start of an
// interactive operation. All remap math is expressed against a snapshot,
// never against the live values, so repeated recomputes during a drag
// stay "from original, to current" instead of accumulating error.
package snapshot

import (
	"fmt"

	"github.com/animtools/timewarp/internal/provider"
	"github.com/animtools/timewarp/internal/scope"
	"github.com/animtools/timewarp/pkg/core"
)

// Snapshot is the per-operation capture of every in-scope sample's time
// state and every pin's time. It is taken exactly once per operation and
// never mutated afterwards.
type Snapshot struct {
	Samples map[provider.SampleRef]core.SampleState
	Markers map[provider.MarkerRef]float64
	Pins    []core.Pin
}

// Capture records the current times of every sample and marker in the
// resolution, together with the current pin positions. Markers are
// skipped when includeMarkers is off.
func Capture(
	res scope.Resolution,
	channels provider.ChannelProvider,
	markers provider.MarkerProvider,
	pins []core.Pin,
	includeMarkers bool,
) (*Snapshot, error) {
	snap := &Snapshot{
		Samples: make(map[provider.SampleRef]core.SampleState, len(res.Samples)),
		Markers: make(map[provider.MarkerRef]float64),
		Pins:    make([]core.Pin, len(pins)),
	}
	copy(snap.Pins, pins)

	for _, ref := range res.Samples {
		t, err := channels.Time(ref)
		if err != nil {
			return nil, fmt.Errorf("capturing sample %v: %w", ref, err)
		}
		left, right, err := channels.TangentTimes(ref)
		if err != nil {
			return nil, fmt.Errorf("capturing tangents of %v: %w", ref, err)
		}
		snap.Samples[ref] = core.SampleState{Time: t, LeftTangent: left, RightTangent: right}
	}

	if includeMarkers && markers != nil {
		for _, ref := range res.Markers {
			t, err := markers.MarkerTime(ref)
			if err != nil {
				return nil, fmt.Errorf("capturing marker %d: %w", ref, err)
			}
			snap.Markers[ref] = t
		}
	}

	return snap, nil
}

// SessionSnapshot is the broader capture taken once at tool activation.
// The hard-revert cancel path restores from it directly, bypassing the
// host undo history entirely.
type SessionSnapshot struct {
	Snapshot
	Easings     []core.EasingRecord
	MarkerNames map[provider.MarkerRef]string
}

// CaptureSession records everything a full revert needs: sample and
// marker times, marker names, and the complete pin/easing table.
func CaptureSession(
	res scope.Resolution,
	channels provider.ChannelProvider,
	markers provider.MarkerProvider,
	pins []core.Pin,
	easings []core.EasingRecord,
) (*SessionSnapshot, error) {
	base, err := Capture(res, channels, markers, pins, markers != nil)
	if err != nil {
		return nil, err
	}

	sess := &SessionSnapshot{
		Snapshot:    *base,
		Easings:     make([]core.EasingRecord, len(easings)),
		MarkerNames: make(map[provider.MarkerRef]string),
	}
	copy(sess.Easings, easings)

	if markers != nil {
		for ref := range base.Markers {
			name, err := markers.Name(ref)
			if err != nil {
				return nil, fmt.Errorf("capturing marker name %d: %w", ref, err)
			}
			sess.MarkerNames[ref] = name
		}
	}

	return sess, nil
}

// Restore writes every captured sample, marker, and marker name back
// through the providers. The pin table is the caller's to restore; the
// snapshot only hands back the captured pins and easings.
func (s *SessionSnapshot) Restore(channels provider.ChannelProvider, markers provider.MarkerProvider) error {
	for ref, st := range s.Samples {
		if err := channels.SetTime(ref, st.Time); err != nil {
			return fmt.Errorf("restoring sample %v: %w", ref, err)
		}
		if err := channels.SetTangentTimes(ref, st.LeftTangent, st.RightTangent); err != nil {
			return fmt.Errorf("restoring tangents of %v: %w", ref, err)
		}
	}

	if markers != nil {
		for ref, t := range s.Markers {
			if err := markers.SetMarkerTime(ref, t); err != nil {
				return fmt.Errorf("restoring marker %d: %w", ref, err)
			}
		}
		for ref, name := range s.MarkerNames {
			if err := markers.Rename(ref, name); err != nil {
				return fmt.Errorf("restoring marker name %d: %w", ref, err)
			}
		}
	}

	return nil
}
