// pkg/core/types.go
package core

// MinPinGap is the minimum separation, in time units, between two pins.
// Segment widths are therefore always non-zero.
const MinPinGap = 1.0

// DefaultBias is the neutral easing bias applied to a newly created segment.
const DefaultBias = 0.5

// PinID uniquely identifies a pin for its whole lifetime, independent of
// its position in the sorted pin list.
type PinID uint64

// Pin is a user-placed time landmark. Pins are working state owned by the
// retime session, not permanent authored data.
type Pin struct {
	ID   PinID
	Time float64
}

// EasingRecord holds the easing bias bound to one segment. The i-th record
// belongs to the segment between the i-th and (i+1)-th pins in time order.
type EasingRecord struct {
	Bias float64
}

// Scope selects which samples and markers a retime session operates on.
// It is resolved by the host; the engine only consumes the result.
type Scope int

const (
	ScopeWholeTimeline Scope = iota
	ScopeSingleClip
	ScopeSelectedElements
	ScopeVisibleChannels
	ScopeSelectedSamplesOnly
)

// String returns the scope name used in logs and config files.
func (s Scope) String() string {
	switch s {
	case ScopeWholeTimeline:
		return "wholeTimeline"
	case ScopeSingleClip:
		return "singleClip"
	case ScopeSelectedElements:
		return "selectedElements"
	case ScopeVisibleChannels:
		return "visibleChannels"
	case ScopeSelectedSamplesOnly:
		return "selectedSamplesOnly"
	default:
		return "unknown"
	}
}

// SampleState is the full time state of one sample: its primary position
// plus the absolute times of its two tangent handles, which move rigidly
// with it.
type SampleState struct {
	Time         float64
	LeftTangent  float64
	RightTangent float64
}

// MarkerState is the time state of one timeline marker.
type MarkerState struct {
	Time float64
	Name string
}

// ExportMetadata describes a result file written by an exportable storage
// backend.
type ExportMetadata struct {
	Project     string
	Clip        string
	SessionUID  string
	DurationSec float64
}
