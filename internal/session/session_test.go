package session

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animtools/timewarp/internal/config"
	"github.com/animtools/timewarp/internal/drag"
	"github.com/animtools/timewarp/internal/provider"
	"github.com/animtools/timewarp/internal/provider/memory"
	"github.com/animtools/timewarp/internal/scope"
	memstorage "github.com/animtools/timewarp/internal/storage/memory"
	"github.com/animtools/timewarp/pkg/core"
)

// fakeHistory counts host checkpoint traffic.
type fakeHistory struct {
	pushes  []string
	undos   int
	ignores int
}

func (h *fakeHistory) Push(label string) { h.pushes = append(h.pushes, label) }
func (h *fakeHistory) Undo()             { h.undos++ }
func (h *fakeHistory) PushIgnore()       { h.ignores++ }

func testDocument() *memory.Document {
	doc := memory.NewDocument()
	doc.AddChannel(memory.ChannelRecord{
		Name:    "hip.ty",
		Visible: true,
		Samples: []memory.SampleRecord{
			{Time: 0, LeftTangent: -0.5, RightTangent: 0.5},
			{Time: 50, LeftTangent: 49.5, RightTangent: 50.5},
			{Time: 100, LeftTangent: 99.5, RightTangent: 100.5},
		},
	})
	doc.AddMarker(memory.MarkerRecord{Name: "cut_40", Time: 40})
	return doc
}

func newTestSession(t *testing.T, doc *memory.Document, cfg config.ToolConfig) (*Session, *fakeHistory) {
	t.Helper()
	h := &fakeHistory{}
	s := New(Dependencies{
		Channels: doc,
		Markers:  doc,
		Resolver: doc,
		History:  h,
		Log:      slog.Default(),
		Project:  "walkcycle",
		Clip:     "shot_010",
	}, cfg)
	return s, h
}

func activate(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Activate(core.ScopeWholeTimeline))
}

func sampleTime(t *testing.T, doc *memory.Document, index int) float64 {
	t.Helper()
	v, err := doc.Time(provider.SampleRef{Channel: "hip.ty", Index: index})
	require.NoError(t, err)
	return v
}

func TestActivate_SeedsOnePinPerDistinctSampleTime(t *testing.T) {
	doc := testDocument()
	s, h := newTestSession(t, doc, config.ToolConfig{RealtimeUpdates: true})

	activate(t, s)

	assert.True(t, s.Active())
	pins := s.Pins()
	require.Len(t, pins, 3)
	assert.Equal(t, []float64{0, 50, 100}, []float64{pins[0].Time, pins[1].Time, pins[2].Time})
	assert.Len(t, s.Easings(), 2)
	require.Len(t, h.pushes, 1)
	assert.Equal(t, "retime: activate", h.pushes[0])
}

func TestActivate_EmptyScopeAborts(t *testing.T) {
	doc := memory.NewDocument()
	s, h := newTestSession(t, doc, config.ToolConfig{})

	err := s.Activate(core.ScopeWholeTimeline)
	require.Error(t, err)
	assert.ErrorIs(t, err, scope.ErrEmptyScope)
	assert.False(t, s.Active())
	assert.Empty(t, h.pushes)
	assert.Empty(t, s.Pins())
}

func TestActivate_Twice(t *testing.T) {
	doc := testDocument()
	s, _ := newTestSession(t, doc, config.ToolConfig{})
	activate(t, s)

	assert.ErrorIs(t, s.Activate(core.ScopeWholeTimeline), ErrAlreadyActive)
}

func TestDragPin_MovesSamplesAndCommits(t *testing.T) {
	doc := testDocument()
	s, h := newTestSession(t, doc, config.ToolConfig{RealtimeUpdates: true})
	activate(t, s)

	mid := s.Pins()[1]
	require.NoError(t, s.Press(drag.PinTarget(mid.ID), 50, core.Modifiers{}))
	assert.True(t, s.Dragging())
	require.NoError(t, s.Move(60, core.Modifiers{}))

	label, err := s.Release(60, core.Modifiers{})
	require.NoError(t, err)
	assert.Equal(t, "retime: drag pin", label)
	assert.False(t, s.Dragging())

	// 0/50/100 with middle pin at 60: the middle sample follows the pin.
	assert.InDelta(t, 60, sampleTime(t, doc, 1), 1e-9)
	assert.InDelta(t, 0, sampleTime(t, doc, 0), 1e-9)
	assert.InDelta(t, 100, sampleTime(t, doc, 2), 1e-9)

	require.Len(t, h.pushes, 2)
	assert.Equal(t, "retime: drag pin", h.pushes[1])
}

func TestRelease_WithoutDragIsNoop(t *testing.T) {
	doc := testDocument()
	s, h := newTestSession(t, doc, config.ToolConfig{})
	activate(t, s)

	label, err := s.Release(10, core.Modifiers{})
	require.NoError(t, err)
	assert.Empty(t, label)
	assert.Len(t, h.pushes, 1)
}

func TestEditBeforeActivate(t *testing.T) {
	doc := testDocument()
	s, _ := newTestSession(t, doc, config.ToolConfig{})

	assert.ErrorIs(t, s.Move(10, core.Modifiers{}), ErrNotActive)
	_, err := s.AddPinAtPointer(10)
	assert.ErrorIs(t, err, ErrNotActive)
	assert.ErrorIs(t, s.Cancel(), ErrNotActive)
}

func TestAddDeletePin(t *testing.T) {
	doc := testDocument()
	s, h := newTestSession(t, doc, config.ToolConfig{})
	activate(t, s)

	id, err := s.AddPinAtPointer(25)
	require.NoError(t, err)
	assert.Len(t, s.Pins(), 4)
	assert.Contains(t, h.pushes, "retime: add pin")

	// Sample times are untouched by structural edits.
	assert.Equal(t, 50.0, sampleTime(t, doc, 1))

	require.NoError(t, s.DeletePin(id))
	assert.Len(t, s.Pins(), 3)
	assert.Contains(t, h.pushes, "retime: delete pin")
}

func TestDeleteAllPins(t *testing.T) {
	doc := testDocument()
	s, _ := newTestSession(t, doc, config.ToolConfig{})
	activate(t, s)

	require.NoError(t, s.DeleteAllPins())
	assert.Empty(t, s.Pins())
	assert.Empty(t, s.Easings())
}

func TestSetEasing_PersistsAndRetimes(t *testing.T) {
	doc := testDocument()
	doc.AddChannel(memory.ChannelRecord{
		Name:    "hip.tx",
		Visible: true,
		Samples: []memory.SampleRecord{
			{Time: 25, LeftTangent: 25, RightTangent: 25},
		},
	})
	s, _ := newTestSession(t, doc, config.ToolConfig{})
	activate(t, s)

	// Seeding put a pin on the hip.tx sample too; drop it so the sample
	// sits mid-segment at fraction 0.5 of [0,50].
	require.Len(t, s.Pins(), 4)
	require.NoError(t, s.DeletePin(s.Pins()[1].ID))

	require.NoError(t, s.SetEasing(0, 1.0))

	easings := s.Easings()
	require.Len(t, easings, 2)
	assert.Equal(t, 1.0, easings[0].Bias)

	// Full ease-out at fraction 0.5 maps to 0.96875 of the segment.
	v, err := doc.Time(provider.SampleRef{Channel: "hip.tx", Index: 0})
	require.NoError(t, err)
	assert.InDelta(t, 48.4375, v, 1e-9)
}

func TestSetEasing_BadSegment(t *testing.T) {
	doc := testDocument()
	s, _ := newTestSession(t, doc, config.ToolConfig{})
	activate(t, s)

	assert.Error(t, s.SetEasing(5, 0.75))
}

func TestRedistribute(t *testing.T) {
	doc := testDocument()
	doc.AddChannel(memory.ChannelRecord{
		Name:    "hip.tz",
		Visible: true,
		Samples: []memory.SampleRecord{
			{Time: 80, LeftTangent: 80, RightTangent: 80},
		},
	})
	s, _ := newTestSession(t, doc, config.ToolConfig{})
	activate(t, s)

	// Pins seeded at 0/50/80/100; redistribute moves interior pins to
	// even spacing and retimes samples with them.
	pins := s.Pins()
	require.Len(t, pins, 4)

	require.NoError(t, s.Redistribute())

	times := make([]float64, 0, 4)
	for _, p := range s.Pins() {
		times = append(times, p.Time)
	}
	assert.InDeltaSlice(t, []float64{0, 100.0 / 3, 200.0 / 3, 100}, times, 1e-9)
}

func TestUndo_RefusedAtActivationFloor(t *testing.T) {
	doc := testDocument()
	s, h := newTestSession(t, doc, config.ToolConfig{})
	activate(t, s)

	// Depth 1 (activation only): refused.
	assert.False(t, s.Undo())

	_, err := s.AddPinAtPointer(25)
	require.NoError(t, err)
	// Depth 2: still at the floor.
	assert.False(t, s.Undo())

	_, err = s.AddPinAtPointer(75)
	require.NoError(t, err)
	// Depth 3: undo allowed.
	assert.True(t, s.Undo())
	assert.Equal(t, 1, h.undos)
}

func TestCancel_HardRevertsEverything(t *testing.T) {
	doc := testDocument()
	s, h := newTestSession(t, doc, config.ToolConfig{RealtimeUpdates: true, IncludeMarkers: true})
	activate(t, s)

	mid := s.Pins()[1]
	require.NoError(t, s.Press(drag.PinTarget(mid.ID), 50, core.Modifiers{}))
	require.NoError(t, s.Move(70, core.Modifiers{}))
	label, err := s.Release(70, core.Modifiers{})
	require.NoError(t, err)
	require.NotEmpty(t, label)
	require.NotEqual(t, 50.0, sampleTime(t, doc, 1))

	require.NoError(t, s.Cancel())

	assert.False(t, s.Active())
	assert.Equal(t, 50.0, sampleTime(t, doc, 1))
	markerTime, err := doc.MarkerTime(0)
	require.NoError(t, err)
	assert.Equal(t, 40.0, markerTime)
	assert.Empty(t, s.Pins())
	// Activation + one commit, both unwound at teardown.
	assert.Equal(t, 2, h.ignores)
}

func TestCancel_DuringDragDropsGesture(t *testing.T) {
	doc := testDocument()
	s, _ := newTestSession(t, doc, config.ToolConfig{RealtimeUpdates: true})
	activate(t, s)

	mid := s.Pins()[1]
	require.NoError(t, s.Press(drag.PinTarget(mid.ID), 50, core.Modifiers{}))
	require.NoError(t, s.Move(70, core.Modifiers{}))

	require.NoError(t, s.Cancel())
	assert.False(t, s.Dragging())
	assert.Equal(t, 50.0, sampleTime(t, doc, 1))
}

func TestCommit_KeepsResultAndUnwinds(t *testing.T) {
	doc := testDocument()
	s, h := newTestSession(t, doc, config.ToolConfig{RealtimeUpdates: true})
	activate(t, s)

	mid := s.Pins()[1]
	require.NoError(t, s.Press(drag.PinTarget(mid.ID), 50, core.Modifiers{}))
	_, err := s.Release(65, core.Modifiers{})
	require.NoError(t, err)

	require.NoError(t, s.Commit())

	assert.False(t, s.Active())
	assert.InDelta(t, 65, sampleTime(t, doc, 1), 1e-9)
	assert.Empty(t, s.Pins())
	assert.Equal(t, 2, h.ignores)
	assert.ErrorIs(t, s.Commit(), ErrNotActive)
}

func TestMarkerRenameOnCommit(t *testing.T) {
	doc := testDocument()
	plain := doc.AddMarker(memory.MarkerRecord{Name: "intro", Time: 40})
	s, _ := newTestSession(t, doc, config.ToolConfig{
		RealtimeUpdates:       true,
		IncludeMarkers:        true,
		RenameMarkersOnCommit: true,
	})
	activate(t, s)

	// Dragging the middle pin from 50 to 60 maps marker 40 to 48.
	mid := s.Pins()[1]
	require.NoError(t, s.Press(drag.PinTarget(mid.ID), 50, core.Modifiers{}))
	_, err := s.Release(60, core.Modifiers{})
	require.NoError(t, err)

	markerTime, err := doc.MarkerTime(0)
	require.NoError(t, err)
	assert.InDelta(t, 48, markerTime, 1e-9)

	name, err := doc.Name(0)
	require.NoError(t, err)
	assert.Equal(t, "cut_48", name)

	// A name without a time suffix moves but keeps its name.
	plainTime, err := doc.MarkerTime(plain)
	require.NoError(t, err)
	assert.InDelta(t, 48, plainTime, 1e-9)
	plainName, err := doc.Name(plain)
	require.NoError(t, err)
	assert.Equal(t, "intro", plainName)
}

func TestStorageIntegration(t *testing.T) {
	doc := testDocument()
	h := &fakeHistory{}
	backend := memstorage.New(memstorage.Config{OutputDir: t.TempDir()})
	require.NoError(t, backend.Init())

	s := New(Dependencies{
		Channels: doc,
		Markers:  doc,
		Resolver: doc,
		History:  h,
		Storage:  backend,
		Log:      slog.Default(),
		Project:  "walkcycle",
		Clip:     "shot_010",
	}, config.ToolConfig{RealtimeUpdates: true})

	require.NoError(t, s.Activate(core.ScopeWholeTimeline))

	pins, _, err := backend.LoadLandmarks()
	require.NoError(t, err)
	assert.Len(t, pins, 3)

	mid := s.Pins()[1]
	require.NoError(t, s.Press(drag.PinTarget(mid.ID), 50, core.Modifiers{}))
	_, err = s.Release(60, core.Modifiers{})
	require.NoError(t, err)

	pins, _, err = backend.LoadLandmarks()
	require.NoError(t, err)
	assert.Equal(t, 60.0, pins[1].Time)

	require.NoError(t, s.Commit())
	meta := backend.GetExportMetadata()
	assert.Equal(t, s.ID(), meta.SessionUID)
}
