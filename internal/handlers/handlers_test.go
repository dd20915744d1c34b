package handlers

import (
	"log/slog"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animtools/timewarp/internal/config"
	"github.com/animtools/timewarp/internal/dispatcher"
	"github.com/animtools/timewarp/internal/logging"
	"github.com/animtools/timewarp/internal/parser"
	"github.com/animtools/timewarp/internal/provider"
	"github.com/animtools/timewarp/internal/provider/memory"
	"github.com/animtools/timewarp/internal/session"
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
	return doc
}

func newTestService(t *testing.T) (*Service, *memory.Document, *fakeHistory) {
	t.Helper()

	doc := testDocument()
	h := &fakeHistory{}
	sess := session.New(session.Dependencies{
		Channels: doc,
		Markers:  doc,
		Resolver: doc,
		History:  h,
		Log:      slog.Default(),
		Project:  "walkcycle",
		Clip:     "shot_010",
	}, config.ToolConfig{RealtimeUpdates: true})

	svc := NewService(Dependencies{
		Session: sess,
		Parser:  parser.NewParser(slog.Default()),
	})
	return svc, doc, h
}

func sampleTime(t *testing.T, doc *memory.Document, index int) float64 {
	t.Helper()
	v, err := doc.Time(provider.SampleRef{Channel: "hip.ty", Index: index})
	require.NoError(t, err)
	return v
}

func TestHandleActivate(t *testing.T) {
	svc, _, h := newTestService(t)

	require.NoError(t, svc.HandleActivate([]string{"wholeTimeline"}))

	assert.True(t, svc.deps.Session.Active())
	assert.Len(t, svc.deps.Session.Pins(), 3)
	assert.Len(t, h.pushes, 1)
}

func TestHandleActivate_BadScope(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.HandleActivate([]string{"everything"})
	require.Error(t, err)
	assert.False(t, svc.deps.Session.Active())
}

func TestHandlePressMoveRelease_DragPin(t *testing.T) {
	svc, doc, _ := newTestService(t)
	require.NoError(t, svc.HandleActivate([]string{"wholeTimeline"}))

	mid := svc.deps.Session.Pins()[1]
	midID := strconv.FormatUint(uint64(mid.ID), 10)

	require.NoError(t, svc.HandlePress([]string{"50", "pin", midID, "0", ""}))
	require.NoError(t, svc.HandleMove([]string{"60", ""}))

	label, err := svc.HandleRelease([]string{"60", ""})
	require.NoError(t, err)
	assert.Equal(t, "retime: drag pin", label)

	assert.InDelta(t, 60, sampleTime(t, doc, 1), 1e-9)
	assert.InDelta(t, 0, sampleTime(t, doc, 0), 1e-9)
	assert.InDelta(t, 100, sampleTime(t, doc, 2), 1e-9)
}

func TestHandlePress_BadPayload(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.HandleActivate([]string{"wholeTimeline"}))

	assert.Error(t, svc.HandlePress([]string{"50", "pin"}))
	assert.Error(t, svc.HandlePress([]string{"50", "lasso", "1", "0", ""}))
}

func TestHandleAddDeletePin(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.HandleActivate([]string{"wholeTimeline"}))

	id, err := svc.HandleAddPinAtPointer([]string{"25.00"})
	require.NoError(t, err)
	assert.Len(t, svc.deps.Session.Pins(), 4)

	err = svc.HandleDeletePin([]string{strconv.FormatUint(uint64(id), 10)})
	require.NoError(t, err)
	assert.Len(t, svc.deps.Session.Pins(), 3)
}

func TestHandleSetEasing(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.NoError(t, svc.HandleActivate([]string{"wholeTimeline"}))

	require.NoError(t, svc.HandleSetEasing([]string{"0", "0.75"}))

	easings := svc.deps.Session.Easings()
	require.NotEmpty(t, easings)
	assert.InDelta(t, 0.75, easings[0].Bias, 1e-9)

	assert.Error(t, svc.HandleSetEasing([]string{"0"}))
}

func TestHandleUndo_RefusedAtActivationBoundary(t *testing.T) {
	svc, _, h := newTestService(t)
	require.NoError(t, svc.HandleActivate([]string{"wholeTimeline"}))

	assert.False(t, svc.HandleUndo())
	assert.Zero(t, h.undos)
}

func TestHandleCancel_RestoresDocument(t *testing.T) {
	svc, doc, _ := newTestService(t)
	require.NoError(t, svc.HandleActivate([]string{"wholeTimeline"}))

	mid := svc.deps.Session.Pins()[1]
	midID := strconv.FormatUint(uint64(mid.ID), 10)
	require.NoError(t, svc.HandlePress([]string{"50", "pin", midID, "0", ""}))
	require.NoError(t, svc.HandleMove([]string{"70", ""}))
	_, err := svc.HandleRelease([]string{"70", ""})
	require.NoError(t, err)

	require.NoError(t, svc.HandleCancel())

	assert.False(t, svc.deps.Session.Active())
	assert.InDelta(t, 50, sampleTime(t, doc, 1), 1e-9)
}

func TestRegisterAll(t *testing.T) {
	svc, doc, _ := newTestService(t)

	d, err := dispatcher.New(logging.NewDispatcherLogger(zerolog.Nop()))
	require.NoError(t, err)
	svc.RegisterAll(d)

	for _, cmd := range []string{
		core.CmdActivate, core.CmdPress, core.CmdMove, core.CmdRelease,
		core.CmdAddPinAtPointer, core.CmdAddPinAtPlayhead,
		core.CmdDeletePin, core.CmdDeleteAllPins,
		core.CmdSetEasing, core.CmdRedistribute,
		core.CmdUndo, core.CmdCancel, core.CmdCommit,
	} {
		assert.True(t, d.HasHandler(cmd), cmd)
	}

	// No telemetry manager, no flush handler.
	assert.False(t, d.HasHandler(core.CmdTelemetryFlush))

	res, err := d.Dispatch(dispatcher.Event{Command: core.CmdActivate, Args: []string{"wholeTimeline"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)

	mid := svc.deps.Session.Pins()[1]
	midID := strconv.FormatUint(uint64(mid.ID), 10)
	_, err = d.Dispatch(dispatcher.Event{Command: core.CmdPress, Args: []string{"50", "pin", midID, "0", ""}})
	require.NoError(t, err)
	_, err = d.Dispatch(dispatcher.Event{Command: core.CmdMove, Args: []string{"60", ""}})
	require.NoError(t, err)
	res, err = d.Dispatch(dispatcher.Event{Command: core.CmdRelease, Args: []string{"60", ""}})
	require.NoError(t, err)
	assert.Equal(t, "retime: drag pin", res)
	assert.InDelta(t, 60, sampleTime(t, doc, 1), 1e-9)

	res, err = d.Dispatch(dispatcher.Event{Command: core.CmdUndo})
	require.NoError(t, err)
	assert.Equal(t, "refused", res)

	res, err = d.Dispatch(dispatcher.Event{Command: core.CmdCommit})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.False(t, svc.deps.Session.Active())
}
