// pkg/core/events.go
package core

// EventKind identifies the class of a host-delivered input event.
type EventKind int

const (
	EventPress EventKind = iota
	EventMove
	EventRelease
	EventCommand
)

// String returns the event kind name used in logs.
func (k EventKind) String() string {
	switch k {
	case EventPress:
		return "press"
	case EventMove:
		return "move"
	case EventRelease:
		return "release"
	case EventCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Named commands delivered as discrete key events by the host. These are
// the command strings the dispatcher routes on.
const (
	CmdAddPinAtPointer  = ":PIN:ADD:POINTER:"
	CmdAddPinAtPlayhead = ":PIN:ADD:PLAYHEAD:"
	CmdDeletePin        = ":PIN:DELETE:"
	CmdDeleteAllPins    = ":PIN:DELETE:ALL:"
	CmdSetEasing        = ":SEGMENT:EASING:"
	CmdRedistribute     = ":PIN:REDISTRIBUTE:"
	CmdUndo             = ":SESSION:UNDO:"
	CmdCancel           = ":SESSION:CANCEL:"
	CmdCommit           = ":SESSION:COMMIT:"
	CmdPress            = ":INPUT:PRESS:"
	CmdMove             = ":INPUT:MOVE:"
	CmdRelease          = ":INPUT:RELEASE:"
	CmdActivate         = ":SESSION:START:"
	CmdTelemetryFlush   = ":TELEMETRY:FLUSH:"
)

// Modifiers carries the modifier-key state attached to a pointer event.
type Modifiers struct {
	// PropagateAhead extends a drag to pins on the same side as the
	// motion direction.
	PropagateAhead bool

	// PropagateBehind extends a drag to pins on the opposite side,
	// without neighbor clamping.
	PropagateBehind bool

	// SnapToggle inverts the configured whole-unit snapping for the
	// duration of the drag.
	SnapToggle bool
}

// InputEvent is one pointer event after host coordinates have been mapped
// into the time axis. Pointer-to-time conversion happens host-side.
type InputEvent struct {
	Kind      EventKind
	Time      float64
	PinID     PinID
	Modifiers Modifiers
}
