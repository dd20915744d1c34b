package parser

import (
	"github.com/animtools/timewarp/internal/drag"
	"github.com/animtools/timewarp/pkg/core"
)

// PressEvent is a parsed press payload: where the pointer went down, what
// control it grabbed, and the modifier state at press time.
type PressEvent struct {
	Time   float64
	Target drag.Target
	Mods   core.Modifiers
}

// PointerEvent is a parsed move or release payload.
type PointerEvent struct {
	Time float64
	Mods core.Modifiers
}
