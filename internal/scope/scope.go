// Package scope resolves a scope selection into the concrete set of
// samples and markers a retime session operates on. Resolution happens
// host-side; the engine only consumes the result, and refuses to start a
// session on an empty one.
package scope

import (
	"errors"

	"github.com/animtools/timewarp/internal/provider"
	"github.com/animtools/timewarp/pkg/core"
)

// ErrEmptyScope is returned when a scope resolves to no animatable data.
// It surfaces before any snapshot is captured, so failed activation
// leaves no partial state behind.
var ErrEmptyScope = errors.New("no animatable data in scope")

// Resolution is the concrete sample/marker set for one scope selection.
type Resolution struct {
	Scope   core.Scope
	Samples []provider.SampleRef
	Markers []provider.MarkerRef
}

// Empty reports whether the resolution contains no samples. Markers alone
// do not make a scope usable; pins are seeded from sample times.
func (r Resolution) Empty() bool {
	return len(r.Samples) == 0
}

// Resolver maps a scope selection to the data it covers.
type Resolver interface {
	Resolve(s core.Scope) (Resolution, error)
}
