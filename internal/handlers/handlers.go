package handlers

import (
	"context"
	"log/slog"

	"github.com/animtools/timewarp/internal/dispatcher"
	"github.com/animtools/timewarp/internal/logging"
	"github.com/animtools/timewarp/internal/parser"
	"github.com/animtools/timewarp/internal/session"
	"github.com/animtools/timewarp/internal/telemetry"
	"github.com/animtools/timewarp/pkg/core"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Session    *session.Session
	Parser     *parser.Parser
	Telemetry  *telemetry.Manager
	LogManager *logging.Manager
}

// Service provides handler methods for processing host input commands
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	return &Service{deps: deps}
}

func (s *Service) logger() *slog.Logger {
	if s.deps.LogManager != nil {
		return s.deps.LogManager.Logger()
	}
	return slog.Default()
}

// HandleActivate starts a retime session over the named scope.
func (s *Service) HandleActivate(data []string) error {
	sc, err := s.deps.Parser.ParseScope(data)
	if err != nil {
		s.logger().Error("Bad activate payload", "error", err)
		return err
	}
	return s.deps.Session.Activate(sc)
}

// HandlePress begins a drag gesture on a pin, bar, or ease handle.
func (s *Service) HandlePress(data []string) error {
	ev, err := s.deps.Parser.ParsePress(data)
	if err != nil {
		s.logger().Error("Bad press payload", "error", err)
		return err
	}
	return s.deps.Session.Press(ev.Target, ev.Time, ev.Mods)
}

// HandleMove advances the drag in progress.
func (s *Service) HandleMove(data []string) error {
	ev, err := s.deps.Parser.ParseMove(data)
	if err != nil {
		s.logger().Error("Bad move payload", "error", err)
		return err
	}
	return s.deps.Session.Move(ev.Time, ev.Mods)
}

// HandleRelease finishes the drag in progress. Returns the commit label,
// or "" when no drag was active.
func (s *Service) HandleRelease(data []string) (string, error) {
	ev, err := s.deps.Parser.ParseRelease(data)
	if err != nil {
		s.logger().Error("Bad release payload", "error", err)
		return "", err
	}
	return s.deps.Session.Release(ev.Time, ev.Mods)
}

// HandleAddPinAtPointer adds a landmark at the pointer time.
func (s *Service) HandleAddPinAtPointer(data []string) (core.PinID, error) {
	t, err := s.deps.Parser.ParseTime(data)
	if err != nil {
		s.logger().Error("Bad add-pin payload", "error", err)
		return 0, err
	}
	return s.deps.Session.AddPinAtPointer(t)
}

// HandleAddPinAtPlayhead adds a landmark at the playhead time.
func (s *Service) HandleAddPinAtPlayhead(data []string) (core.PinID, error) {
	t, err := s.deps.Parser.ParseTime(data)
	if err != nil {
		s.logger().Error("Bad add-pin payload", "error", err)
		return 0, err
	}
	return s.deps.Session.AddPinAtPlayhead(t)
}

// HandleDeletePin removes one landmark by id.
func (s *Service) HandleDeletePin(data []string) error {
	id, err := s.deps.Parser.ParsePinID(data)
	if err != nil {
		s.logger().Error("Bad delete-pin payload", "error", err)
		return err
	}
	return s.deps.Session.DeletePin(id)
}

// HandleDeleteAll removes every landmark in the session.
func (s *Service) HandleDeleteAll() error {
	return s.deps.Session.DeleteAllPins()
}

// HandleSetEasing sets a segment's easing bias directly.
func (s *Service) HandleSetEasing(data []string) error {
	segment, bias, err := s.deps.Parser.ParseSetEasing(data)
	if err != nil {
		s.logger().Error("Bad easing payload", "error", err)
		return err
	}
	return s.deps.Session.SetEasing(segment, bias)
}

// HandleRedistribute spaces the interior landmarks evenly.
func (s *Service) HandleRedistribute() error {
	return s.deps.Session.Redistribute()
}

// HandleUndo steps the host history back one checkpoint. Returns whether
// an undo was performed; refusal at the activation boundary is not an
// error.
func (s *Service) HandleUndo() bool {
	return s.deps.Session.Undo()
}

// HandleCancel abandons the session and restores the activation state.
func (s *Service) HandleCancel() error {
	return s.deps.Session.Cancel()
}

// HandleCommit accepts the retimed result and ends the session.
func (s *Service) HandleCommit() error {
	return s.deps.Session.Commit()
}

func result(err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return "ok", nil
}

// RegisterAll wires every session command into the dispatcher. Edit
// commands are registered unbuffered so events apply in arrival order;
// only the telemetry flush queues.
func (s *Service) RegisterAll(d *dispatcher.Dispatcher) {
	d.Register(core.CmdActivate, func(e dispatcher.Event) (any, error) {
		return result(s.HandleActivate(e.Args))
	})
	d.Register(core.CmdPress, func(e dispatcher.Event) (any, error) {
		return result(s.HandlePress(e.Args))
	})
	d.Register(core.CmdMove, func(e dispatcher.Event) (any, error) {
		return result(s.HandleMove(e.Args))
	})
	d.Register(core.CmdRelease, func(e dispatcher.Event) (any, error) {
		label, err := s.HandleRelease(e.Args)
		if err != nil {
			return nil, err
		}
		return label, nil
	})
	d.Register(core.CmdAddPinAtPointer, func(e dispatcher.Event) (any, error) {
		id, err := s.HandleAddPinAtPointer(e.Args)
		if err != nil {
			return nil, err
		}
		return id, nil
	})
	d.Register(core.CmdAddPinAtPlayhead, func(e dispatcher.Event) (any, error) {
		id, err := s.HandleAddPinAtPlayhead(e.Args)
		if err != nil {
			return nil, err
		}
		return id, nil
	})
	d.Register(core.CmdDeletePin, func(e dispatcher.Event) (any, error) {
		return result(s.HandleDeletePin(e.Args))
	})
	d.Register(core.CmdDeleteAllPins, func(e dispatcher.Event) (any, error) {
		return result(s.HandleDeleteAll())
	})
	d.Register(core.CmdSetEasing, func(e dispatcher.Event) (any, error) {
		return result(s.HandleSetEasing(e.Args))
	})
	d.Register(core.CmdRedistribute, func(e dispatcher.Event) (any, error) {
		return result(s.HandleRedistribute())
	})
	d.Register(core.CmdUndo, func(e dispatcher.Event) (any, error) {
		if s.HandleUndo() {
			return "undone", nil
		}
		return "refused", nil
	})
	d.Register(core.CmdCancel, func(e dispatcher.Event) (any, error) {
		return result(s.HandleCancel())
	})
	d.Register(core.CmdCommit, func(e dispatcher.Event) (any, error) {
		return result(s.HandleCommit())
	})

	if s.deps.Telemetry != nil {
		d.Register(core.CmdTelemetryFlush, func(e dispatcher.Event) (any, error) {
			return result(s.deps.Telemetry.Flush(context.Background()))
		}, dispatcher.Buffered(8), dispatcher.Logged())
	}
}
