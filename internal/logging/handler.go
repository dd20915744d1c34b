package logging

import (
	"context"
	"log/slog"
)

// AttrProvider returns dynamic attributes stamped onto every record,
// typically the active session id and scope.
type AttrProvider func() []slog.Attr

// sessionHandler fans one record out to every sink, adding the
// provider's attributes first. All sinks receive every record a sink is
// enabled for; one failing sink does not block the others.
type sessionHandler struct {
	provider AttrProvider
	sinks    []slog.Handler
}

func newSessionHandler(provider AttrProvider, sinks ...slog.Handler) *sessionHandler {
	valid := make([]slog.Handler, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			valid = append(valid, s)
		}
	}
	return &sessionHandler{provider: provider, sinks: valid}
}

func (h *sessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range h.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *sessionHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	for _, s := range h.sinks {
		if s.Enabled(ctx, r.Level) {
			if err := s.Handle(ctx, r.Clone()); err != nil {
				continue
			}
		}
	}
	return nil
}

func (h *sessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sinks := make([]slog.Handler, len(h.sinks))
	for i, s := range h.sinks {
		sinks[i] = s.WithAttrs(attrs)
	}
	return &sessionHandler{provider: h.provider, sinks: sinks}
}

func (h *sessionHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	sinks := make([]slog.Handler, len(h.sinks))
	for i, s := range h.sinks {
		sinks[i] = s.WithGroup(name)
	}
	return &sessionHandler{provider: h.provider, sinks: sinks}
}
