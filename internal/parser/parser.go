// Package parser provides pure []string -> typed event conversion for the
// host wire protocol. It has zero external dependencies beyond a logger.
package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/animtools/timewarp/internal/drag"
	"github.com/animtools/timewarp/internal/util"
	"github.com/animtools/timewarp/pkg/core"
)

// parseUintFromFloat parses a string that may be an integer ("32") or float
// ("32.00") into uint64. The host scripting layer has no integer type, so
// ids may arrive serialized as floats.
func parseUintFromFloat(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("parseUintFromFloat: %q is not a valid uint64", s)
	}
	return uint64(f), nil
}

// parseIntFromFloat parses a string that may be an integer or float into int64.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// Parser converts host wire payloads into typed events.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseModifiers parses a comma-separated modifier token list.
// Unknown tokens are logged and skipped.
func (p *Parser) ParseModifiers(s string) core.Modifiers {
	var mods core.Modifiers
	s = util.CleanWireString(s)
	if s == "" {
		return mods
	}
	for _, token := range strings.Split(s, ",") {
		switch strings.TrimSpace(token) {
		case "ahead":
			mods.PropagateAhead = true
		case "behind":
			mods.PropagateBehind = true
		case "snap":
			mods.SnapToggle = true
		case "":
		default:
			p.logger.Warn("unknown modifier token", "token", token)
		}
	}
	return mods
}

// ParsePress parses press data and returns the typed press event.
//
// Args: [time, targetKind, ref1, ref2, modifiers]
//   - pin:  ref1 = pin id, ref2 unused
//   - bar:  ref1 = left pin id, ref2 = right pin id
//   - ease: ref1 = segment index, ref2 unused
func (p *Parser) ParsePress(data []string) (PressEvent, error) {
	var ev PressEvent

	if len(data) < 5 {
		return ev, fmt.Errorf("press: expected 5 args, got %d", len(data))
	}
	for i, v := range data {
		data[i] = util.CleanWireString(v)
	}

	t, err := strconv.ParseFloat(data[0], 64)
	if err != nil {
		return ev, fmt.Errorf("error parsing press time: %w", err)
	}
	ev.Time = t

	switch data[1] {
	case "pin":
		id, err := parseUintFromFloat(data[2])
		if err != nil {
			return ev, fmt.Errorf("error parsing pin id: %w", err)
		}
		ev.Target = drag.PinTarget(core.PinID(id))
	case "bar":
		left, err := parseUintFromFloat(data[2])
		if err != nil {
			return ev, fmt.Errorf("error parsing left pin id: %w", err)
		}
		right, err := parseUintFromFloat(data[3])
		if err != nil {
			return ev, fmt.Errorf("error parsing right pin id: %w", err)
		}
		ev.Target = drag.BarTarget(core.PinID(left), core.PinID(right))
	case "ease":
		seg, err := parseIntFromFloat(data[2])
		if err != nil {
			return ev, fmt.Errorf("error parsing segment index: %w", err)
		}
		ev.Target = drag.EaseTarget(int(seg))
	default:
		return ev, fmt.Errorf("unknown press target kind %q", data[1])
	}

	ev.Mods = p.ParseModifiers(data[4])
	return ev, nil
}

// ParseMove parses move data.
//
// Args: [time, modifiers]
func (p *Parser) ParseMove(data []string) (PointerEvent, error) {
	return p.parsePointer("move", data)
}

// ParseRelease parses release data.
//
// Args: [time, modifiers]
func (p *Parser) ParseRelease(data []string) (PointerEvent, error) {
	return p.parsePointer("release", data)
}

func (p *Parser) parsePointer(what string, data []string) (PointerEvent, error) {
	var ev PointerEvent

	if len(data) < 1 {
		return ev, fmt.Errorf("%s: expected at least 1 arg, got %d", what, len(data))
	}

	t, err := strconv.ParseFloat(util.CleanWireString(data[0]), 64)
	if err != nil {
		return ev, fmt.Errorf("error parsing %s time: %w", what, err)
	}
	ev.Time = t

	if len(data) > 1 {
		ev.Mods = p.ParseModifiers(data[1])
	}
	return ev, nil
}

// ParseTime parses a single time argument (pin add commands).
//
// Args: [time]
func (p *Parser) ParseTime(data []string) (float64, error) {
	if len(data) < 1 {
		return 0, fmt.Errorf("expected time arg, got none")
	}
	t, err := strconv.ParseFloat(util.CleanWireString(data[0]), 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing time: %w", err)
	}
	return t, nil
}

// ParsePinID parses a single pin-id argument (pin delete command).
//
// Args: [pinId]
func (p *Parser) ParsePinID(data []string) (core.PinID, error) {
	if len(data) < 1 {
		return 0, fmt.Errorf("expected pin id arg, got none")
	}
	id, err := parseUintFromFloat(util.CleanWireString(data[0]))
	if err != nil {
		return 0, fmt.Errorf("error parsing pin id: %w", err)
	}
	return core.PinID(id), nil
}

// ParseSetEasing parses segment easing data.
//
// Args: [segment, bias]
func (p *Parser) ParseSetEasing(data []string) (segment int, bias float64, err error) {
	if len(data) < 2 {
		return 0, 0, fmt.Errorf("easing: expected 2 args, got %d", len(data))
	}

	seg, err := parseIntFromFloat(util.CleanWireString(data[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing segment index: %w", err)
	}

	bias, err = strconv.ParseFloat(util.CleanWireString(data[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing bias: %w", err)
	}
	return int(seg), bias, nil
}

// ParseScope parses a session scope name (activation command).
//
// Args: [scope]
func (p *Parser) ParseScope(data []string) (core.Scope, error) {
	if len(data) < 1 {
		return 0, fmt.Errorf("expected scope arg, got none")
	}

	switch util.CleanWireString(data[0]) {
	case "wholeTimeline":
		return core.ScopeWholeTimeline, nil
	case "singleClip":
		return core.ScopeSingleClip, nil
	case "selectedElements":
		return core.ScopeSelectedElements, nil
	case "visibleChannels":
		return core.ScopeVisibleChannels, nil
	case "selectedSamplesOnly":
		return core.ScopeSelectedSamplesOnly, nil
	}
	return 0, fmt.Errorf("unknown scope %q", data[0])
}
