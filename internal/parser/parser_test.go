package parser

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/animtools/timewarp/internal/drag"
	"github.com/animtools/timewarp/pkg/core"
)

func newTestParser() *Parser {
	return NewParser(slog.Default())
}

func TestParsePress(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name    string
		input   []string
		check   func(t *testing.T, ev PressEvent)
		wantErr bool
	}{
		{
			name:  "pin target",
			input: []string{"12.5", "pin", "3", "-1", ""},
			check: func(t *testing.T, ev PressEvent) {
				assert.Equal(t, 12.5, ev.Time)
				assert.Equal(t, drag.TargetPin, ev.Target.Kind)
				assert.Equal(t, core.PinID(3), ev.Target.Pin)
				assert.False(t, ev.Mods.PropagateAhead)
			},
		},
		{
			name:  "pin id serialized as float",
			input: []string{"12.5", "pin", "3.00", "-1", ""},
			check: func(t *testing.T, ev PressEvent) {
				assert.Equal(t, core.PinID(3), ev.Target.Pin)
			},
		},
		{
			name:  "bar target with modifiers",
			input: []string{"40", "bar", "2", "3", "ahead,snap"},
			check: func(t *testing.T, ev PressEvent) {
				assert.Equal(t, drag.TargetBar, ev.Target.Kind)
				assert.Equal(t, core.PinID(2), ev.Target.Left)
				assert.Equal(t, core.PinID(3), ev.Target.Right)
				assert.True(t, ev.Mods.PropagateAhead)
				assert.True(t, ev.Mods.SnapToggle)
				assert.False(t, ev.Mods.PropagateBehind)
			},
		},
		{
			name:  "ease target",
			input: []string{"55.25", "ease", "1", "-1", ""},
			check: func(t *testing.T, ev PressEvent) {
				assert.Equal(t, drag.TargetEase, ev.Target.Kind)
				assert.Equal(t, 1, ev.Target.Segment)
			},
		},
		{
			name:  "quoted wire strings",
			input: []string{`"12.5"`, `"pin"`, `"3"`, `"-1"`, `"behind"`},
			check: func(t *testing.T, ev PressEvent) {
				assert.Equal(t, 12.5, ev.Time)
				assert.True(t, ev.Mods.PropagateBehind)
			},
		},
		{
			name:    "unknown target kind",
			input:   []string{"12.5", "handle", "3", "-1", ""},
			wantErr: true,
		},
		{
			name:    "too few args",
			input:   []string{"12.5", "pin"},
			wantErr: true,
		},
		{
			name:    "bad time",
			input:   []string{"noon", "pin", "3", "-1", ""},
			wantErr: true,
		},
		{
			name:    "negative pin id",
			input:   []string{"12.5", "pin", "-3", "-1", ""},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := p.ParsePress(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, ev)
		})
	}
}

func TestParseMoveRelease(t *testing.T) {
	p := newTestParser()

	ev, err := p.ParseMove([]string{"14.75", "ahead"})
	require.NoError(t, err)
	assert.Equal(t, 14.75, ev.Time)
	assert.True(t, ev.Mods.PropagateAhead)

	ev, err = p.ParseRelease([]string{"20"})
	require.NoError(t, err)
	assert.Equal(t, 20.0, ev.Time)
	assert.Equal(t, core.Modifiers{}, ev.Mods)

	_, err = p.ParseMove(nil)
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	p := newTestParser()

	v, err := p.ParseTime([]string{`"37.5"`})
	require.NoError(t, err)
	assert.Equal(t, 37.5, v)

	_, err = p.ParseTime([]string{"later"})
	assert.Error(t, err)
}

func TestParsePinID(t *testing.T) {
	p := newTestParser()

	id, err := p.ParsePinID([]string{"7.00"})
	require.NoError(t, err)
	assert.Equal(t, core.PinID(7), id)

	_, err = p.ParsePinID(nil)
	assert.Error(t, err)
}

func TestParseSetEasing(t *testing.T) {
	p := newTestParser()

	seg, bias, err := p.ParseSetEasing([]string{"1", "0.75"})
	require.NoError(t, err)
	assert.Equal(t, 1, seg)
	assert.Equal(t, 0.75, bias)

	_, _, err = p.ParseSetEasing([]string{"1"})
	assert.Error(t, err)

	_, _, err = p.ParseSetEasing([]string{"1.5", "0.75"})
	assert.Error(t, err)
}

func TestParseModifiers_UnknownTokenSkipped(t *testing.T) {
	p := newTestParser()

	mods := p.ParseModifiers("ahead,wiggle,snap")
	assert.True(t, mods.PropagateAhead)
	assert.True(t, mods.SnapToggle)
	assert.False(t, mods.PropagateBehind)
}
