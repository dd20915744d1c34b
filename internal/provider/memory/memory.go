// Package memory implements the provider interfaces over an in-memory
// document. The CLI harness and the test suite use it in place of a live
// host application; data can be loaded from and exported to JSON.
package memory

import (
	"fmt"
	"sync"

	"github.com/animtools/timewarp/internal/provider"
	"github.com/animtools/timewarp/internal/scope"
	"github.com/animtools/timewarp/pkg/core"
)

// SampleRecord is one sample of a channel with its tangent handle times.
type SampleRecord struct {
	Time         float64 `json:"time"`
	Value        float64 `json:"value"`
	LeftTangent  float64 `json:"leftTangent"`
	RightTangent float64 `json:"rightTangent"`
	Selected     bool    `json:"selected,omitempty"`
}

// ChannelRecord groups a channel with its samples and host-side flags.
type ChannelRecord struct {
	Name     string         `json:"name"`
	Clip     string         `json:"clip,omitempty"`
	Visible  bool           `json:"visible"`
	Selected bool           `json:"selected,omitempty"`
	Samples  []SampleRecord `json:"samples"`
}

// MarkerRecord is one named timeline marker.
type MarkerRecord struct {
	Name string  `json:"name"`
	Time float64 `json:"time"`
}

// Document holds channels and markers in memory and implements
// provider.ChannelProvider, provider.MarkerProvider, and scope.Resolver.
type Document struct {
	mu          sync.RWMutex
	order       []string
	channels    map[string]*ChannelRecord
	markers     []MarkerRecord
	currentClip string
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		channels: make(map[string]*ChannelRecord),
	}
}

// AddChannel registers a channel. An existing channel with the same name
// is replaced.
func (d *Document) AddChannel(ch ChannelRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.channels[ch.Name]; !ok {
		d.order = append(d.order, ch.Name)
	}
	c := ch
	d.channels[ch.Name] = &c
}

// AddMarker registers a marker and returns its ref.
func (d *Document) AddMarker(m MarkerRecord) provider.MarkerRef {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.markers = append(d.markers, m)
	return provider.MarkerRef(len(d.markers) - 1)
}

// SetCurrentClip sets the clip used by the SingleClip scope.
func (d *Document) SetCurrentClip(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.currentClip = name
}

// ListChannels returns all channel names in registration order.
func (d *Document) ListChannels() ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out, nil
}

// Samples returns refs for every sample of a channel.
func (d *Document) Samples(channel string) ([]provider.SampleRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ch, ok := d.channels[channel]
	if !ok {
		return nil, fmt.Errorf("unknown channel %q", channel)
	}
	refs := make([]provider.SampleRef, len(ch.Samples))
	for i := range ch.Samples {
		refs[i] = provider.SampleRef{Channel: channel, Index: i}
	}
	return refs, nil
}

func (d *Document) sample(ref provider.SampleRef) (*SampleRecord, error) {
	ch, ok := d.channels[ref.Channel]
	if !ok {
		return nil, fmt.Errorf("unknown channel %q", ref.Channel)
	}
	if ref.Index < 0 || ref.Index >= len(ch.Samples) {
		return nil, fmt.Errorf("sample index %d out of range for channel %q", ref.Index, ref.Channel)
	}
	return &ch.Samples[ref.Index], nil
}

// Time returns a sample's primary time.
func (d *Document) Time(ref provider.SampleRef) (float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, err := d.sample(ref)
	if err != nil {
		return 0, err
	}
	return s.Time, nil
}

// SetTime rewrites a sample's primary time.
func (d *Document) SetTime(ref provider.SampleRef, t float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.sample(ref)
	if err != nil {
		return err
	}
	s.Time = t
	return nil
}

// TangentTimes returns a sample's tangent handle times.
func (d *Document) TangentTimes(ref provider.SampleRef) (float64, float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, err := d.sample(ref)
	if err != nil {
		return 0, 0, err
	}
	return s.LeftTangent, s.RightTangent, nil
}

// SetTangentTimes rewrites a sample's tangent handle times.
func (d *Document) SetTangentTimes(ref provider.SampleRef, left, right float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.sample(ref)
	if err != nil {
		return err
	}
	s.LeftTangent = left
	s.RightTangent = right
	return nil
}

// ListMarkers returns refs for all markers.
func (d *Document) ListMarkers() ([]provider.MarkerRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	refs := make([]provider.MarkerRef, len(d.markers))
	for i := range d.markers {
		refs[i] = provider.MarkerRef(i)
	}
	return refs, nil
}

func (d *Document) marker(ref provider.MarkerRef) (*MarkerRecord, error) {
	if int(ref) < 0 || int(ref) >= len(d.markers) {
		return nil, fmt.Errorf("unknown marker ref %d", ref)
	}
	return &d.markers[ref], nil
}

// MarkerTime returns a marker's time.
func (d *Document) MarkerTime(ref provider.MarkerRef) (float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, err := d.marker(ref)
	if err != nil {
		return 0, err
	}
	return m.Time, nil
}

// SetMarkerTime rewrites a marker's time.
func (d *Document) SetMarkerTime(ref provider.MarkerRef, t float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, err := d.marker(ref)
	if err != nil {
		return err
	}
	m.Time = t
	return nil
}

// Name returns a marker's display name.
func (d *Document) Name(ref provider.MarkerRef) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, err := d.marker(ref)
	if err != nil {
		return "", err
	}
	return m.Name, nil
}

// Rename sets a marker's display name.
func (d *Document) Rename(ref provider.MarkerRef, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	m, err := d.marker(ref)
	if err != nil {
		return err
	}
	m.Name = name
	return nil
}

// Resolve implements scope.Resolver over the in-memory document.
func (d *Document) Resolve(s core.Scope) (scope.Resolution, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	res := scope.Resolution{Scope: s}

	for _, name := range d.order {
		ch := d.channels[name]
		switch s {
		case core.ScopeSingleClip:
			if ch.Clip != d.currentClip {
				continue
			}
		case core.ScopeSelectedElements:
			if !ch.Selected {
				continue
			}
		case core.ScopeVisibleChannels:
			if !ch.Visible {
				continue
			}
		}

		for i := range ch.Samples {
			if s == core.ScopeSelectedSamplesOnly && !ch.Samples[i].Selected {
				continue
			}
			res.Samples = append(res.Samples, provider.SampleRef{Channel: name, Index: i})
		}
	}

	for i := range d.markers {
		res.Markers = append(res.Markers, provider.MarkerRef(i))
	}

	if res.Empty() {
		return scope.Resolution{}, fmt.Errorf("%w: %s", scope.ErrEmptyScope, s)
	}
	return res, nil
}
