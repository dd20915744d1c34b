// Package provider declares the host-side data interfaces the retime
// engine writes through. Channels, samples, and markers are owned by the
// host application; the engine never creates or destroys them, it only
// rewrites their times during a remap.
package provider

// SampleRef identifies one sample within a host channel.
type SampleRef struct {
	Channel string
	Index   int
}

// MarkerRef identifies one timeline marker.
type MarkerRef uint

// ChannelProvider exposes the animatable channels of the host document.
type ChannelProvider interface {
	// ListChannels returns the names of all channels.
	ListChannels() ([]string, error)

	// Samples returns refs for every sample of a channel, in time order.
	Samples(channel string) ([]SampleRef, error)

	// Time returns a sample's primary time.
	Time(ref SampleRef) (float64, error)

	// SetTime rewrites a sample's primary time.
	SetTime(ref SampleRef, t float64) error

	// TangentTimes returns the absolute times of a sample's left and
	// right tangent handles.
	TangentTimes(ref SampleRef) (left, right float64, err error)

	// SetTangentTimes rewrites both tangent handle times.
	SetTangentTimes(ref SampleRef, left, right float64) error
}

// MarkerProvider exposes the host's named timeline markers. Method names
// carry the Marker prefix so one host type can implement both provider
// interfaces.
type MarkerProvider interface {
	ListMarkers() ([]MarkerRef, error)
	MarkerTime(ref MarkerRef) (float64, error)
	SetMarkerTime(ref MarkerRef, t float64) error
	Name(ref MarkerRef) (string, error)

	// Rename is used after commit when the configuration asks for marker
	// names to reflect their new time.
	Rename(ref MarkerRef, name string) error
}
