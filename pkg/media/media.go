// Package media defines the contract between the composition player and the
// engine that runs the decode/convert/mix/sink graph. The concrete GStreamer
// implementation lives in media/gstmedia and registers itself on import, so
// the player and its tests never link the native engine directly.
package media

import "errors"

// Common errors returned when building a graph.
var (
	ErrEngineUnavailable = errors.New("media: gstreamer engine not available")
	ErrNoFactory         = errors.New("media: no graph engine registered")
)

// Graph is one built pipeline for a single play session. It is exclusively
// owned by one player and torn down on every load.
type Graph interface {
	// Play starts the graph. The OnPlaying handler fires asynchronously once
	// the graph actually reaches its playing condition.
	Play() error

	// Pause freezes the graph without releasing the output device.
	Pause() error

	// Stop halts the graph. The underlying teardown can block briefly.
	Stop() error

	// Seek jumps to the given position. Only valid once the graph has been
	// started at least once.
	Seek(positionMillis int64) error

	// PositionMillis queries the graph's shared clock.
	PositionMillis() int64

	// Close releases every element and the output device. The graph must not
	// be used afterwards.
	Close()
}

// Handlers receives the asynchronous events of a running graph. All handlers
// are optional and are invoked from the graph's own notification goroutine,
// never from the caller's.
type Handlers struct {
	// OnError fires on a fatal pipeline error. The graph keeps running its
	// notification loop until Close.
	OnError func(err error)

	// OnPlaying fires when the top-level graph transitions into its playing
	// condition.
	OnPlaying func()

	// OnEOS fires when a non-looping graph reaches end of stream. Looping
	// graphs restart internally and never fire this.
	OnEOS func()

	// OnLevels forwards peak meter values when metering is enabled.
	OnLevels func(peaks []float64)
}

// Factory builds a Graph for a spec.
type Factory func(spec Spec) (Graph, error)

var factory Factory

// Register sets the graph factory. Called by the engine implementation in
// init().
func Register(f Factory) {
	factory = f
}

// Build constructs a graph with the registered engine.
func Build(spec Spec) (Graph, error) {
	if factory == nil {
		return nil, ErrNoFactory
	}
	return factory(spec)
}
