package midi

import (
	"errors"
	"sync/atomic"

	"github.com/stagecue/stagecue/internal/log"
)

// ErrInvalidData is returned when a signal cannot be sent downstream.
var ErrInvalidData = errors.New("midi: invalid signal data")

// Destination selects where a routing forwards signals.
type Destination string

const (
	DestinationOutDevice Destination = "out-device"
	DestinationLighting  Destination = "lighting"
)

// Routing is one configured forwarding rule of a composition MIDI file. Its
// mapping overrides the player-wide mapping per field.
type Routing struct {
	Destination Destination `yaml:"destination" json:"midiDestination"`
	Mapping     *Mapping    `yaml:"mapping,omitempty" json:"midiMapping,omitempty"`
}

// DeviceOut sends signals to a physical MIDI output.
type DeviceOut interface {
	Send(Signal) error
}

// LightingSink receives signals routed to the lighting subsystem.
type LightingSink interface {
	HandleSignal(Signal) error
}

// Router forwards the decoded signals of one composition MIDI file to its
// configured destinations. One router exists per active MIDI file for the
// lifetime of a play session.
type Router struct {
	routings []Routing
	parent   *Mapping
	out      DeviceOut
	lighting LightingSink

	// closed is read on the delivery goroutine and set on the transport
	// goroutine tearing the session down.
	closed atomic.Bool
}

// NewRouter creates a router for a single MIDI file. parent is the
// player-wide mapping each routing's local mapping falls back to. out and
// lighting may be nil when the corresponding collaborator is not configured.
func NewRouter(routings []Routing, parent *Mapping, out DeviceOut, lighting LightingSink) *Router {
	return &Router{
		routings: routings,
		parent:   parent,
		out:      out,
		lighting: lighting,
	}
}

// SendSignal applies each routing's mapping and forwards the signal. An
// out-of-range signal fails with ErrInvalidData before touching any
// destination; per-destination failures are wrapped with the same sentinel.
func (r *Router) SendSignal(s Signal) error {
	if r.closed.Load() {
		return nil
	}
	if s.Channel < 0 || s.Channel > 15 || s.Note < 0 || s.Note > 127 || s.Velocity < 0 || s.Velocity > 127 {
		return ErrInvalidData
	}

	for _, routing := range r.routings {
		mapped := Apply(s, routing.Mapping, r.parent)

		switch routing.Destination {
		case DestinationOutDevice:
			if r.out == nil {
				continue
			}
			if err := r.out.Send(mapped); err != nil {
				return errors.Join(ErrInvalidData, err)
			}
		case DestinationLighting:
			if r.lighting == nil {
				continue
			}
			if err := r.lighting.HandleSignal(mapped); err != nil {
				return errors.Join(ErrInvalidData, err)
			}
		default:
			log.Warn("unknown midi routing destination", "destination", routing.Destination)
		}
	}
	return nil
}

// Close stops the router. Further SendSignal calls are no-ops.
func (r *Router) Close() {
	r.closed.Store(true)
}
