// Package lighting converts routed MIDI signals into DMX output. Note-on
// velocity drives a channel value, note-off releases it; every change pushes
// the whole universe to the configured Art-Net node.
package lighting

import (
	"sync"

	"github.com/stagecue/stagecue/pkg/midi"
)

// UniverseSize is the channel count of one DMX universe.
const UniverseSize = 512

// Sender pushes a DMX universe to the lighting hardware.
type Sender interface {
	SendDMX(universe [UniverseSize]byte) error
}

// Converter implements midi.LightingSink. Each MIDI note addresses one DMX
// channel; velocity 0-127 is scaled to 0-254.
type Converter struct {
	mu       sync.Mutex
	universe [UniverseSize]byte
	sender   Sender
}

// NewConverter creates a converter that pushes to sender.
func NewConverter(sender Sender) *Converter {
	return &Converter{sender: sender}
}

// HandleSignal updates the universe from a signal and sends it.
func (c *Converter) HandleSignal(s midi.Signal) error {
	c.mu.Lock()
	switch s.Command {
	case midi.CommandNoteOn:
		c.universe[s.Note] = byte(s.Velocity * 2)
	case midi.CommandNoteOff:
		c.universe[s.Note] = 0
	default:
		c.mu.Unlock()
		return nil
	}
	universe := c.universe
	c.mu.Unlock()

	return c.sender.SendDMX(universe)
}

// Blackout clears the universe and sends it.
func (c *Converter) Blackout() error {
	c.mu.Lock()
	c.universe = [UniverseSize]byte{}
	universe := c.universe
	c.mu.Unlock()

	return c.sender.SendDMX(universe)
}
