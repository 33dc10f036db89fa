// Package midiout sends routed signals to a physical MIDI output port via
// the rtmidi driver.
package midiout

import (
	"fmt"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/stagecue/stagecue/pkg/midi"
)

// Port is a midi.DeviceOut backed by one rtmidi output port.
type Port struct {
	drv  *rtmididrv.Driver
	out  drivers.Out
	send func(gomidi.Message) error
}

// Open connects to the first output port whose name contains name.
func Open(name string) (*Port, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midiout: create driver: %w", err)
	}

	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("midiout: list ports: %w", err)
	}

	for _, out := range outs {
		if !strings.Contains(out.String(), name) {
			continue
		}
		if err := out.Open(); err != nil {
			drv.Close()
			return nil, fmt.Errorf("midiout: open port %q: %w", out.String(), err)
		}
		send, err := gomidi.SendTo(out)
		if err != nil {
			drv.Close()
			return nil, fmt.Errorf("midiout: sender for %q: %w", out.String(), err)
		}
		return &Port{drv: drv, out: out, send: send}, nil
	}

	drv.Close()
	return nil, fmt.Errorf("midiout: no output port matching %q", name)
}

// Send translates a routed signal into a wire message and writes it to the
// port.
func (p *Port) Send(s midi.Signal) error {
	ch := uint8(s.Channel)
	note := uint8(s.Note)
	vel := uint8(s.Velocity)

	var msg gomidi.Message
	switch s.Command {
	case midi.CommandNoteOn:
		msg = gomidi.NoteOn(ch, note, vel)
	case midi.CommandNoteOff:
		msg = gomidi.NoteOff(ch, note)
	case midi.CommandControlChange:
		msg = gomidi.ControlChange(ch, note, vel)
	default:
		msg = gomidi.Message([]byte{byte(s.Command) | ch, note, vel})
	}

	return p.send(msg)
}

// Close releases the port and the driver.
func (p *Port) Close() error {
	if p.out != nil {
		p.out.Close()
	}
	return p.drv.Close()
}
