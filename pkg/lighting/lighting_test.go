package lighting

import (
	"testing"

	"github.com/stagecue/stagecue/pkg/midi"
)

type captureSender struct {
	frames [][UniverseSize]byte
}

func (c *captureSender) SendDMX(universe [UniverseSize]byte) error {
	c.frames = append(c.frames, universe)
	return nil
}

func TestConverterNoteOnOff(t *testing.T) {
	sender := &captureSender{}
	conv := NewConverter(sender)

	on := midi.Signal{Command: midi.CommandNoteOn, Note: 10, Velocity: 100}
	if err := conv.HandleSignal(on); err != nil {
		t.Fatalf("HandleSignal(on) error = %v", err)
	}
	if len(sender.frames) != 1 || sender.frames[0][10] != 200 {
		t.Fatalf("after note on, frames = %d, channel 10 = %d", len(sender.frames), sender.frames[0][10])
	}

	off := midi.Signal{Command: midi.CommandNoteOff, Note: 10}
	if err := conv.HandleSignal(off); err != nil {
		t.Fatalf("HandleSignal(off) error = %v", err)
	}
	if sender.frames[1][10] != 0 {
		t.Errorf("after note off, channel 10 = %d, want 0", sender.frames[1][10])
	}
}

func TestConverterIgnoresOtherCommands(t *testing.T) {
	sender := &captureSender{}
	conv := NewConverter(sender)

	cc := midi.Signal{Command: midi.CommandControlChange, Note: 7, Velocity: 64}
	if err := conv.HandleSignal(cc); err != nil {
		t.Fatalf("HandleSignal(cc) error = %v", err)
	}
	if len(sender.frames) != 0 {
		t.Errorf("control change sent %d frames, want 0", len(sender.frames))
	}
}

func TestConverterBlackout(t *testing.T) {
	sender := &captureSender{}
	conv := NewConverter(sender)

	conv.HandleSignal(midi.Signal{Command: midi.CommandNoteOn, Note: 1, Velocity: 127})
	if err := conv.Blackout(); err != nil {
		t.Fatalf("Blackout() error = %v", err)
	}

	last := sender.frames[len(sender.frames)-1]
	if last[1] != 0 {
		t.Errorf("after blackout, channel 1 = %d, want 0", last[1])
	}
}

func TestBuildArtDMX(t *testing.T) {
	payload := make([]byte, UniverseSize)
	payload[0] = 255

	packet := buildArtDMX(7, 0x0102, payload)

	if string(packet[0:8]) != "Art-Net\x00" {
		t.Errorf("header = %q", packet[0:8])
	}
	if packet[8] != 0x00 || packet[9] != 0x50 {
		t.Errorf("opcode = %x %x, want 00 50", packet[8], packet[9])
	}
	if packet[11] != 14 {
		t.Errorf("protocol version = %d, want 14", packet[11])
	}
	if packet[12] != 7 {
		t.Errorf("sequence = %d, want 7", packet[12])
	}
	if packet[14] != 0x02 || packet[15] != 0x01 {
		t.Errorf("universe bytes = %x %x, want 02 01", packet[14], packet[15])
	}
	if packet[16] != 0x02 || packet[17] != 0x00 {
		t.Errorf("length bytes = %x %x, want 02 00", packet[16], packet[17])
	}
	if packet[18] != 255 {
		t.Errorf("payload[0] = %d, want 255", packet[18])
	}
}
