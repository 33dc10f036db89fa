package midi

import "errors"

// ErrShortBuffer is returned when a channel-voice buffer is too short to
// carry status, note and velocity bytes. Two-byte messages delivered by a
// malformed stream must fail loudly instead of reading out of range.
var ErrShortBuffer = errors.New("midi: buffer shorter than 3 bytes")

// Decode parses a raw buffer pulled from a MIDI elementary stream.
//
// System messages (status high nibble 0xF0) carry no channel-voice payload
// and are skipped: Decode reports ok=false with no error. For everything
// else the buffer must hold at least status, note and velocity.
func Decode(buf []byte) (Signal, bool, error) {
	if len(buf) == 0 {
		return Signal{}, false, ErrShortBuffer
	}

	status := buf[0]
	if status&0xf0 == 0xf0 {
		return Signal{}, false, nil
	}

	if len(buf) < 3 {
		return Signal{}, false, ErrShortBuffer
	}

	return Signal{
		Channel:  int(status & 0x0f),
		Command:  int(status & 0xf0),
		Note:     int(buf[1] & 0x7f),
		Velocity: int(buf[2] & 0x7f),
	}, true, nil
}
