// Package midi decodes channel-voice messages from composition MIDI streams
// and routes them to the lighting and MIDI-out collaborators.
package midi

// Channel-voice command nibbles.
const (
	CommandNoteOff       = 0x80
	CommandNoteOn        = 0x90
	CommandPolyPressure  = 0xa0
	CommandControlChange = 0xb0
	CommandProgramChange = 0xc0
	CommandChanPressure  = 0xd0
	CommandPitchBend     = 0xe0
)

// Signal is one decoded channel-voice message.
type Signal struct {
	Channel  int `json:"channel"`
	Command  int `json:"command"`
	Note     int `json:"note"`
	Velocity int `json:"velocity"`
}

// Direction tells monitoring clients which way a signal traveled.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Source tells monitoring clients where a signal originated.
type Source string

const (
	SourceMidiFile Source = "midi-file"
	SourceInDevice Source = "in-device"
)
