package media

import "github.com/stagecue/stagecue/pkg/audio"

// AudioSource is one audio file branch: decode, convert with a routing
// matrix, resample, then feed the shared mixer.
type AudioSource struct {
	Path         string
	OutputBus    string
	Channels     int
	Volume       float32
	OffsetMillis int64
}

// MidiSource is one MIDI file branch: parse the stream and hand every
// delivered buffer to Deliver. Deliver runs on a graph-internal goroutine
// and must not block.
type MidiSource struct {
	Path         string
	OffsetMillis int64
	Deliver      func(buf []byte)
}

// VideoSource is one independent video playback branch. Video branches have
// no offset support.
type VideoSource struct {
	Path string
}

// Spec describes the graph to build for one composition play session.
type Spec struct {
	Audio []AudioSource
	Midi  []MidiSource
	Video []VideoSource

	// Buses defines the global output channel layout; GlobalVolume scales
	// every source's mix matrix.
	Buses        []audio.Bus
	GlobalVolume float32

	// Device is the audio output device, empty for the system default.
	Device     string
	SampleRate int

	// Loop makes the graph seek back to zero on end of stream instead of
	// firing OnEOS.
	Loop bool

	// Metering inserts a level stage before the sink and enables OnLevels.
	Metering bool

	Handlers Handlers
}

// HasAudio reports whether the spec needs the shared mixing sink.
func (s Spec) HasAudio() bool {
	return len(s.Audio) > 0
}
