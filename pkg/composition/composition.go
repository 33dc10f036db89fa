// Package composition holds the show composition data model and the player
// that runs one composition as a synchronized unit of audio, MIDI, video and
// lighting.
package composition

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/stagecue/stagecue/pkg/midi"
)

// FileInfo carries the fields every composition file variant shares.
type FileInfo struct {
	Name         string `json:"name"`
	Active       bool   `json:"active"`
	OffsetMillis int64  `json:"offsetMillis,omitempty"`
}

// File is one entry of a composition. The concrete variants are AudioFile,
// MidiFile and VideoFile; consumers dispatch with a type switch.
type File interface {
	Info() FileInfo
}

// AudioFile is routed into the shared mixer on its output bus.
type AudioFile struct {
	FileInfo
	OutputBus string  `json:"outputBus,omitempty"`
	Channels  int     `json:"channels,omitempty"`
	Volume    float32 `json:"volume,omitempty"`
}

// Info implements File.
func (f AudioFile) Info() FileInfo { return f.FileInfo }

// MidiFile streams decoded signals through its own router.
type MidiFile struct {
	FileInfo
	Routings []midi.Routing `json:"midiRoutingList,omitempty"`
}

// Info implements File.
func (f MidiFile) Info() FileInfo { return f.FileInfo }

// VideoFile plays back independently. Video has no offset support.
type VideoFile struct {
	FileInfo
}

// Info implements File.
func (f VideoFile) Info() FileInfo { return f.FileInfo }

// Composition is one show segment: an ordered list of media files plus an
// optional lighting project, playable as one synchronized unit. It is
// immutable during a play session.
type Composition struct {
	Name  string `json:"name"`
	Loop  bool   `json:"loop,omitempty"`
	Files []File `json:"files"`
}

// HasActiveFile reports whether any file takes part in playback.
func (c *Composition) HasActiveFile() bool {
	for _, f := range c.Files {
		if f.Info().Active {
			return true
		}
	}
	return false
}

// HasActiveAudioFile reports whether the graph needs the shared mixing sink.
func (c *Composition) HasActiveAudioFile() bool {
	for _, f := range c.Files {
		if _, ok := f.(AudioFile); ok && f.Info().Active {
			return true
		}
	}
	return false
}

// fileEnvelope carries the type discriminator used on the wire.
type fileEnvelope struct {
	Type string `json:"type"`
}

// File variant discriminators.
const (
	fileTypeAudio = "audio"
	fileTypeMidi  = "midi"
	fileTypeVideo = "video"
)

// UnmarshalJSON decodes the file list with its type discriminators.
func (c *Composition) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  string            `json:"name"`
		Loop  bool              `json:"loop"`
		Files []json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Name = raw.Name
	c.Loop = raw.Loop
	c.Files = make([]File, 0, len(raw.Files))

	for i, rawFile := range raw.Files {
		var env fileEnvelope
		if err := json.Unmarshal(rawFile, &env); err != nil {
			return fmt.Errorf("composition: file %d: %w", i, err)
		}

		switch env.Type {
		case fileTypeAudio:
			f := AudioFile{Channels: 2, Volume: 1.0}
			if err := json.Unmarshal(rawFile, &f); err != nil {
				return fmt.Errorf("composition: audio file %d: %w", i, err)
			}
			c.Files = append(c.Files, f)
		case fileTypeMidi:
			var f MidiFile
			if err := json.Unmarshal(rawFile, &f); err != nil {
				return fmt.Errorf("composition: midi file %d: %w", i, err)
			}
			c.Files = append(c.Files, f)
		case fileTypeVideo:
			var f VideoFile
			if err := json.Unmarshal(rawFile, &f); err != nil {
				return fmt.Errorf("composition: video file %d: %w", i, err)
			}
			c.Files = append(c.Files, f)
		default:
			return fmt.Errorf("composition: file %d: unknown type %q", i, env.Type)
		}
	}
	return nil
}

// MarshalJSON encodes the file list with its type discriminators.
func (c *Composition) MarshalJSON() ([]byte, error) {
	type taggedAudio struct {
		Type string `json:"type"`
		AudioFile
	}
	type taggedMidi struct {
		Type string `json:"type"`
		MidiFile
	}
	type taggedVideo struct {
		Type string `json:"type"`
		VideoFile
	}

	files := make([]interface{}, 0, len(c.Files))
	for _, f := range c.Files {
		switch v := f.(type) {
		case AudioFile:
			files = append(files, taggedAudio{fileTypeAudio, v})
		case MidiFile:
			files = append(files, taggedMidi{fileTypeMidi, v})
		case VideoFile:
			files = append(files, taggedVideo{fileTypeVideo, v})
		default:
			return nil, fmt.Errorf("composition: unknown file variant %T", f)
		}
	}

	return json.Marshal(struct {
		Name  string        `json:"name"`
		Loop  bool          `json:"loop,omitempty"`
		Files []interface{} `json:"files"`
	}{c.Name, c.Loop, files})
}

// LoadFile reads a composition from a JSON file.
func LoadFile(path string) (*Composition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("composition: read %s: %w", path, err)
	}
	var c Composition
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("composition: parse %s: %w", path, err)
	}
	return &c, nil
}
