// Package config provides the read-only settings snapshot for stagecue.
// Settings come from a YAML file with environment-variable overrides for
// the values that differ between installs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/stagecue/stagecue/pkg/audio"
	"github.com/stagecue/stagecue/pkg/midi"
)

// Defaults for a fresh install.
const (
	DefaultWebPort         = "8080"
	DefaultAudioSampleRate = 48000
)

// Settings is the configuration snapshot the engine consumes. It is loaded
// once at startup and treated as immutable afterwards.
type Settings struct {
	BasePath         string `yaml:"basePath"`
	MediaPath        string `yaml:"mediaPath"`
	AudioPath        string `yaml:"audioPath"`
	MidiPath         string `yaml:"midiPath"`
	VideoPath        string `yaml:"videoPath"`
	CompositionsPath string `yaml:"compositionsPath"`
	DesignerPath     string `yaml:"designerPath"`

	AudioDevice     string  `yaml:"audioDevice"`
	AudioSampleRate int     `yaml:"audioSampleRate"`
	AudioVolume     float32 `yaml:"audioVolume"`

	OffsetMillisAudio int64 `yaml:"offsetMillisAudio"`
	OffsetMillisMidi  int64 `yaml:"offsetMillisMidi"`

	EnableMonitor bool `yaml:"enableMonitor"`

	AudioBuses  []audio.Bus  `yaml:"audioBusList"`
	MidiMapping midi.Mapping `yaml:"midiMapping"`

	MidiOutDevice  string `yaml:"midiOutDevice"`
	LightingTarget string `yaml:"lightingTarget"`

	// DefaultComposition loops in the background whenever nothing else
	// plays. Empty disables it.
	DefaultComposition string `yaml:"defaultComposition"`

	WebPort  string `yaml:"webPort"`
	LogLevel string `yaml:"logLevel"`
}

// Default returns the settings used when no file exists yet.
func Default() *Settings {
	return &Settings{
		BasePath:         ".",
		MediaPath:        "media",
		AudioPath:        "audio",
		MidiPath:         "midi",
		VideoPath:        "video",
		CompositionsPath: "compositions",
		DesignerPath:     "designer",
		AudioSampleRate:  DefaultAudioSampleRate,
		AudioVolume:      1.0,
		AudioBuses:       []audio.Bus{{Name: "main", Channels: 2}},
		WebPort:          DefaultWebPort,
		LogLevel:         "info",
	}
}

// Load reads the settings file at path and applies env overrides. A missing
// file yields the defaults so a bare install still starts.
func Load(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Keep defaults.
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(s)
	return s, nil
}

// applyEnv applies the environment overrides. Only values that commonly
// differ per install are exposed this way.
func applyEnv(s *Settings) {
	if v := os.Getenv("STAGECUE_BASE_PATH"); v != "" {
		s.BasePath = v
	}
	if v := os.Getenv("STAGECUE_AUDIO_DEVICE"); v != "" {
		s.AudioDevice = v
	}
	if v := os.Getenv("STAGECUE_WEB_PORT"); v != "" {
		s.WebPort = v
	}
	if v := os.Getenv("STAGECUE_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
}

// TotalAudioChannels is the width of the global output, derived from the
// configured bus list.
func (s *Settings) TotalAudioChannels() int {
	return audio.TotalChannels(s.AudioBuses)
}

// AudioBusByName looks up a configured bus.
func (s *Settings) AudioBusByName(name string) (audio.Bus, bool) {
	return audio.BusByName(s.AudioBuses, name)
}

// AudioFilePath resolves a composition audio file name to an absolute path.
func (s *Settings) AudioFilePath(name string) string {
	return filepath.Join(s.BasePath, s.MediaPath, s.AudioPath, name)
}

// MidiFilePath resolves a composition MIDI file name to an absolute path.
func (s *Settings) MidiFilePath(name string) string {
	return filepath.Join(s.BasePath, s.MediaPath, s.MidiPath, name)
}

// VideoFilePath resolves a composition video file name to an absolute path.
func (s *Settings) VideoFilePath(name string) string {
	return filepath.Join(s.BasePath, s.MediaPath, s.VideoPath, name)
}

// CompositionsDir is the directory holding composition files.
func (s *Settings) CompositionsDir() string {
	return filepath.Join(s.BasePath, s.CompositionsPath)
}

// DesignerDir is the directory holding lighting project files.
func (s *Settings) DesignerDir() string {
	return filepath.Join(s.BasePath, s.DesignerPath)
}
