package composition

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stagecue/stagecue/pkg/midi"
)

func TestCompositionUnmarshalVariants(t *testing.T) {
	data := []byte(`{
		"name": "opening",
		"loop": true,
		"files": [
			{"type": "audio", "name": "band.wav", "active": true, "outputBus": "monitor", "channels": 4, "volume": 0.8, "offsetMillis": 250},
			{"type": "midi", "name": "lights.mid", "active": true, "midiRoutingList": [{"midiDestination": "out-device"}]},
			{"type": "video", "name": "backdrop.mp4", "active": false}
		]
	}`)

	var c Composition
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if c.Name != "opening" || !c.Loop {
		t.Errorf("header = %q loop=%v, want opening/true", c.Name, c.Loop)
	}
	if len(c.Files) != 3 {
		t.Fatalf("files = %d, want 3", len(c.Files))
	}

	a, ok := c.Files[0].(AudioFile)
	if !ok {
		t.Fatalf("file 0 = %T, want AudioFile", c.Files[0])
	}
	if a.OutputBus != "monitor" || a.Channels != 4 || a.Volume != 0.8 || a.OffsetMillis != 250 {
		t.Errorf("audio file = %+v", a)
	}

	m, ok := c.Files[1].(MidiFile)
	if !ok {
		t.Fatalf("file 1 = %T, want MidiFile", c.Files[1])
	}
	if len(m.Routings) != 1 || m.Routings[0].Destination != midi.DestinationOutDevice {
		t.Errorf("midi routings = %+v", m.Routings)
	}

	if _, ok := c.Files[2].(VideoFile); !ok {
		t.Fatalf("file 2 = %T, want VideoFile", c.Files[2])
	}
}

func TestCompositionUnmarshalAudioDefaults(t *testing.T) {
	data := []byte(`{"name": "x", "files": [{"type": "audio", "name": "a.wav", "active": true}]}`)

	var c Composition
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	a := c.Files[0].(AudioFile)
	if a.Channels != 2 {
		t.Errorf("channels = %d, want default 2", a.Channels)
	}
	if a.Volume != 1.0 {
		t.Errorf("volume = %v, want default 1.0", a.Volume)
	}
}

func TestCompositionUnmarshalUnknownType(t *testing.T) {
	data := []byte(`{"name": "x", "files": [{"type": "hologram", "name": "h"}]}`)

	var c Composition
	if err := json.Unmarshal(data, &c); err == nil {
		t.Fatal("expected error for unknown file type")
	}
}

func TestCompositionMarshalRoundTrip(t *testing.T) {
	original := Composition{
		Name: "finale",
		Files: []File{
			AudioFile{FileInfo: FileInfo{Name: "a.wav", Active: true}, Channels: 2, Volume: 1.0},
			MidiFile{FileInfo: FileInfo{Name: "m.mid", Active: true}},
			VideoFile{FileInfo: FileInfo{Name: "v.mp4"}},
		},
	}

	b, err := json.Marshal(&original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Composition
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Name != original.Name || len(decoded.Files) != 3 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if _, ok := decoded.Files[0].(AudioFile); !ok {
		t.Errorf("file 0 = %T, want AudioFile", decoded.Files[0])
	}
	if _, ok := decoded.Files[1].(MidiFile); !ok {
		t.Errorf("file 1 = %T, want MidiFile", decoded.Files[1])
	}
	if _, ok := decoded.Files[2].(VideoFile); !ok {
		t.Errorf("file 2 = %T, want VideoFile", decoded.Files[2])
	}
}

func TestHasActiveFile(t *testing.T) {
	tests := []struct {
		name      string
		files     []File
		want      bool
		wantAudio bool
	}{
		{
			name: "no files",
			want: false,
		},
		{
			name:  "all inactive",
			files: []File{AudioFile{FileInfo: FileInfo{Name: "a", Active: false}}},
			want:  false,
		},
		{
			name:      "active audio",
			files:     []File{AudioFile{FileInfo: FileInfo{Name: "a", Active: true}}},
			want:      true,
			wantAudio: true,
		},
		{
			name:  "active midi only",
			files: []File{MidiFile{FileInfo: FileInfo{Name: "m", Active: true}}},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Composition{Files: tt.files}
			if got := c.HasActiveFile(); got != tt.want {
				t.Errorf("HasActiveFile() = %v, want %v", got, tt.want)
			}
			if got := c.HasActiveAudioFile(); got != tt.wantAudio {
				t.Errorf("HasActiveAudioFile() = %v, want %v", got, tt.wantAudio)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "show.json")
	content := `{"name": "show", "files": [{"type": "audio", "name": "a.wav", "active": true}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if c.Name != "show" || len(c.Files) != 1 {
		t.Errorf("composition = %+v", c)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
