package midi

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		want    Signal
		wantOK  bool
		wantErr error
	}{
		{
			name:   "note on channel 3",
			buf:    []byte{0x93, 0x40, 0x64},
			want:   Signal{Channel: 3, Command: CommandNoteOn, Note: 0x40, Velocity: 0x64},
			wantOK: true,
		},
		{
			name:   "note off channel 0",
			buf:    []byte{0x80, 0x24, 0x00},
			want:   Signal{Channel: 0, Command: CommandNoteOff, Note: 0x24, Velocity: 0},
			wantOK: true,
		},
		{
			name:   "control change channel 15",
			buf:    []byte{0xbf, 0x07, 0x7f},
			want:   Signal{Channel: 15, Command: CommandControlChange, Note: 7, Velocity: 127},
			wantOK: true,
		},
		{
			name:   "high bits of data bytes are masked",
			buf:    []byte{0x90, 0xff, 0xff},
			want:   Signal{Channel: 0, Command: CommandNoteOn, Note: 0x7f, Velocity: 0x7f},
			wantOK: true,
		},
		{
			name:   "system message is skipped",
			buf:    []byte{0xf0, 0x7e, 0x00},
			wantOK: false,
		},
		{
			name:   "short system message is skipped",
			buf:    []byte{0xff},
			wantOK: false,
		},
		{
			name:    "empty buffer",
			buf:     nil,
			wantErr: ErrShortBuffer,
		},
		{
			name:    "two byte channel message",
			buf:     []byte{0xc0, 0x05},
			wantErr: ErrShortBuffer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Decode(tt.buf)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Fatalf("Decode() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Decode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
