package midi

// Mapping shifts the channel and note of routed signals. Fields are pointers
// so an unset value falls through to the parent mapping.
type Mapping struct {
	ChannelOffset *int `yaml:"channelOffset,omitempty" json:"channelOffset,omitempty"`
	NoteOffset    *int `yaml:"noteOffset,omitempty" json:"noteOffset,omitempty"`
}

// resolve returns the effective offsets for a local mapping with a fallback
// parent. This is an explicit two-level lookup; mappings never hold a
// back-reference to their parent.
func resolve(local, parent *Mapping) (channelOffset, noteOffset int) {
	pick := func(a, b *int) int {
		if a != nil {
			return *a
		}
		if b != nil {
			return *b
		}
		return 0
	}
	if local == nil {
		local = &Mapping{}
	}
	if parent == nil {
		parent = &Mapping{}
	}
	return pick(local.ChannelOffset, parent.ChannelOffset), pick(local.NoteOffset, parent.NoteOffset)
}

// Apply shifts a signal by the resolved offsets. The channel wraps within
// 0-15; the note is clamped to 0-127.
func Apply(s Signal, local, parent *Mapping) Signal {
	chOff, noteOff := resolve(local, parent)

	out := s
	out.Channel = ((s.Channel+chOff)%16 + 16) % 16
	out.Note = s.Note + noteOff
	if out.Note < 0 {
		out.Note = 0
	}
	if out.Note > 127 {
		out.Note = 127
	}
	return out
}
