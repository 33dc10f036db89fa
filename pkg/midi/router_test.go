package midi

import (
	"errors"
	"sync"
	"testing"
)

type recordingOut struct {
	sent []Signal
	err  error
}

func (r *recordingOut) Send(s Signal) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, s)
	return nil
}

type recordingLighting struct {
	handled []Signal
}

func (r *recordingLighting) HandleSignal(s Signal) error {
	r.handled = append(r.handled, s)
	return nil
}

func intPtr(v int) *int { return &v }

func TestApplyMappingFallback(t *testing.T) {
	parent := &Mapping{ChannelOffset: intPtr(1), NoteOffset: intPtr(12)}

	tests := []struct {
		name  string
		local *Mapping
		in    Signal
		want  Signal
	}{
		{
			name:  "nil local falls back to parent",
			local: nil,
			in:    Signal{Channel: 2, Command: CommandNoteOn, Note: 60, Velocity: 100},
			want:  Signal{Channel: 3, Command: CommandNoteOn, Note: 72, Velocity: 100},
		},
		{
			name:  "local overrides one field only",
			local: &Mapping{NoteOffset: intPtr(-12)},
			in:    Signal{Channel: 2, Command: CommandNoteOn, Note: 60, Velocity: 100},
			want:  Signal{Channel: 3, Command: CommandNoteOn, Note: 48, Velocity: 100},
		},
		{
			name:  "local overrides both fields",
			local: &Mapping{ChannelOffset: intPtr(0), NoteOffset: intPtr(0)},
			in:    Signal{Channel: 2, Command: CommandNoteOn, Note: 60, Velocity: 100},
			want:  Signal{Channel: 2, Command: CommandNoteOn, Note: 60, Velocity: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Apply(tt.in, tt.local, parent); got != tt.want {
				t.Errorf("Apply() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestApplyMappingClamps(t *testing.T) {
	s := Signal{Channel: 15, Note: 120, Velocity: 10}
	got := Apply(s, &Mapping{ChannelOffset: intPtr(3), NoteOffset: intPtr(20)}, nil)
	if got.Channel != 2 {
		t.Errorf("channel = %d, want wrapped 2", got.Channel)
	}
	if got.Note != 127 {
		t.Errorf("note = %d, want clamped 127", got.Note)
	}
}

func TestRouterSendSignal(t *testing.T) {
	out := &recordingOut{}
	lighting := &recordingLighting{}
	routings := []Routing{
		{Destination: DestinationOutDevice, Mapping: &Mapping{ChannelOffset: intPtr(1)}},
		{Destination: DestinationLighting},
	}

	r := NewRouter(routings, nil, out, lighting)
	s := Signal{Channel: 0, Command: CommandNoteOn, Note: 60, Velocity: 90}

	if err := r.SendSignal(s); err != nil {
		t.Fatalf("SendSignal() error = %v", err)
	}

	if len(out.sent) != 1 || out.sent[0].Channel != 1 {
		t.Errorf("out device got %+v, want one signal on channel 1", out.sent)
	}
	if len(lighting.handled) != 1 || lighting.handled[0].Channel != 0 {
		t.Errorf("lighting got %+v, want one signal on channel 0", lighting.handled)
	}
}

func TestRouterInvalidSignal(t *testing.T) {
	out := &recordingOut{}
	r := NewRouter([]Routing{{Destination: DestinationOutDevice}}, nil, out, nil)

	err := r.SendSignal(Signal{Channel: 16, Note: 0, Velocity: 0})
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("SendSignal() error = %v, want ErrInvalidData", err)
	}
	if len(out.sent) != 0 {
		t.Errorf("out device got %d signals, want 0", len(out.sent))
	}
}

func TestRouterDownstreamFailure(t *testing.T) {
	out := &recordingOut{err: errors.New("port gone")}
	r := NewRouter([]Routing{{Destination: DestinationOutDevice}}, nil, out, nil)

	err := r.SendSignal(Signal{Channel: 0, Note: 60, Velocity: 64})
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("SendSignal() error = %v, want ErrInvalidData", err)
	}
}

func TestRouterNilCollaborators(t *testing.T) {
	r := NewRouter([]Routing{
		{Destination: DestinationOutDevice},
		{Destination: DestinationLighting},
	}, nil, nil, nil)

	if err := r.SendSignal(Signal{Channel: 0, Note: 1, Velocity: 1}); err != nil {
		t.Fatalf("SendSignal() with nil collaborators error = %v", err)
	}
}

func TestRouterCloseDuringDelivery(t *testing.T) {
	out := &recordingOut{}
	r := NewRouter([]Routing{{Destination: DestinationOutDevice}}, nil, out, nil)

	// Deliveries arrive on the media goroutine while teardown closes the
	// router from the transport side.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if err := r.SendSignal(Signal{Channel: 0, Note: 60, Velocity: 64}); err != nil {
				t.Errorf("SendSignal() error = %v", err)
				return
			}
		}
	}()
	r.Close()
	wg.Wait()

	if err := r.SendSignal(Signal{Channel: 0, Note: 1, Velocity: 1}); err != nil {
		t.Fatalf("SendSignal() after Close error = %v", err)
	}
}

func TestRouterClose(t *testing.T) {
	out := &recordingOut{}
	r := NewRouter([]Routing{{Destination: DestinationOutDevice}}, nil, out, nil)
	r.Close()

	if err := r.SendSignal(Signal{Channel: 0, Note: 1, Velocity: 1}); err != nil {
		t.Fatalf("SendSignal() after Close error = %v", err)
	}
	if len(out.sent) != 0 {
		t.Errorf("out device got %d signals after Close, want 0", len(out.sent))
	}
}
