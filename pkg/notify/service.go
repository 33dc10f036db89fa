package notify

import (
	"github.com/stagecue/stagecue/internal/log"
	"github.com/stagecue/stagecue/pkg/composition"
	"github.com/stagecue/stagecue/pkg/midi"
)

// Service implements composition.Notifier on top of a websocket hub.
type Service struct {
	hub *Hub
}

// NewService creates the notification service. The hub's Run loop must be
// started by the caller.
func NewService(hub *Hub) *Service {
	return &Service{hub: hub}
}

// Hub exposes the underlying hub for the websocket transport.
func (s *Service) Hub() *Hub {
	return s.hub
}

func (s *Service) broadcast(msgType MessageType, data interface{}) {
	msg, err := NewMessage(msgType, data)
	if err != nil {
		log.Error("build notification", "type", msgType, "err", err)
		return
	}
	b, err := msg.Bytes()
	if err != nil {
		log.Error("encode notification", "type", msgType, "err", err)
		return
	}
	s.hub.Broadcast(b)
}

// NotifyState broadcasts the current transport state.
func (s *Service) NotifyState(st composition.Status) {
	s.broadcast(TypeState, st)
}

// NotifyAlert broadcasts a free-text alert.
func (s *Service) NotifyAlert(message string) {
	s.broadcast(TypeAlert, AlertData{Message: message})
}

// NotifyMidi broadcasts one monitored MIDI signal.
func (s *Service) NotifyMidi(sig midi.Signal, direction midi.Direction, source midi.Source) {
	s.broadcast(TypeMidi, MidiData{
		Channel:   sig.Channel,
		Command:   sig.Command,
		Note:      sig.Note,
		Velocity:  sig.Velocity,
		Direction: string(direction),
		Source:    string(source),
	})
}

// NotifyLevels broadcasts audio peak meter values.
func (s *Service) NotifyLevels(peaks []float64) {
	s.broadcast(TypeLevels, LevelsData{Peaks: peaks})
}
