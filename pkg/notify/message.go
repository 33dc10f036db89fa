// Package notify broadcasts transport state and monitoring events to
// connected clients over websockets. Broadcasts are fire-and-forget: a
// failure is logged and never reaches the playback engine.
package notify

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of a broadcast message.
type MessageType string

const (
	// TypeState carries the current transport state.
	TypeState MessageType = "state"
	// TypeAlert carries a free-text alert for the operator.
	TypeAlert MessageType = "alert"
	// TypeMidi carries one monitored MIDI signal.
	TypeMidi MessageType = "midi"
	// TypeLevels carries audio peak meter values.
	TypeLevels MessageType = "levels"
)

// Message is the wrapper for all broadcast messages.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("notify: marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct.
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message.
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// AlertData is the payload of a TypeAlert message.
type AlertData struct {
	Message string `json:"message"`
}

// MidiData is the payload of a TypeMidi monitoring message.
type MidiData struct {
	Channel   int    `json:"channel"`
	Command   int    `json:"command"`
	Note      int    `json:"note"`
	Velocity  int    `json:"velocity"`
	Direction string `json:"direction"`
	Source    string `json:"source"`
}

// LevelsData is the payload of a TypeLevels message.
type LevelsData struct {
	Peaks []float64 `json:"peaks"`
}
