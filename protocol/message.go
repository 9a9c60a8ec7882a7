// Package protocol defines the JSON text-message envelope exchanged over a
// room connection, and the payload types carried inside it. It holds no
// transport or game-state logic of its own.
package protocol

import (
	"encoding/json"
	"time"
)

// MessageType identifies the payload carried by a Message.
type MessageType string

const (
	// Client -> Server
	MessageTypeCreateRoom  MessageType = "create_room"
	MessageTypeJoinRoom    MessageType = "join_room"
	MessageTypeListRooms   MessageType = "list_rooms"
	MessageTypePlay        MessageType = "play"
	MessageTypePass        MessageType = "pass"
	MessageTypeRestartGame MessageType = "restart_game"
	MessageTypePing        MessageType = "ping"

	// Server -> Client
	MessageTypeWelcome       MessageType = "welcome"
	MessageTypeRoomCreated   MessageType = "room_created"
	MessageTypeJoined        MessageType = "joined"
	MessageTypeRoomsList     MessageType = "rooms_list"
	MessageTypeRoomState     MessageType = "room_state"
	MessageTypePlayRejected  MessageType = "play_rejected"
	MessageTypeGameOver      MessageType = "game_over"
	MessageTypeRoomInterrupt MessageType = "room_interrupted"
	MessageTypeGameRestarted MessageType = "game_restarted"
	MessageTypeError         MessageType = "error"
	MessageTypePong          MessageType = "pong"
)

func (mt MessageType) String() string { return string(mt) }

// Message is the envelope every text message on a connection is wrapped in.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// New wraps data into a Message of the given type, marshalling data to JSON.
func New(messageType MessageType, data interface{}) (*Message, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return &Message{Type: messageType, Data: raw, Timestamp: timeNow()}, nil
}

// timeNow is a var so tests can substitute a fixed clock without reaching
// into the package's exported surface.
var timeNow = time.Now
