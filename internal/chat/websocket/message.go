package websocket

import (
	"encoding/json"

	commonerrors "github.com/quickchat/server/internal/common/errors"
)

type EventType string

const (
	TypeOnlineUsers EventType = "online_users"
	TypeNewMessage  EventType = "new_message"
	TypeError       EventType = "error"
)

// Event is the single frame shape exchanged over the socket. Payload holds
// the type-specific body.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type OnlineUsersPayload struct {
	UserIDs []string `json:"userIds"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewEvent(eventType EventType, payload any) (*Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, commonerrors.ErrMarshalError.WithCause(err)
	}
	return &Event{Type: eventType, Payload: body}, nil
}

func (e *Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, commonerrors.ErrMarshalError.WithCause(err)
	}
	return data, nil
}
