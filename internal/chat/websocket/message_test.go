package websocket

import (
	"encoding/json"
	"testing"
)

func TestEventEncode(t *testing.T) {
	event, err := NewEvent(TypeOnlineUsers, OnlineUsersPayload{UserIDs: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := event.Encode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		Type    EventType `json:"type"`
		Payload struct {
			UserIDs []string `json:"userIds"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	if decoded.Type != TypeOnlineUsers {
		t.Fatalf("type = %q, want %q", decoded.Type, TypeOnlineUsers)
	}
	if len(decoded.Payload.UserIDs) != 2 || decoded.Payload.UserIDs[0] != "a" {
		t.Fatalf("unexpected payload: %+v", decoded.Payload)
	}
}

func TestNewEventRejectsUnmarshalablePayload(t *testing.T) {
	if _, err := NewEvent(TypeNewMessage, func() {}); err == nil {
		t.Fatal("expected marshal error")
	}
}
