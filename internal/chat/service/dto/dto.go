package dto

import (
	"time"

	messagedomain "github.com/quickchat/server/internal/message/domain"
	userdomain "github.com/quickchat/server/internal/user/domain"
)

type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	ImageURL   string    `json:"imageUrl,omitempty"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"createdAt"`
}

func FromMessage(m messagedomain.Message) Message {
	return Message{
		ID:         string(m.ID),
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		ImageURL:   m.ImageURL,
		Seen:       m.Seen,
		CreatedAt:  m.CreatedAt,
	}
}

func FromMessages(msgs []messagedomain.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, FromMessage(m))
	}
	return out
}

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	Bio           string    `json:"bio,omitempty"`
	ProfilePicURL string    `json:"profilePic,omitempty"`
	LastSeenAt    time.Time `json:"lastSeenAt"`
}

func FromUserSummary(s userdomain.Summary) User {
	return User{
		ID:            string(s.ID),
		Email:         s.Email,
		FullName:      s.FullName,
		Bio:           s.Bio,
		ProfilePicURL: s.ProfilePicURL,
		LastSeenAt:    s.LastSeenAt,
	}
}

func FromUserSummaries(summaries []userdomain.Summary) []User {
	out := make([]User, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, FromUserSummary(s))
	}
	return out
}
