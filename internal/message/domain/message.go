package domain

import "time"

type ID string

// Message is a one-to-one chat message. At least one of Text/ImageURL is set.
// Seen is monotonic: once true it never reverts.
type Message struct {
	ID         ID
	SenderID   string
	ReceiverID string
	Text       string
	ImageURL   string
	Seen       bool
	CreatedAt  time.Time
}

func (m Message) HasContent() bool {
	return m.Text != "" || m.ImageURL != ""
}
