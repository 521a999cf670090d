package domain

import "time"

type ID string

type User struct {
	ID            ID
	Email         string
	FullName      string
	Bio           string
	ProfilePicURL string
	PasswordHash  string
	CreatedAt     time.Time
	LastSeenAt    time.Time
}

// Summary is the projection the sidebar and broadcasts carry; no credentials.
type Summary struct {
	ID            ID
	Email         string
	FullName      string
	Bio           string
	ProfilePicURL string
	LastSeenAt    time.Time
}

func (u User) Summary() Summary {
	return Summary{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		Bio:           u.Bio,
		ProfilePicURL: u.ProfilePicURL,
		LastSeenAt:    u.LastSeenAt,
	}
}

type ProfileUpdate struct {
	FullName      string
	Bio           string
	ProfilePicURL string
}
