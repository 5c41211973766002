package models

import "time"

type User struct {
	ID           string
	Username     string
	PasswordHash []byte
}

type Session struct {
	ID        string
	UserID    string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
