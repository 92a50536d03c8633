package domain

import "time"

// User is a registered account able to submit meter readings.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Salt         string
	IsAdmin      bool
	RegisteredAt time.Time
}
