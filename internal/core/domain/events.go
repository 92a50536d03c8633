package domain

import "time"

// UserRegisteredEvent announces a completed registration.
type UserRegisteredEvent struct {
	EventID      string
	UserID       int64
	Username     string
	Email        string
	RegisteredAt time.Time
}

// SessionStateEvent announces a login or logout transition.
type SessionStateEvent struct {
	EventID  string
	UserID   int64
	Username string
	At       time.Time
}

// ReadingSubmittedEvent announces an accepted reading set.
type ReadingSubmittedEvent struct {
	EventID     string
	UserID      int64
	Period      time.Month
	Values      map[MeterType]int64
	SubmittedAt time.Time
}
