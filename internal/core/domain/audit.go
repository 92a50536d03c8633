package domain

import "time"

// ActionType classifies a security- or state-relevant user action.
type ActionType string

const (
	ActionRegister           ActionType = "REGISTER"
	ActionLogin              ActionType = "LOGIN"
	ActionLogout             ActionType = "LOGOUT"
	ActionSubmitReading      ActionType = "SUBMIT_READING"
	ActionViewReadingHistory ActionType = "VIEW_READING_HISTORY"
)

// AuditEntry is an immutable record of one user action. Entries are append
// only and never rewritten.
type AuditEntry struct {
	ID          int64
	UserID      int64
	Action      ActionType
	OccurredAt  time.Time
	Description string
}
