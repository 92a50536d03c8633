package port

// SessionRegistry tracks which usernames currently hold an active session.
// The registry is process-local and volatile: a restart logs everyone out.
type SessionRegistry interface {
	// Add admits the username and reports whether it was newly added.
	// The membership check and the admit are a single atomic step.
	Add(username string) bool
	// Remove evicts the username. Removing an absent name is a no-op.
	Remove(username string)
	// Contains reports whether the username holds an active session.
	Contains(username string) bool
}
