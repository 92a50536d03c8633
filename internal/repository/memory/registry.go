package memory

import (
	"sync"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/port"
)

// SessionRegistry is a mutex-guarded set of online usernames. It is owned by
// whoever constructs it and injected into dependents; there is no package
// level instance.
type SessionRegistry struct {
	mu     sync.Mutex
	online map[string]struct{}
}

// NewSessionRegistry constructs an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{online: make(map[string]struct{})}
}

// Add admits the username unless it is already present. The check and the
// insert happen under one lock, so two concurrent logins for the same name
// cannot both succeed.
func (r *SessionRegistry) Add(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.online[username]; ok {
		return false
	}
	r.online[username] = struct{}{}
	return true
}

// Remove evicts the username. Absent names are ignored.
func (r *SessionRegistry) Remove(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.online, username)
}

// Contains reports whether the username is online.
func (r *SessionRegistry) Contains(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.online[username]
	return ok
}

var _ port.SessionRegistry = (*SessionRegistry)(nil)
