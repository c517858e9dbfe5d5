package store

// SessionStore is the registry of live order sessions. Backends own their
// eviction policy (TTL in-memory cache, Redis with expiry, ...).
//
// Lock returns a function that releases a per-session mutex. Pipeline runs and
// basket actions for the same session ID must execute under this lock so two
// concurrent connections can never interleave mutations of one session.
type SessionStore interface {
	// GetOrCreate returns the session for id, creating a fresh one when id is
	// empty or unknown.
	GetOrCreate(id string) *OrderSession

	// Get returns the session and whether it exists.
	Get(id string) (*OrderSession, bool)

	// Save persists the session and refreshes its eviction deadline.
	Save(session *OrderSession)

	// Delete removes the session.
	Delete(id string)

	// Lock serializes access to one session ID. The returned func unlocks.
	Lock(id string) (unlock func())
}

// LockAndGet acquires the per-session lock before reading, so the read and
// everything up to the matching Save form one critical section. Backends that
// hand out a fresh copy per read (Redis) would otherwise let a second caller
// read a stale copy and save it over a concurrent update.
//
// An empty or unknown id yields a fresh session; its ID is unreachable by any
// other caller until it is returned, so locking after creation is safe there.
func LockAndGet(s SessionStore, id string) (*OrderSession, func()) {
	if id == "" {
		session := s.GetOrCreate("")
		return session, s.Lock(session.ID)
	}

	unlock := s.Lock(id)
	session := s.GetOrCreate(id)
	if session.ID != id {
		// Unknown id: a fresh session came back under its own ID.
		fresh := s.Lock(session.ID)
		unlock()
		return session, fresh
	}
	return session, unlock
}
