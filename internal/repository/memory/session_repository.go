package memory

import (
	"sync"
	"time"

	"voice-ordering-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps order sessions in an in-process TTL cache. Sessions
// that see no traffic for the TTL are purged, which keeps the registry bounded
// without an explicit logout flow.
type SessionRepository struct {
	cache *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionRepository creates a store with the given idle TTL. The purge
// interval is derived so expired sessions are collected reasonably promptly.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	purge := ttl / 6
	if purge < time.Minute {
		purge = time.Minute
	}
	return &SessionRepository{
		cache: cache.New(ttl, purge),
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *SessionRepository) GetOrCreate(id string) *store.OrderSession {
	if id != "" {
		if x, found := r.cache.Get(id); found {
			return x.(*store.OrderSession)
		}
	}
	session := store.NewOrderSession()
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
	return session
}

func (r *SessionRepository) Get(id string) (*store.OrderSession, bool) {
	if x, found := r.cache.Get(id); found {
		return x.(*store.OrderSession), true
	}
	return nil, false
}

func (r *SessionRepository) Save(session *store.OrderSession) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Delete(id string) {
	r.cache.Delete(id)

	r.mu.Lock()
	delete(r.locks, id)
	r.mu.Unlock()
}

// Lock serializes pipeline runs for one session ID. Lock entries are tiny and
// are dropped together with the session in Delete.
func (r *SessionRepository) Lock(id string) func() {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}
