package store

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyStore hands out a fresh deserialized copy per read, the way the Redis
// backend does. A lost update is visible here where a shared-pointer store
// would hide it.
type copyStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	locks    map[string]*sync.Mutex
}

func newCopyStore() *copyStore {
	return &copyStore{
		sessions: map[string][]byte{},
		locks:    map[string]*sync.Mutex{},
	}
}

func (s *copyStore) GetOrCreate(id string) *OrderSession {
	if id != "" {
		if session, ok := s.Get(id); ok {
			return session
		}
	}
	session := NewOrderSession()
	s.Save(session)
	return session
}

func (s *copyStore) Get(id string) (*OrderSession, bool) {
	s.mu.Lock()
	data, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	var session OrderSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, false
	}
	return &session, true
}

func (s *copyStore) Save(session *OrderSession) {
	data, err := json.Marshal(session)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.sessions[session.ID] = data
	s.mu.Unlock()
}

func (s *copyStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	delete(s.locks, id)
	s.mu.Unlock()
}

func (s *copyStore) Lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func TestLockAndGetKeepsConcurrentUpdatesOnCopyingBackend(t *testing.T) {
	st := newCopyStore()
	session := NewOrderSession()
	st.Save(session)

	const writers = 16
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			s, unlock := LockAndGet(st, session.ID)
			s.RecordUtterance("a burger", "ADD", true, "burger")
			st.Save(s)
			unlock()
		}()
	}
	wg.Wait()

	final, ok := st.Get(session.ID)
	require.True(t, ok)
	assert.Len(t, final.History, writers, "every locked update must survive")
}

func TestLockAndGetEmptyIDCreatesSession(t *testing.T) {
	st := newCopyStore()

	session, unlock := LockAndGet(st, "")
	defer unlock()

	require.NotEmpty(t, session.ID)
	_, ok := st.Get(session.ID)
	assert.True(t, ok, "a fresh session is persisted on creation")
}

func TestLockAndGetUnknownIDReturnsFreshLockedSession(t *testing.T) {
	st := newCopyStore()

	session, unlock := LockAndGet(st, "gone")
	require.NotEmpty(t, session.ID)
	assert.NotEqual(t, "gone", session.ID)

	session.Language = "de-DE"
	st.Save(session)
	unlock()

	saved, ok := st.Get(session.ID)
	require.True(t, ok)
	assert.Equal(t, "de-DE", saved.Language)
}
