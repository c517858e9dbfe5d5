package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateRoundTrip(t *testing.T) {
	repo := NewSessionRepository(time.Hour)

	created := repo.GetOrCreate("")
	require.NotEmpty(t, created.ID)

	same := repo.GetOrCreate(created.ID)
	assert.Same(t, created, same)

	fetched, ok := repo.Get(created.ID)
	require.True(t, ok)
	assert.Same(t, created, fetched)
}

func TestGetOrCreateUnknownIDMakesFreshSession(t *testing.T) {
	repo := NewSessionRepository(time.Hour)

	session := repo.GetOrCreate("gone-or-never-existed")
	assert.NotEqual(t, "gone-or-never-existed", session.ID)

	_, ok := repo.Get("gone-or-never-existed")
	assert.False(t, ok)
}

func TestDeleteRemovesSession(t *testing.T) {
	repo := NewSessionRepository(time.Hour)

	session := repo.GetOrCreate("")
	repo.Delete(session.ID)

	_, ok := repo.Get(session.ID)
	assert.False(t, ok)
}

func TestLockSerializesSameSession(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	session := repo.GetOrCreate("")

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := repo.Lock(session.ID)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, counter)
}

func TestLockDifferentSessionsDoNotBlock(t *testing.T) {
	repo := NewSessionRepository(time.Hour)

	unlockA := repo.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := repo.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different session should not block")
	}
}
