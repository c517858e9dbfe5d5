package redis

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"voice-ordering-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "order_session:"

// SessionRepository persists order sessions in Redis with a sliding TTL, so
// session state survives a process restart. The per-session locks are still
// process-local: a single instance owns each live voice connection.
type SessionRepository struct {
	rdb *redis.Client
	ttl time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &SessionRepository{
		rdb:   rdb,
		ttl:   ttl,
		locks: make(map[string]*sync.Mutex),
	}
}

func (r *SessionRepository) GetOrCreate(id string) *store.OrderSession {
	if id != "" {
		if session, found := r.Get(id); found {
			return session
		}
	}
	session := store.NewOrderSession()
	r.Save(session)
	return session
}

func (r *SessionRepository) Get(id string) (*store.OrderSession, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := r.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[WARN] Redis session read failed for %s: %v", id, err)
		}
		return nil, false
	}

	var session store.OrderSession
	if err := json.Unmarshal(data, &session); err != nil {
		log.Printf("[WARN] Corrupt session payload for %s: %v", id, err)
		return nil, false
	}
	return &session, true
}

func (r *SessionRepository) Save(session *store.OrderSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(session)
	if err != nil {
		log.Printf("[WARN] Failed to marshal session %s: %v", session.ID, err)
		return
	}
	if err := r.rdb.Set(ctx, sessionKeyPrefix+session.ID, data, r.ttl).Err(); err != nil {
		log.Printf("[WARN] Redis session write failed for %s: %v", session.ID, err)
	}
}

func (r *SessionRepository) Delete(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.rdb.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		log.Printf("[WARN] Redis session delete failed for %s: %v", id, err)
	}

	r.mu.Lock()
	delete(r.locks, id)
	r.mu.Unlock()
}

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
