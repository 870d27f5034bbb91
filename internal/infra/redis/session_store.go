package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"tably-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions stay in the local map since their timers run in this process;
// Redis only carries a liveness marker per user so other instances can tell
// that a quiz is in progress. The marker lives for the configured TTL or the
// session's longest possible run, whichever is longer.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID()] = session
	// best-effort liveness marker
	ttl := max(s.ttl, session.MaxDuration()+time.Minute)
	_ = s.client.Set(context.Background(), sessionKey(session.UserID()), "1", ttl).Err()
}

func (s *SessionStore) Get(userID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	return session, ok
}

func (s *SessionStore) Delete(userID string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[userID]
	if !ok || current != session {
		return
	}
	delete(s.sessions, userID)
	_ = s.client.Del(context.Background(), sessionKey(userID)).Err()
}

// Active reports whether any instance holds a live session for the user.
func (s *SessionStore) Active(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(userID)).Result()
	return n > 0, err
}

func sessionKey(userID string) string {
	return "tably:session:" + userID
}
