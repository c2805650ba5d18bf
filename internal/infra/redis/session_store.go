package redis

import (
	"context"
	"sync"
	"time"

	"onboarding-service/internal/app"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Live sessions stay in a local map; the flow and its timers are in-process.
//   - Redis holds a liveness marker per session whose value is the current
//     stage, refreshed on every accepted change and expiring after ttl of
//     inactivity. Answers are never written to Redis.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	logger   zerolog.Logger
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Add(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	s.mark(session)
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Touch(session *app.Session) {
	s.mark(session)
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if err := s.client.Del(context.Background(), s.key(sessionID)).Err(); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("clear session marker")
	}
}

// mark is best-effort; a Redis outage must not break the flow.
func (s *SessionStore) mark(session *app.Session) {
	err := s.client.Set(context.Background(), s.key(session.ID()), string(session.Stage()), s.ttl).Err()
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", session.ID()).Msg("mark session live")
	}
}

func (s *SessionStore) key(sessionID string) string {
	return "onboarding:session:" + sessionID
}
