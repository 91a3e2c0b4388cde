package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/pkg/database"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps SessionContext values in Redis keyed by session id
type SessionStore struct {
	redis *database.Redis
}

// NewSessionStore creates a new session store
func NewSessionStore(redis *database.Redis) *SessionStore {
	return &SessionStore{redis: redis}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Save stores sc. A zero ttl keeps the expiry already set on the key.
func (s *SessionStore) Save(ctx context.Context, sc *domain.SessionContext, ttl time.Duration) error {
	data, err := sc.Marshal()
	if err != nil {
		return err
	}

	expiration := ttl
	if ttl == 0 {
		expiration = redis.KeepTTL
	}

	if err := s.redis.Client.Set(ctx, sessionKey(sc.SessionID), data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to save session context: %w", err)
	}
	return nil
}

// Load returns the context for sessionID or ErrSessionNotFound
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.SessionContext, error) {
	data, err := s.redis.Client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session context: %w", err)
	}
	return domain.UnmarshalSessionContext(data)
}

// Delete drops the context for sessionID
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.redis.Client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session context: %w", err)
	}
	return nil
}
