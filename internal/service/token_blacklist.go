package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prperemyshlev/page-manager/pkg/database"
)

// TokenBlacklistService records logged-out session ids in Redis until the
// session token would have expired anyway
type TokenBlacklistService struct {
	redis *database.Redis
}

// NewTokenBlacklistService creates a new token blacklist service
func NewTokenBlacklistService(redis *database.Redis) *TokenBlacklistService {
	return &TokenBlacklistService{redis: redis}
}

func blacklistKey(sessionID string) string {
	return fmt.Sprintf("blacklist:session:%s", sessionID)
}

// Add blacklists a session id for ttl. A non-positive ttl is a no-op since
// the token is already expired.
func (s *TokenBlacklistService) Add(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Client.Set(ctx, blacklistKey(sessionID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist session: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a session id was logged out
func (s *TokenBlacklistService) IsBlacklisted(ctx context.Context, sessionID string) (bool, error) {
	exists, err := s.redis.Client.Exists(ctx, blacklistKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session blacklist: %w", err)
	}
	return exists > 0, nil
}
