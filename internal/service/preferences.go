package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prperemyshlev/page-manager/internal/domain"
	"github.com/prperemyshlev/page-manager/internal/dto"
	"github.com/prperemyshlev/page-manager/pkg/database"
)

// PreferencesStore persists display preferences per user in a Redis hash
type PreferencesStore struct {
	redis *database.Redis
}

// NewPreferencesStore creates a new preferences store
func NewPreferencesStore(redis *database.Redis) *PreferencesStore {
	return &PreferencesStore{redis: redis}
}

func preferencesKey(userID string) string {
	return fmt.Sprintf("prefs:%s", userID)
}

// Get returns the stored preferences, falling back to defaults for missing
// or invalid fields
func (s *PreferencesStore) Get(ctx context.Context, userID string) (domain.Preferences, error) {
	prefs := domain.DefaultPreferences()

	fields, err := s.redis.Client.HGetAll(ctx, preferencesKey(userID)).Result()
	if err != nil {
		return prefs, fmt.Errorf("failed to load preferences: %w", err)
	}

	candidate := prefs
	if v, ok := fields["theme"]; ok {
		candidate.Theme = v
	}
	if v, ok := fields["date_format"]; ok {
		candidate.DateFormat = v
	}
	if v, ok := fields["posts_per_page"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			candidate.PostsPerPage = n
		}
	}

	if candidate.Validate() != nil {
		return prefs, nil
	}
	return candidate, nil
}

// Save validates and stores the preferences
func (s *PreferencesStore) Save(ctx context.Context, userID string, req *dto.PreferencesRequest) (domain.Preferences, error) {
	prefs := domain.Preferences{
		Theme:        req.Theme,
		PostsPerPage: req.PostsPerPage,
		DateFormat:   req.DateFormat,
	}
	if err := prefs.Validate(); err != nil {
		return domain.Preferences{}, invalid("%s", err.Error())
	}

	err := s.redis.Client.HSet(ctx, preferencesKey(userID),
		"theme", prefs.Theme,
		"posts_per_page", prefs.PostsPerPage,
		"date_format", prefs.DateFormat,
	).Err()
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("failed to save preferences: %w", err)
	}

	return prefs, nil
}
