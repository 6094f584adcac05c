package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"peerlink/internal/modules/profile/domain"
	profileout "peerlink/internal/modules/profile/port/out"
	"peerlink/internal/platform/clock"
	apperrors "peerlink/internal/platform/errors"
)

const DefaultCacheTTL = 24 * time.Hour

type CacheService struct {
	cache  profileout.ProfileCache
	clock  clock.Clock
	ttl    time.Duration
	logger *slog.Logger
}

func NewCacheService(cache profileout.ProfileCache, clk clock.Clock, ttl time.Duration, logger *slog.Logger) *CacheService {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheService{cache: cache, clock: clk, ttl: ttl, logger: logger}
}

// Fresh returns the cached profile for login when it is younger than the
// TTL. Entries that fail to decode are deleted.
func (s *CacheService) Fresh(ctx context.Context, login string) (domain.ParticipantProfile, bool) {
	blob, err := s.cache.Load(ctx, login)
	if err != nil {
		if !errors.Is(err, apperrors.ErrCacheMiss) {
			s.logger.Warn("read profile cache", "login", login, "error", err)
		}
		return domain.ParticipantProfile{}, false
	}
	var profile domain.ParticipantProfile
	if err := json.Unmarshal(blob, &profile); err != nil || profile.Login != login {
		s.logger.Warn("dropping corrupt cache entry", "login", login, "error", err)
		if _, delErr := s.cache.Delete(ctx, login); delErr != nil {
			s.logger.Warn("delete corrupt cache entry", "login", login, "error", delErr)
		}
		return domain.ParticipantProfile{}, false
	}
	if !profile.FreshAt(s.clock.Now(), s.ttl) {
		s.logger.Debug("cached profile is stale", "login", login, "loaded_at", profile.LoadedAt)
		return domain.ParticipantProfile{}, false
	}
	return profile, true
}

func (s *CacheService) Save(ctx context.Context, profile domain.ParticipantProfile) error {
	blob, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", profile.Login, err)
	}
	return s.cache.Store(ctx, profile.Login, blob, profile.LoadedAt)
}

func (s *CacheService) Purge(ctx context.Context, login string) (int, error) {
	if login == "" {
		return s.cache.Purge(ctx)
	}
	removed, err := s.cache.Delete(ctx, login)
	if err != nil || !removed {
		return 0, err
	}
	return 1, nil
}
