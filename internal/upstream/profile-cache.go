package upstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/internal/utils"
)

// CachedProfileLookup keeps successful lookups in Redis for ttl.
// Redis errors never fail a lookup; they only bypass the cache.
type CachedProfileLookup struct {
	Next  ProfileLookup
	Redis redis.Cmdable
	TTL   time.Duration
}

func NewCachedProfileLookup(next ProfileLookup, rdb redis.Cmdable, ttl time.Duration) ProfileLookup {
	if rdb == nil || ttl <= 0 {
		return next
	}
	return &CachedProfileLookup{Next: next, Redis: rdb, TTL: ttl}
}

func profileCacheKey(userID int64) string {
	return fmt.Sprintf("profile:%d", userID)
}

func (c *CachedProfileLookup) ProfileByID(ctx context.Context, userID int64) (*UserProfile, error) {
	key := profileCacheKey(userID)

	cached, err := utils.GetCacheData[UserProfile](ctx, c.Redis, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, utils.ErrCacheMiss) {
		log.Warn().Err(err).Int64("userID", userID).Msg("profile cache read failed")
	}

	profile, err := c.Next.ProfileByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := utils.SetCacheData(ctx, c.Redis, key, profile, c.TTL); err != nil {
		log.Warn().Err(err).Int64("userID", userID).Msg("profile cache write failed")
	}
	return profile, nil
}
