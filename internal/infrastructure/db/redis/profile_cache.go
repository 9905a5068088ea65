package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/streamhub/account-service/internal/core/domain"
)

const defaultProfileTTL = 30 * time.Second

// ProfileCache stores channel profiles per viewer for a short TTL.
// Key format: profile:<username>:<viewer_id>, with "-" for anonymous viewers.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileCache wraps client. A non-positive ttl falls back to 30s.
func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = defaultProfileTTL
	}
	return &ProfileCache{client: client, ttl: ttl}
}

// Get reports ok=false on a cache miss.
func (c *ProfileCache) Get(ctx context.Context, username, viewerID string) (*domain.ChannelProfile, bool, error) {
	raw, err := c.client.Get(ctx, c.key(username, viewerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("profile cache get: %w", err)
	}

	var p domain.ChannelProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("profile cache decode: %w", err)
	}
	return &p, true, nil
}

func (c *ProfileCache) Set(ctx context.Context, username, viewerID string, profile *domain.ChannelProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("profile cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(username, viewerID), raw, c.ttl).Err()
}

func (c *ProfileCache) key(username, viewerID string) string {
	if viewerID == "" {
		viewerID = "-"
	}
	return fmt.Sprintf("profile:%s:%s", username, viewerID)
}
