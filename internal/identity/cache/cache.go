// Package cache provides a Redis read-through cache for user profiles.
// The cache is an optimization, not a correctness mechanism: any Redis
// failure falls back to the database, and every profile-mutating write in
// the identity service invalidates through here.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"estate_crm_backend/internal/identity/repository"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "profile:"

// ProfileCache caches resolved profiles (user + role + permissions) by user ID.
// A nil *ProfileCache is valid and disables caching entirely.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// New creates a profile cache. Returns nil when the client is nil so callers
// can wire the cache unconditionally.
func New(client *redis.Client, ttl time.Duration, log *logger.Logger) *ProfileCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProfileCache{client: client, ttl: ttl, log: log}
}

// Get returns the cached profile for the user, or false on miss or error.
func (c *ProfileCache) Get(ctx context.Context, userID uuid.UUID) (repository.Profile, bool) {
	if c == nil {
		return repository.Profile{}, false
	}

	raw, err := c.client.Get(ctx, keyPrefix+userID.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("profile cache read failed", "error", err)
		}
		return repository.Profile{}, false
	}

	var profile repository.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		// Corrupt entry; drop it so the next read repopulates.
		_ = c.client.Del(ctx, keyPrefix+userID.String()).Err()
		return repository.Profile{}, false
	}

	return profile, true
}

// Set stores the profile with the configured TTL. Best-effort.
func (c *ProfileCache) Set(ctx context.Context, profile repository.Profile) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, keyPrefix+profile.ID.String(), raw, c.ttl).Err(); err != nil {
		c.log.Warn("profile cache write failed", "error", err)
	}
}

// Invalidate drops the cached profile for the user. Called from the single
// profile-write path in the identity service; never optional.
func (c *ProfileCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c == nil {
		return
	}

	if err := c.client.Del(ctx, keyPrefix+userID.String()).Err(); err != nil {
		c.log.Warn("profile cache invalidation failed", "error", err, "user_id", userID)
	}
}

// InvalidateRole drops every cached profile carrying the given role. Role
// permission edits affect many users, so the whole prefix is scanned.
func (c *ProfileCache) InvalidateRole(ctx context.Context, roleID uuid.UUID) {
	if c == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := c.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var profile repository.Profile
		if err := json.Unmarshal(raw, &profile); err != nil {
			_ = c.client.Del(ctx, key).Err()
			continue
		}
		if profile.RoleID != nil && *profile.RoleID == roleID {
			_ = c.client.Del(ctx, key).Err()
		}
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("profile cache role invalidation failed", "error", err, "role_id", roleID)
	}
}
