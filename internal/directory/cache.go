package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"lifequery/internal/models"
	"lifequery/internal/queryengine/ports"
	"lifequery/pkg/logger"
)

// DefaultCacheTTL bounds how stale cached directory data may be. Display
// names change rarely; privacy settings must converge quickly after an
// owner revokes consent, so the TTL stays short.
const DefaultCacheTTL = 60 * time.Second

// CachedDirectory is a read-through Redis cache in front of another
// Directory. Cache failures fall through to the inner directory and are
// only logged.
type CachedDirectory struct {
	inner ports.Directory
	rdb   *redis.Client
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedDirectory wraps inner with a Redis cache. A zero ttl selects
// DefaultCacheTTL.
func NewCachedDirectory(inner ports.Directory, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedDirectory{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

// GetCircle is not cached: circle membership gates authorization and must
// always reflect the directory of record.
func (c *CachedDirectory) GetCircle(ctx context.Context, id string) (*models.Circle, error) {
	return c.inner.GetCircle(ctx, id)
}

// GetPrivacySettings serves each owner's consent from cache where present
// and fetches the remainder from the inner directory in one call.
func (c *CachedDirectory) GetPrivacySettings(ctx context.Context, viewerID string, ownerIDs []string) (map[string]models.FriendPrivacySettings, error) {
	settings := make(map[string]models.FriendPrivacySettings, len(ownerIDs))
	var missing []string

	for _, ownerID := range ownerIDs {
		key := privacyKey(viewerID, ownerID)
		raw, err := c.rdb.Get(ctx, key).Result()
		if err != nil {
			if err != redis.Nil {
				c.log.WithError(err).Warn("redis get failed for privacy settings")
			}
			missing = append(missing, ownerID)
			continue
		}
		var policy models.FriendPrivacySettings
		if err := json.Unmarshal([]byte(raw), &policy); err != nil {
			missing = append(missing, ownerID)
			continue
		}
		settings[ownerID] = policy
	}

	if len(missing) == 0 {
		return settings, nil
	}

	fetched, err := c.inner.GetPrivacySettings(ctx, viewerID, missing)
	if err != nil {
		return nil, err
	}
	for _, ownerID := range missing {
		// Owners absent from the directory are cached as deny-all so a
		// missing row does not cause a lookup per query.
		policy := fetched[ownerID]
		if data, err := json.Marshal(policy); err == nil {
			if err := c.rdb.Set(ctx, privacyKey(viewerID, ownerID), data, c.ttl).Err(); err != nil {
				c.log.WithError(err).Warn("redis set failed for privacy settings")
			}
		}
		if _, ok := fetched[ownerID]; ok {
			settings[ownerID] = policy
		}
	}
	return settings, nil
}

// GetDisplayName serves display names from cache with fall-through.
func (c *CachedDirectory) GetDisplayName(ctx context.Context, userID string) (string, error) {
	key := nameKey(userID)
	if name, err := c.rdb.Get(ctx, key).Result(); err == nil && name != "" {
		return name, nil
	}

	name, err := c.inner.GetDisplayName(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := c.rdb.Set(ctx, key, name, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("redis set failed for display name")
	}
	return name, nil
}

func privacyKey(viewerID, ownerID string) string {
	return fmt.Sprintf("directory:privacy:%s:%s", viewerID, ownerID)
}

func nameKey(userID string) string {
	return fmt.Sprintf("directory:name:%s", userID)
}

var _ ports.Directory = (*CachedDirectory)(nil)
