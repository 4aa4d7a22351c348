package permcache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// AdminSource is the upstream source of truth for a chat's admin set.
type AdminSource interface {
	ListAdmins(ctx context.Context, chatID int64) ([]int64, error)
}

type cacheKey struct {
	userID int64
	chatID int64
}

type entry struct {
	isAdmin  bool
	cachedAt time.Time
}

// Cache answers admin-membership checks from a TTL-bounded record before
// falling back to the upstream source. Concurrent refreshes of the same key
// may both hit upstream; the last successful one wins.
type Cache struct {
	source  AdminSource
	ttl     time.Duration
	entries sync.Map
}

func New(source AdminSource, ttl time.Duration) *Cache {
	return &Cache{source: source, ttl: ttl}
}

// IsAdmin reports whether userID is an admin of chatID. With forceRefresh
// the TTL is bypassed and the upstream answer overwrites the entry. An
// upstream failure propagates without touching the cached value, so the
// caller decides whether unknown means "not admin".
func (c *Cache) IsAdmin(ctx context.Context, userID, chatID int64, forceRefresh bool) (bool, error) {
	key := cacheKey{userID: userID, chatID: chatID}

	if !forceRefresh {
		if val, ok := c.entries.Load(key); ok {
			e := val.(entry)
			if time.Since(e.cachedAt) < c.ttl {
				return e.isAdmin, nil
			}
		}
	}

	admins, err := c.source.ListAdmins(ctx, chatID)
	if err != nil {
		return false, fmt.Errorf("failed to refresh admin list: %w", err)
	}

	isAdmin := false
	for _, id := range admins {
		if id == userID {
			isAdmin = true
			break
		}
	}

	c.entries.Store(key, entry{isAdmin: isAdmin, cachedAt: time.Now()})
	return isAdmin, nil
}
