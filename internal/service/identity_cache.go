package service

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/student-forum-api/internal/models"
)

type cachedIdentity struct {
	user      models.User
	expiresAt time.Time
}

// identityCache maps bearer tokens to users for a short TTL so that
// authenticated requests do not hit the token table every time.
type identityCache struct {
	lru *lru.Cache[string, cachedIdentity]
	ttl time.Duration
}

// newIdentityCache returns nil when caching is disabled
func newIdentityCache(size int, ttl time.Duration) (*identityCache, error) {
	if size <= 0 || ttl <= 0 {
		return nil, nil
	}
	l, err := lru.New[string, cachedIdentity](size)
	if err != nil {
		return nil, err
	}
	return &identityCache{lru: l, ttl: ttl}, nil
}

func (c *identityCache) get(token string, now time.Time) (*models.User, bool) {
	if c == nil {
		return nil, false
	}
	item, ok := c.lru.Get(token)
	if !ok {
		return nil, false
	}
	if !now.Before(item.expiresAt) {
		c.lru.Remove(token)
		return nil, false
	}
	user := item.user
	return &user, true
}

// set caches the user until the cache TTL or the token expiry, whichever is first
func (c *identityCache) set(token string, user *models.User, tokenExpiry, now time.Time) {
	if c == nil {
		return
	}
	expiresAt := now.Add(c.ttl)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expiresAt) {
		expiresAt = tokenExpiry
	}
	c.lru.Add(token, cachedIdentity{user: *user, expiresAt: expiresAt})
}

func (c *identityCache) remove(token string) {
	if c == nil {
		return
	}
	c.lru.Remove(token)
}
