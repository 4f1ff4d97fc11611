package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
	"github.com/0xsj/overwatch-payments/internal/port/outbound/cache"
)

const (
	sessionKeyPrefix  = "payments:session:"
	defaultSessionTTL = 15 * time.Minute
)

// sessionCache implements cache.SessionCache.
type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new SessionCache.
func NewSessionCache(client *redis.Client, ttl time.Duration) cache.SessionCache {
	if ttl == 0 {
		ttl = defaultSessionTTL
	}
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) Get(ctx context.Context, sessionID string) (*model.StoredSession, error) {
	data, err := c.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}

	var s model.StoredSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (c *sessionCache) Set(ctx context.Context, session *model.StoredSession, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := c.client.Set(ctx, sessionKey(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session in cache: %w", err)
	}
	return nil
}

func (c *sessionCache) Delete(ctx context.Context, sessionID string) error {
	if err := c.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from cache: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
