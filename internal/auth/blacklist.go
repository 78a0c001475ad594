package auth

// blacklist.go implements the Redis session blacklist used by logout.
// Blacklisted sessions are rejected by RequireAuth until the entry expires.

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "blacklist:session:"

// SessionBlacklist records logged-out sessions in Redis with a TTL.
type SessionBlacklist struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionBlacklist wraps a Redis client. ttl controls how long a
// logged-out session stays blacklisted (it only needs to outlive the access
// token lifetime).
func NewSessionBlacklist(client *redis.Client, ttl time.Duration) *SessionBlacklist {
	return &SessionBlacklist{client: client, ttl: ttl}
}

// Blacklist marks the session as logged out.
func (b *SessionBlacklist) Blacklist(ctx context.Context, sessionID string) error {
	key := blacklistKeyPrefix + sessionID
	if err := b.client.Set(ctx, key, "1", b.ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist session %s: %w", sessionID, err)
	}
	return nil
}

// IsBlacklisted reports whether the session has been logged out.
func (b *SessionBlacklist) IsBlacklisted(ctx context.Context, sessionID string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKeyPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session blacklist: %w", err)
	}
	return n > 0, nil
}
