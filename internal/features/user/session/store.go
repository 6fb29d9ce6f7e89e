package session

import (
	"context"
	"fmt"
	"time"

	"novelreader-backend/internal/common/middleware"
)

// Cache is the slice of the cache layer the session store consumes.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Store resolves session tokens minted by the external authentication
// provider against Redis. This backend only reads sessions; it never creates
// them.
type Store struct {
	cache Cache
	ttl   time.Duration
}

func NewStore(cache Cache, ttl time.Duration) *Store {
	return &Store{cache: cache, ttl: ttl}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Resolve implements middleware.SessionResolver. Sessions slide: each
// successful resolve renews the token's expiry.
func (s *Store) Resolve(ctx context.Context, token string) (*middleware.Principal, error) {
	key := sessionKey(token)

	var principal middleware.Principal
	if err := s.cache.Get(ctx, key, &principal); err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	// Best effort; a failed renewal just means the original expiry stands.
	_ = s.cache.Set(ctx, key, &principal, s.ttl)

	return &principal, nil
}
