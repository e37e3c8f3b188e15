package platform

import (
	"context"
	"sync"
	"time"

	"github.com/possync/backend/internal/domain/integration"
)

// Access tokens live for an hour on both platforms. The cache expires entries
// slightly early so a token is never used within seconds of its expiry.
const (
	tokenTTL          = time.Hour
	tokenExpiryMargin = 30 * time.Second
)

// TokenFetchFunc performs the actual OAuth2 token round-trip
type TokenFetchFunc func(ctx context.Context) (string, error)

// TokenCache caches OAuth2 access tokens keyed by (platform, client id).
// It is process-wide shared state: concurrent callers for the same key share
// one cached token, and at most one refresh per key is in flight at a time.
// Callers waiting on a refresh resume with the freshly fetched token instead
// of issuing redundant auth calls.
type TokenCache struct {
	mu      sync.Mutex
	entries map[string]*tokenEntry
}

type tokenEntry struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func (e *tokenEntry) valid() bool {
	return e.token != "" && time.Now().Before(e.expiresAt)
}

// NewTokenCache creates an empty token cache
func NewTokenCache() *TokenCache {
	return &TokenCache{entries: make(map[string]*tokenEntry)}
}

func tokenKey(platform integration.PlatformCode, clientID string) string {
	return string(platform) + ":" + clientID
}

// GetToken returns the cached token for (platform, clientID), fetching a new
// one via fetch when the cache is cold or expired. The per-entry lock
// serializes refreshes: a second caller arriving during a refresh blocks,
// then finds the fresh token and returns it without a second network call.
func (c *TokenCache) GetToken(ctx context.Context, platform integration.PlatformCode, clientID string, fetch TokenFetchFunc) (string, error) {
	c.mu.Lock()
	key := tokenKey(platform, clientID)
	entry, ok := c.entries[key]
	if !ok {
		entry = &tokenEntry{}
		c.entries[key] = entry
	}
	c.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.valid() {
		return entry.token, nil
	}

	token, err := fetch(ctx)
	if err != nil {
		return "", err
	}

	entry.token = token
	entry.expiresAt = time.Now().Add(tokenTTL - tokenExpiryMargin)
	return token, nil
}

// Invalidate drops the cached token for one key, forcing the next GetToken
// to fetch. Used after the platform rejects a token as expired or revoked.
func (c *TokenCache) Invalidate(platform integration.PlatformCode, clientID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, tokenKey(platform, clientID))
}
