package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dropDatabas3/legacybridge/internal/cache"
	"github.com/dropDatabas3/legacybridge/internal/domain/repository"
	"github.com/dropDatabas3/legacybridge/internal/metrics"
)

// CachedClient decora un Client con un cache read-through de lookups.
// Cachea también resultados negativos (usuario inexistente) para no martillar
// el sistema legacy con usernames que no existen. ValidatePassword nunca se
// cachea. Los TransportError tampoco: un legacy caído no debe quedar pegado
// en el cache.
type CachedClient struct {
	inner Client
	cache cache.Cache
	ttl   time.Duration
}

type cachedLookup struct {
	NotFound bool  `json:"not_found,omitempty"`
	User     *User `json:"user,omitempty"`
}

func NewCached(inner Client, c cache.Cache, ttl time.Duration) *CachedClient {
	return &CachedClient{inner: inner, cache: c, ttl: ttl}
}

func (c *CachedClient) FindByUsername(ctx context.Context, username string) (*User, error) {
	return c.lookup(ctx, "legacy:u:"+username, func() (*User, error) {
		return c.inner.FindByUsername(ctx, username)
	})
}

func (c *CachedClient) FindByEmail(ctx context.Context, email string) (*User, error) {
	return c.lookup(ctx, "legacy:e:"+email, func() (*User, error) {
		return c.inner.FindByEmail(ctx, email)
	})
}

func (c *CachedClient) ValidatePassword(ctx context.Context, usernameOrID, password string) (bool, error) {
	return c.inner.ValidatePassword(ctx, usernameOrID, password)
}

func (c *CachedClient) lookup(ctx context.Context, key string, fetch func() (*User, error)) (*User, error) {
	if b, ok := c.cache.Get(key); ok {
		var entry cachedLookup
		if err := json.Unmarshal(b, &entry); err == nil {
			metrics.LookupCacheHits.Inc()
			if entry.NotFound {
				return nil, repository.ErrNotFound
			}
			if entry.User != nil {
				return entry.User, nil
			}
		}
		// Entrada corrupta: descartar y refetchear.
		c.cache.Delete(key)
	}

	u, err := fetch()
	switch {
	case err == nil:
		c.store(key, cachedLookup{User: u})
		return u, nil
	case errors.Is(err, repository.ErrNotFound):
		c.store(key, cachedLookup{NotFound: true})
		return nil, err
	default:
		return nil, err
	}
}

func (c *CachedClient) store(key string, entry cachedLookup) {
	if b, err := json.Marshal(entry); err == nil {
		c.cache.Set(key, b, c.ttl)
	}
}
