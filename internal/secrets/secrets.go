package secrets

import (
	"context"
	"os"
	"sync"
	"time"
)

// Provider retrieves a named secret. Absence is a valid, expected steady
// state (found=false, err=nil), not an error.
type Provider interface {
	Get(ctx context.Context, name string) (value string, found bool, err error)
}

// EnvProvider resolves secret names directly against process environment
// variables. Empty values count as absent.
type EnvProvider struct{}

// NewEnvProvider constructs the env-backed provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

func (p *EnvProvider) Get(_ context.Context, name string) (string, bool, error) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return "", false, nil
	}
	return value, true, nil
}

type cachedEntry struct {
	value     string
	found     bool
	fetchedAt time.Time
}

// Cached wraps a Provider with per-name, time-boxed memoization. Entries
// expire after ttl so credential rotation is picked up without a restart.
// Safe for concurrent use; refreshes are last-write-wins.
type Cached struct {
	inner Provider
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]cachedEntry
	now     func() time.Time
}

// NewCached constructs the caching decorator. A non-positive ttl disables
// caching entirely and every Get hits the inner provider.
func NewCached(inner Provider, ttl time.Duration) *Cached {
	return &Cached{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[string]cachedEntry),
		now:     time.Now,
	}
}

func (c *Cached) Get(ctx context.Context, name string) (string, bool, error) {
	if c.ttl > 0 {
		c.mu.RLock()
		entry, ok := c.entries[name]
		c.mu.RUnlock()
		if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
			return entry.value, entry.found, nil
		}
	}

	value, found, err := c.inner.Get(ctx, name)
	if err != nil {
		// Lookup failures are never cached.
		return "", false, err
	}

	if c.ttl > 0 {
		c.mu.Lock()
		c.entries[name] = cachedEntry{value: value, found: found, fetchedAt: c.now()}
		c.mu.Unlock()
	}
	return value, found, nil
}
