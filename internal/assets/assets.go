// Package assets handles game asset loading and caching.
package assets

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/Faultbox/eschalon-utils/internal/logger"
	"github.com/Faultbox/eschalon-utils/pkg/encoding"
	"github.com/Faultbox/eschalon-utils/pkg/pak"
)

// DefaultTTL is how long an asset stays cached after it was last loaded.
const DefaultTTL = 10 * time.Minute

// Manager handles asset loading from pak sources.
type Manager struct {
	sources []pak.Source
	cache   *Cache
	mu      sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(DefaultTTL),
	}
}

// AddSource adds a pak source to the manager.
// Sources are searched in reverse order (last added = highest priority).
func (m *Manager) AddSource(src pak.Source) {
	m.mu.Lock()
	m.sources = append(m.sources, src)
	m.mu.Unlock()
}

// AddGame opens the asset source of a game install and adds it.
func (m *Manager) AddGame(gamedir string, book int) error {
	src, err := pak.OpenGame(gamedir, book)
	if err != nil {
		return fmt.Errorf("opening assets in %s: %w", gamedir, err)
	}
	m.AddSource(src)
	return nil
}

// Sources returns the number of registered sources.
func (m *Manager) Sources() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sources)
}

// Load loads a file from the sources.
func (m *Manager) Load(path string) ([]byte, error) {
	key := encoding.NormalizePakPath(path)
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.sources) - 1; i >= 0; i-- {
		src := m.sources[i]
		if !src.Contains(key) {
			continue
		}
		data, err := src.Read(key)
		if err != nil {
			logger.Warn("Asset read failed", zap.String("path", path), zap.String("source", src.Kind()), zap.Error(err))
			continue
		}
		m.cache.Set(key, data)
		return data, nil
	}

	return nil, fmt.Errorf("%w: %s", pak.ErrNotFound, path)
}

// List returns the names held by any source, sorted and without
// duplicates.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, src := range m.sources {
		for _, name := range src.List() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Exists reports whether any source holds path.
func (m *Manager) Exists(path string) bool {
	_, err := m.Load(path)
	return err == nil
}

// Close closes all sources.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, src := range m.sources {
		src.Close()
	}
	m.sources = nil
	m.cache.Clear()
}

// Cache is an expiring in-memory cache for loaded assets.
type Cache struct {
	store *gocache.Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a cache whose entries expire after ttl. A negative ttl
// never expires.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{store: gocache.New(ttl, ttl)}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return v.([]byte), true
}

// Set stores an item in cache with the default expiration.
func (c *Cache) Set(key string, data []byte) {
	c.store.Set(key, data, gocache.DefaultExpiration)
}

// Len returns the number of cached items, including expired ones not yet
// cleaned up.
func (c *Cache) Len() int { return c.store.ItemCount() }

// Clear clears the cache.
func (c *Cache) Clear() {
	c.store.Flush()
	c.hits.Store(0)
	c.misses.Store(0)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	return int(c.hits.Load()), int(c.misses.Load())
}
