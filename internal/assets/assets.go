// Package assets handles asset lookup and caching.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/gyrosphere/internal/assets/builtin"
	"github.com/Faultbox/gyrosphere/internal/logger"
	"github.com/Faultbox/gyrosphere/internal/metrics"
)

// ErrNotFound is returned when no root holds the requested file.
var ErrNotFound = errors.New("asset not found")

// Manager loads files from a stack of roots.
// Roots are searched in reverse order (last added = highest priority).
// The built-in assets are always the lowest-priority root.
type Manager struct {
	roots []root
	cache *Cache
	mu    sync.RWMutex
}

type root struct {
	name string
	fsys fs.FS
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		roots: []root{{name: "builtin", fsys: builtin.FS}},
		cache: NewCache(),
	}
}

// AddDir adds a directory root.
func (m *Manager) AddDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("opening asset dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("opening asset dir %s: not a directory", dir)
	}
	m.AddFS(dir, os.DirFS(dir))
	return nil
}

// AddFS adds an arbitrary filesystem root.
func (m *Manager) AddFS(name string, fsys fs.FS) {
	m.mu.Lock()
	m.roots = append(m.roots, root{name: name, fsys: fsys})
	m.mu.Unlock()
	logger.Debug("asset root added", zap.String("root", name))
}

// Load returns the contents of a file. Absolute paths are read from disk
// directly; relative paths are resolved against the roots.
func (m *Manager) Load(name string) ([]byte, error) {
	if data, ok := m.cache.Get(name); ok {
		return data, nil
	}

	if filepath.IsAbs(name) {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		m.cache.Set(name, data)
		return data, nil
	}

	rel := path.Clean(filepath.ToSlash(name))
	if !fs.ValidPath(rel) {
		return nil, fmt.Errorf("invalid asset path %q", name)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.roots) - 1; i >= 0; i-- {
		data, err := fs.ReadFile(m.roots[i].fsys, rel)
		if err == nil {
			m.cache.Set(name, data)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("asset read failed",
				zap.String("root", m.roots[i].name),
				zap.String("path", rel),
				zap.Error(err))
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Close drops every root except the built-in one and clears the cache.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.roots = m.roots[:1]
	m.cache.Clear()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
		metrics.IncAssetCacheHits()
	} else {
		c.misses++
		metrics.IncAssetCacheMisses()
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
