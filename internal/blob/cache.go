package blob

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Loader resolves a path to a parsed blob.
type Loader interface {
	Load(path string) (*Blob, error)
}

// FileLoader reads blobs from disk, relative to Root when it is set.
type FileLoader struct {
	Root string
}

func (l FileLoader) Load(path string) (*Blob, error) {
	full := path
	if l.Root != "" && !filepath.IsAbs(path) {
		full = filepath.Join(l.Root, path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("blob: read %s: %w", full, err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("blob: parse %s: %w", full, err)
	}
	return b, nil
}

// Cache shares loaded blobs between rigs. Each Load takes a reference;
// the blob is dropped once every reference has been released by Unload.
type Cache struct {
	mu     sync.RWMutex
	items  map[string]*cacheEntry
	loader Loader
	logger *log.Logger
}

type cacheEntry struct {
	blob *Blob
	refs int
}

// NewCache creates a cache in front of loader.
func NewCache(loader Loader) *Cache {
	return &Cache{
		items:  make(map[string]*cacheEntry),
		loader: loader,
		logger: log.New(io.Discard, "", 0),
	}
}

// SetLogger routes load failures to l.
func (c *Cache) SetLogger(l *log.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Load returns the blob for path, loading it on first use. Failed loads
// are not cached.
func (c *Cache) Load(path string) (*Blob, error) {
	c.mu.Lock()
	if entry, ok := c.items[path]; ok {
		entry.refs++
		c.mu.Unlock()
		return entry.blob, nil
	}
	c.mu.Unlock()

	b, err := c.loader.Load(path)
	if err != nil {
		c.logger.Printf("load %s: %v", path, err)
		return nil, err
	}

	// Another caller may have finished first.
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.items[path]; ok {
		entry.refs++
		return entry.blob, nil
	}
	c.items[path] = &cacheEntry{blob: b, refs: 1}
	return b, nil
}

// Unload releases one reference. It reports whether the blob was evicted.
func (c *Cache) Unload(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[path]
	if !ok {
		return false
	}
	entry.refs--
	if entry.refs > 0 {
		return false
	}
	delete(c.items, path)
	return true
}

// Refs returns the number of outstanding references to path.
func (c *Cache) Refs(path string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.items[path]; ok {
		return entry.refs
	}
	return 0
}

// Len returns the number of resident blobs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
