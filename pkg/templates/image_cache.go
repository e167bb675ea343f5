package templates

import (
	"fmt"
	"os"
	"sync"
	"time"

	"jordanella.com/pk-hunter/internal/cv"
)

// cachedTemplate is a decoded template tagged with the file state it came from
type cachedTemplate struct {
	template *cv.Template
	modTime  time.Time
	size     int64
}

// ImageCache keeps decoded templates keyed by path. An entry is reloaded when
// the file's size or modification time changes.
type ImageCache struct {
	mu      sync.RWMutex
	entries map[string]*cachedTemplate
	stats   CacheStats
}

// CacheStats tracks cache performance
type CacheStats struct {
	Hits   int64 // Served from memory
	Misses int64 // Had to decode
	Evicts int64 // Entries dropped
}

// NewImageCache creates an empty cache
func NewImageCache() *ImageCache {
	return &ImageCache{entries: make(map[string]*cachedTemplate)}
}

// Get returns the template decoded from path, decoding it if the cached copy
// is missing or stale
func (ic *ImageCache) Get(name, path string) (*cv.Template, error) {
	info, err := os.Stat(path)
	if err != nil {
		ic.Evict(path)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat template %s: %w", path, err)
	}

	ic.mu.RLock()
	entry, ok := ic.entries[path]
	ic.mu.RUnlock()
	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		ic.mu.Lock()
		ic.stats.Hits++
		ic.mu.Unlock()
		return entry.template, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	tpl, err := cv.DecodeTemplate(name, data)
	if err != nil {
		return nil, err
	}

	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.stats.Misses++
	ic.entries[path] = &cachedTemplate{template: tpl, modTime: info.ModTime(), size: info.Size()}
	return tpl, nil
}

// Evict drops one entry
func (ic *ImageCache) Evict(path string) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if _, ok := ic.entries[path]; ok {
		delete(ic.entries, path)
		ic.stats.Evicts++
	}
}

// Clear drops every entry
func (ic *ImageCache) Clear() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.stats.Evicts += int64(len(ic.entries))
	ic.entries = make(map[string]*cachedTemplate)
}

// Len returns the number of cached templates
func (ic *ImageCache) Len() int {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return len(ic.entries)
}

// Stats returns cache statistics
func (ic *ImageCache) Stats() CacheStats {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.stats
}
