package cache

import (
	"context"
	"sync"
)

// FolderLookup resolves a media folder name to its destination ID,
// creating the folder when it does not exist yet.
type FolderLookup func(ctx context.Context, name string) (string, error)

// MediaFolderCache memoizes media folder IDs for the duration of a sync
// run. Folder resolution is a get-or-create call against the destination
// platform, so repeating it per image would be wasteful.
type MediaFolderCache struct {
	mu      sync.Mutex
	folders map[string]string
}

// NewMediaFolderCache creates an empty run-scoped folder cache.
func NewMediaFolderCache() *MediaFolderCache {
	return &MediaFolderCache{folders: make(map[string]string)}
}

// Resolve returns the cached folder ID or invokes the lookup and caches
// its result. Lookup failures are not cached.
func (c *MediaFolderCache) Resolve(ctx context.Context, name string, lookup FolderLookup) (string, error) {
	c.mu.Lock()
	if id, ok := c.folders[name]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	id, err := lookup(ctx, name)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.folders[name] = id
	c.mu.Unlock()
	return id, nil
}

// Len returns the number of cached folders.
func (c *MediaFolderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.folders)
}
