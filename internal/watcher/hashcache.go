package watcher

import (
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// hashCache remembers the last observed content hash per path so that
// writes which do not change file content (editor saves, touch) can be
// dropped before they invalidate the index.
type hashCache struct {
	mu     sync.Mutex
	hashes map[string]uint64
}

func newHashCache() *hashCache {
	return &hashCache{hashes: make(map[string]uint64)}
}

// changed reports whether the content of path differs from the last
// time it was seen, updating the stored hash. Unreadable files are
// always treated as changed.
func (c *hashCache) changed(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		c.forget(path)
		return true
	}
	sum := xxhash.Sum64(data)

	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.hashes[path]
	c.hashes[path] = sum
	return !ok || prev != sum
}

func (c *hashCache) forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.hashes, path)
}
