package judge

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// Cache stores judge ratings keyed on the exact (criterion, text, context)
// triple so identical proposals re-scored against an unchanged LORE
// snapshot never pay for a second judge call.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]float64
}

// NewCache creates an empty result cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]float64)}
}

// cacheKey length-prefixes each component before hashing so "ab"+"c" and
// "a"+"bc" never collide into the same key.
func cacheKey(criterion, text, contextDigest string) string {
	h := sha256.New()
	h.Write([]byte(fmt.Sprintf("%d:%s|%d:%s|%d:%s",
		len(criterion), criterion,
		len(text), text,
		len(contextDigest), contextDigest)))
	return hex.EncodeToString(h.Sum(nil))
}

// Set stores a rating.
func (c *Cache) Set(criterion, text, contextDigest string, score float64) {
	key := cacheKey(criterion, text, contextDigest)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = score
}

// Get retrieves a cached rating.
func (c *Cache) Get(criterion, text, contextDigest string) (float64, bool) {
	key := cacheKey(criterion, text, contextDigest)
	c.mu.RLock()
	defer c.mu.RUnlock()
	score, ok := c.entries[key]
	return score, ok
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
