package capture

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"jordanella.com/phone-agent-go/internal/logging"
)

const (
	defaultCacheSize = 3
	defaultCacheTTL  = 2 * time.Second
	cacheKeySlot     = 500 * time.Millisecond
)

type cacheEntry struct {
	key      string
	data     *ScreenshotData
	storedAt time.Time
}

// Cache is a small LRU of in-memory screenshots whose entries expire
// after a fixed TTL
type Cache struct {
	maxSize int
	ttl     time.Duration
	order   *list.List // front = most recently used
	entries map[string]*list.Element
	now     func() time.Time
	logger  *logging.Logger
	mu      sync.Mutex
}

// NewCache creates a cache. Non-positive arguments select the defaults of
// 3 entries and a 2s TTL.
func NewCache(maxSize int, ttl time.Duration, logger *logging.Logger) *Cache {
	if maxSize <= 0 {
		maxSize = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{
		maxSize: maxSize,
		ttl:     ttl,
		order:   list.New(),
		entries: make(map[string]*list.Element),
		now:     time.Now,
		logger:  logger,
	}
}

// GenerateKey builds a key from the foreground package and the time of the
// last window change, bucketed into 500ms slots
func GenerateKey(packageName string, windowEventTime time.Time) string {
	slot := windowEventTime.UnixMilli() / cacheKeySlot.Milliseconds() * cacheKeySlot.Milliseconds()
	return fmt.Sprintf("%s_%d", packageName, slot)
}

// Get returns the cached screenshot for key, or nil if absent or expired
func (c *Cache) Get(key string) *ScreenshotData {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil
	}

	entry := elem.Value.(*cacheEntry)
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.removeElement(elem)
		c.logger.Debug(fmt.Sprintf("Cache entry expired: %s", key))
		return nil
	}

	c.order.MoveToFront(elem)
	c.logger.Debug(fmt.Sprintf("Cache hit: %s", key))
	return entry.data
}

// Put stores data under key, evicting the least recently used entry when full
func (c *Cache) Put(key string, data *ScreenshotData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.data = data
		entry.storedAt = c.now()
		c.order.MoveToFront(elem)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, data: data, storedAt: c.now()})
	for c.order.Len() > c.maxSize {
		c.removeElement(c.order.Back())
	}
	c.logger.Debug(fmt.Sprintf("Cache stored: %s, total: %d", key, c.order.Len()))
}

// Clear removes every entry
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

// EvictExpired drops every entry older than the TTL and returns how many
// were removed
func (c *Cache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.Sub(elem.Value.(*cacheEntry).storedAt) > c.ttl {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}

	if removed > 0 {
		c.logger.Debug(fmt.Sprintf("Evicted %d expired cache entries", removed))
	}
	return removed
}

// Stats reports the current and maximum entry counts
func (c *Cache) Stats() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return map[string]int{
		"size":    c.order.Len(),
		"maxSize": c.maxSize,
	}
}

func (c *Cache) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.entries, elem.Value.(*cacheEntry).key)
}
