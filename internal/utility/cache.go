package utility

import (
	"sync"
	"time"
)

type cacheItem struct {
	value    interface{}
	storedAt time.Time
}

// Cache là cache in-memory theo key: item quá ttl bị coi là stale,
// item quá retention bị dọn bởi cleanupLoop. retention <= 0: không bao giờ dọn.
type Cache struct {
	items     map[string]cacheItem
	mu        sync.RWMutex
	ttl       time.Duration
	retention time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

// NewCache tạo một instance mới của Cache
func NewCache(ttl, retention time.Duration) *Cache {
	if retention > 0 && retention < ttl {
		retention = ttl
	}
	cache := &Cache{
		items:     make(map[string]cacheItem),
		ttl:       ttl,
		retention: retention,
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
	if retention > 0 {
		go cache.cleanupLoop()
	}
	return cache
}

// Set lưu giá trị vào cache
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheItem{value: value, storedAt: c.now()}
}

// Get lấy giá trị còn hạn (chưa quá ttl)
func (c *Cache) Get(key string) (interface{}, bool) {
	value, storedAt, ok := c.GetStale(key)
	if !ok || c.now().Sub(storedAt) > c.ttl {
		return nil, false
	}
	return value, true
}

// GetStale lấy giá trị bất kể còn hạn hay không, kèm thời điểm lưu
func (c *Cache) GetStale(key string) (interface{}, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, exists := c.items[key]
	if !exists {
		return nil, time.Time{}, false
	}
	return item.value, item.storedAt, true
}

// Delete xoá một key
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Stop dừng goroutine dọn dẹp
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

// cleanupLoop dọn item quá retention định kỳ
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.retention)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopChan:
			return
		}
	}
}

// evictExpired dọn item quá retention; retention <= 0 thì giữ tất cả
func (c *Cache) evictExpired() {
	if c.retention <= 0 {
		return
	}
	c.evictOlderThan(c.retention)
}

func (c *Cache) evictOlderThan(age time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, item := range c.items {
		if now.Sub(item.storedAt) > age {
			delete(c.items, k)
		}
	}
}
