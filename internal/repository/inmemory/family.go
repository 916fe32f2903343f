package inmemory

import (
	"sync"
	"time"

	familydomain "cepas/internal/domain/family"
)

type InMemoryFamilyCache struct {
	mu    sync.RWMutex
	items map[int64]familyItem
	now   func() time.Time

	// epoch advances on every invalidation. invalidated keeps the epoch of
	// the last Delete per family and cleared the epoch of the last Clear.
	epoch       uint64
	invalidated map[int64]uint64
	cleared     uint64
}

type familyItem struct {
	value     familydomain.Aggregate
	expiresAt time.Time
}

func NewInMemoryFamilyCache() *InMemoryFamilyCache {
	return &InMemoryFamilyCache{
		items:       make(map[int64]familyItem),
		invalidated: make(map[int64]uint64),
		now:         time.Now,
	}
}

func (c *InMemoryFamilyCache) Get(familyID int64) (*familydomain.Aggregate, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[familyID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[familyID]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, familyID)
		}
		c.mu.Unlock()
		return nil, false
	}

	value := item.value
	return &value, true
}

func (c *InMemoryFamilyCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

func (c *InMemoryFamilyCache) Set(familyID int64, gen uint64, aggregate *familydomain.Aggregate, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cleared > gen || c.invalidated[familyID] > gen {
		return
	}
	if aggregate == nil || ttl <= 0 {
		delete(c.items, familyID)
		return
	}
	c.items[familyID] = familyItem{
		value:     *aggregate,
		expiresAt: c.now().Add(ttl),
	}
}

func (c *InMemoryFamilyCache) Delete(familyID int64) {
	c.mu.Lock()
	c.epoch++
	c.invalidated[familyID] = c.epoch
	delete(c.items, familyID)
	c.mu.Unlock()
}

func (c *InMemoryFamilyCache) Clear() {
	c.mu.Lock()
	c.epoch++
	c.cleared = c.epoch
	c.items = make(map[int64]familyItem)
	c.invalidated = make(map[int64]uint64)
	c.mu.Unlock()
}
