package cache

import (
	"sync"

	"github.com/animtools/timewarp/pkg/core"
)

// PinRowCache maps pin ids to their database row IDs for the current
// session, so save/load round trips avoid per-pin lookups.
type PinRowCache struct {
	mu   sync.RWMutex
	rows map[core.PinID]uint
}

// NewPinRowCache creates a new PinRowCache.
func NewPinRowCache() *PinRowCache {
	return &PinRowCache{
		rows: make(map[core.PinID]uint),
	}
}

// Get retrieves a row ID by pin id.
func (c *PinRowCache) Get(id core.PinID) (uint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	row, ok := c.rows[id]
	return row, ok
}

// Set stores a row ID by pin id.
func (c *PinRowCache) Set(id core.PinID, row uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[id] = row
}

// Delete removes a pin's row mapping.
func (c *PinRowCache) Delete(id core.PinID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rows, id)
}

// Reset clears all mappings.
func (c *PinRowCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = make(map[core.PinID]uint)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}

func (c *SafeCounter) Dec() {
	c.mu.Lock()
	c.v--
	c.mu.Unlock()
}
