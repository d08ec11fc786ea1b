package gallery

import (
	"slices"
	"sync"

	"blockgallery/internal/graph"
)

// Collection owns the progressively growing image list. Every mutation bumps
// Version so renderers can tell whether the list changed since they drew it.
type Collection struct {
	mu      sync.RWMutex
	records []ImageRecord
	version uint64
}

func NewCollection() *Collection {
	return &Collection{}
}

// Append adds records and re-sorts the whole list by mode.
func (c *Collection) Append(records []ImageRecord, mode SortMode) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	merged := append(slices.Clone(c.records), records...)
	c.records = SortImages(merged, mode)
	c.version++
	return c.version
}

func (c *Collection) Resort(mode SortMode) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = SortImages(c.records, mode)
	c.version++
	return c.version
}

// Snapshot returns a copy of the list and the version it was taken at.
func (c *Collection) Snapshot() ([]ImageRecord, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.records), c.version
}

func (c *Collection) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func (c *Collection) Get(id string) (ImageRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rec := range c.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return ImageRecord{}, false
}

// Pending lists the records that still need context.
func (c *Collection) Pending() []ImageRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ImageRecord, 0, len(c.records))
	for _, rec := range c.records {
		if !rec.Enriched {
			out = append(out, rec)
		}
	}
	return out
}

// ApplyNeighborhoods enriches records by ID. Already enriched records are
// left alone. It returns how many records changed.
func (c *Collection) ApplyNeighborhoods(byID map[string]graph.Neighborhood) int {
	if len(byID) == 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := 0
	for i := range c.records {
		n, ok := byID[c.records[i].ID]
		if !ok {
			continue
		}
		if c.records[i].Enrich(n) {
			changed++
		}
	}
	if changed > 0 {
		c.version++
	}
	return changed
}
