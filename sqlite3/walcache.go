package sqlite3

import (
	"container/list"

	"github.com/cockroachdb/swiss"
)

// walFrameCache is a bounded LRU cache of decoded WAL frames keyed by frame
// index, mirroring pageCache's structure (spec §5's "~1024 entries").
type walFrameCache struct {
	capacity int
	index    *swiss.Map[int, *list.Element]
	order    *list.List
}

type walFrameCacheEntry struct {
	idx   int
	frame Frame
}

func newWALFrameCache(capacity int) *walFrameCache {
	if capacity <= 0 {
		capacity = DefaultWALFrameCacheCapacity
	}
	return &walFrameCache{
		capacity: capacity,
		index:    swiss.New[int, *list.Element](capacity),
		order:    list.New(),
	}
}

func (c *walFrameCache) get(idx int) (Frame, bool) {
	elem, ok := c.index.Get(idx)
	if !ok {
		return Frame{}, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*walFrameCacheEntry).frame, true
}

func (c *walFrameCache) put(idx int, f Frame) {
	if elem, ok := c.index.Get(idx); ok {
		elem.Value.(*walFrameCacheEntry).frame = f
		c.order.MoveToFront(elem)
		return
	}
	elem := c.order.PushFront(&walFrameCacheEntry{idx: idx, frame: f})
	c.index.Put(idx, elem)
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			c.index.Delete(oldest.Value.(*walFrameCacheEntry).idx)
		}
	}
}
