package sqlite3

import (
	"container/list"

	"github.com/cockroachdb/swiss"
)

// DefaultPageCacheCapacity is the default number of decoded pages memoised
// by a Database, per spec §5 ("a bounded page cache of ~256 entries").
const DefaultPageCacheCapacity = 256

// pageCache is a bounded LRU cache of decoded pages keyed by page number.
// It is not safe for concurrent use: spec §5 requires callers not to
// interleave concurrent iterations over one Database's file handle, and
// this cache inherits that restriction rather than adding its own locking.
type pageCache struct {
	capacity int
	index    *swiss.Map[uint32, *list.Element]
	order    *list.List // most-recently-used at the front
}

type pageCacheEntry struct {
	pageNumber uint32
	page       *Page
}

func newPageCache(capacity int) *pageCache {
	if capacity <= 0 {
		capacity = DefaultPageCacheCapacity
	}
	return &pageCache{
		capacity: capacity,
		index:    swiss.New[uint32, *list.Element](capacity),
		order:    list.New(),
	}
}

func (c *pageCache) get(n uint32) (*Page, bool) {
	elem, ok := c.index.Get(n)
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*pageCacheEntry).page, true
}

func (c *pageCache) put(n uint32, p *Page) {
	if elem, ok := c.index.Get(n); ok {
		elem.Value.(*pageCacheEntry).page = p
		c.order.MoveToFront(elem)
		return
	}
	elem := c.order.PushFront(&pageCacheEntry{pageNumber: n, page: p})
	c.index.Put(n, elem)
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			c.index.Delete(oldest.Value.(*pageCacheEntry).pageNumber)
		}
	}
}
