// Package memory provides the buffer pool: an LRU cache of index pages with
// transaction-aware dirty tracking, eviction and flushing.
package memory

import (
	"fmt"
	"sync"

	"pagecore/pkg/storage/page"
)

// PageCache stores and retrieves pages in memory. It knows nothing about
// transactions, locks, or durability; the PageStore layers those on top.
type PageCache interface {
	// Get retrieves a page and marks it as recently used.
	Get(pid page.PageDescriptor) (page.Page, bool)

	// Peek retrieves a page without touching its recency. Eviction scans use
	// it so that skipping a page does not promote it.
	Peek(pid page.PageDescriptor) (page.Page, bool)

	// Put stores a page, updating it in place if already present. Fails when
	// the cache is at capacity and the page is new.
	Put(pid page.PageDescriptor, p page.Page) error

	// Remove drops a page. Does nothing if the page is absent.
	Remove(pid page.PageDescriptor)

	// Size returns the current number of cached pages.
	Size() int

	// Clear removes all pages.
	Clear()

	// GetAll returns all cached page descriptors, least recently used first.
	GetAll() []page.PageDescriptor
}

// lruNode is a single node in the recency list.
type lruNode struct {
	pid  page.PageDescriptor
	page page.Page
	prev *lruNode
	next *lruNode
}

// LRUPageCache is a PageCache with LRU recency order: a doubly linked list
// combined with a map for O(1) lookup, insertion and removal. It never evicts
// on its own; a Put at capacity fails and the caller decides what to drop.
//
// Thread-safe.
type LRUPageCache struct {
	maxSize int
	cache   map[page.PageDescriptor]*lruNode
	head    *lruNode // most recently used end
	tail    *lruNode // least recently used end
	mutex   sync.RWMutex
}

// NewLRUPageCache creates a cache holding at most maxSize pages.
func NewLRUPageCache(maxSize int) *LRUPageCache {
	head := &lruNode{}
	tail := &lruNode{}
	head.next = tail
	tail.prev = head

	return &LRUPageCache{
		maxSize: maxSize,
		cache:   make(map[page.PageDescriptor]*lruNode),
		head:    head,
		tail:    tail,
	}
}

func (c *LRUPageCache) addToFront(n *lruNode) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *LRUPageCache) removeNode(n *lruNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *LRUPageCache) moveToFront(n *lruNode) {
	c.removeNode(n)
	c.addToFront(n)
}

func (c *LRUPageCache) Get(pid page.PageDescriptor) (page.Page, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, exists := c.cache[pid]; exists {
		c.moveToFront(n)
		return n.page, true
	}
	return nil, false
}

func (c *LRUPageCache) Peek(pid page.PageDescriptor) (page.Page, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if n, exists := c.cache[pid]; exists {
		return n.page, true
	}
	return nil, false
}

func (c *LRUPageCache) Put(pid page.PageDescriptor, p page.Page) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, exists := c.cache[pid]; exists {
		n.page = p
		c.moveToFront(n)
		return nil
	}

	if len(c.cache) >= c.maxSize {
		return fmt.Errorf("cache full, cannot add page %v", pid)
	}

	newNode := &lruNode{pid: pid, page: p}
	c.cache[pid] = newNode
	c.addToFront(newNode)
	return nil
}

func (c *LRUPageCache) Remove(pid page.PageDescriptor) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, exists := c.cache[pid]; exists {
		delete(c.cache, pid)
		c.removeNode(n)
	}
}

func (c *LRUPageCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cache)
}

func (c *LRUPageCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[page.PageDescriptor]*lruNode)
	c.head.next = c.tail
	c.tail.prev = c.head
}

func (c *LRUPageCache) GetAll() []page.PageDescriptor {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	pids := make([]page.PageDescriptor, 0, len(c.cache))
	current := c.tail.prev
	for current != c.head {
		pids = append(pids, current.pid)
		current = current.prev
	}
	return pids
}
