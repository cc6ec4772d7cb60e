package memory

import (
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"pagecore/pkg/primitives"
	"pagecore/pkg/storage/page"
)

// DefaultPoolSize is the page capacity used when the config leaves it unset.
const DefaultPoolSize = 50

// Config carries the buffer pool's collaborators. Zero values get safe
// defaults: DefaultPoolSize, a nop logger, a noop meter, and a lock manager
// that grants everything.
type Config struct {
	PoolSize int
	Logger   *zap.Logger
	Meter    metric.Meter
	Locks    LockManager
}

// PageStore is the buffer pool: a bounded LRU cache of pages with
// transaction-aware dirty tracking. It is the only path between page
// consumers and the index files, so every page access funnels through
// GetPage, where the lock manager gets its chance to suspend the caller.
//
// Thread-safe. The pages it hands out are not: the caller's exclusive lock
// (requested via ReadWrite permission) is what makes mutating them safe.
type PageStore struct {
	registry     *FileRegistry
	cache        PageCache
	locks        LockManager
	logger       *zap.Logger
	metrics      *storeMetrics
	poolSize     int
	mutex        sync.Mutex
	transactions map[*primitives.TransactionID]*TransactionInfo
}

// NewPageStore creates a buffer pool over the given file registry.
func NewPageStore(registry *FileRegistry, cfg Config) (*PageStore, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	locks := cfg.Locks
	if locks == nil {
		locks = NewGrantAllLockManager()
	}

	metrics, err := newStoreMetrics(cfg.Meter)
	if err != nil {
		return nil, err
	}

	return &PageStore{
		registry:     registry,
		cache:        NewLRUPageCache(poolSize),
		locks:        locks,
		logger:       logger,
		metrics:      metrics,
		poolSize:     poolSize,
		transactions: make(map[*primitives.TransactionID]*TransactionInfo),
	}, nil
}

// GetPage retrieves a page on behalf of a transaction, blocking in the lock
// manager until the requested access is granted. A cached page is returned as
// is; a miss loads the page through the file registry, evicting first when
// the pool is at capacity. Fails with ErrBufferPoolFull only when every
// resident page is locked and none can be evicted.
func (p *PageStore) GetPage(tid *primitives.TransactionID, pid page.PageDescriptor, perm Permissions) (page.Page, error) {
	// suspension point: block here, never while holding the pool mutex
	if err := p.locks.LockPage(tid, pid, perm == ReadWrite); err != nil {
		return nil, fmt.Errorf("failed to acquire lock on %v: %w", pid, err)
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.trackPageAccess(tid, pid, perm)

	if pg, exists := p.cache.Get(pid); exists {
		p.metrics.add(p.metrics.hits)
		return pg, nil
	}
	p.metrics.add(p.metrics.misses)

	if p.cache.Size() >= p.poolSize {
		if err := p.evictPage(); err != nil {
			return nil, err
		}
	}

	file, err := p.registry.GetFile(pid.GetIndexID())
	if err != nil {
		return nil, err
	}
	pg, err := file.ReadPage(pid)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %v: %w", pid, err)
	}

	if err := p.cache.Put(pid, pg); err != nil {
		return nil, fmt.Errorf("failed to cache page %v: %w", pid, err)
	}

	p.logger.Debug("loaded page", zap.String("page", pid.String()))
	return pg, nil
}

// trackPageAccess records the access in the transaction's bookkeeping.
// Caller holds the pool mutex.
func (p *PageStore) trackPageAccess(tid *primitives.TransactionID, pid page.PageDescriptor, perm Permissions) {
	if tid == nil {
		return
	}
	txInfo, exists := p.transactions[tid]
	if !exists {
		txInfo = newTransactionInfo()
		p.transactions[tid] = txInfo
	}
	txInfo.lockedPages[pid] = perm
}

// evictPage frees one cache slot, scanning in LRU order. A clean unlocked
// page is preferred; failing that, the least recently used unlocked dirty
// page is flushed and then evicted, so dirty bytes are never dropped.
// Caller holds the pool mutex.
func (p *PageStore) evictPage() error {
	all := p.cache.GetAll()

	for _, pid := range all {
		pg, exists := p.cache.Peek(pid)
		if !exists || pg.IsDirty() != nil || p.locks.IsPageLocked(pid) {
			continue
		}
		p.cache.Remove(pid)
		p.metrics.add(p.metrics.evictions)
		p.logger.Debug("evicted clean page", zap.String("page", pid.String()))
		return nil
	}

	for _, pid := range all {
		pg, exists := p.cache.Peek(pid)
		if !exists || p.locks.IsPageLocked(pid) {
			continue
		}
		if err := p.writePageOut(pg); err != nil {
			return fmt.Errorf("failed to flush page %v before eviction: %w", pid, err)
		}
		p.cache.Remove(pid)
		p.metrics.add(p.metrics.evictions)
		p.logger.Debug("flushed and evicted dirty page", zap.String("page", pid.String()))
		return nil
	}

	return fmt.Errorf("%w: all %d pages are locked", ErrBufferPoolFull, len(all))
}

// writePageOut persists the page and clears its dirty marker.
func (p *PageStore) writePageOut(pg page.Page) error {
	pid := pg.GetID()
	file, err := p.registry.GetFile(pid.GetIndexID())
	if err != nil {
		return err
	}
	if err := file.WritePage(pg); err != nil {
		return err
	}
	pg.MarkDirty(false, nil)
	p.metrics.add(p.metrics.flushes)
	return nil
}

// MarkDirty records that the transaction modified the page. This is the only
// pool path that sets the dirty marker; page content mutations never set it
// on their own.
func (p *PageStore) MarkDirty(tid *primitives.TransactionID, pg page.Page) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	pg.MarkDirty(true, tid)
	p.cache.Put(pg.GetID(), pg)

	if tid == nil {
		return
	}
	txInfo, exists := p.transactions[tid]
	if !exists {
		txInfo = newTransactionInfo()
		p.transactions[tid] = txInfo
	}
	txInfo.dirtyPages[pg.GetID()] = true
}

// IsDirty returns the transaction that dirtied the cached page, or nil when
// the page is clean or not resident.
func (p *PageStore) IsDirty(pid page.PageDescriptor) *primitives.TransactionID {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	pg, exists := p.cache.Peek(pid)
	if !exists {
		return nil
	}
	return pg.IsDirty()
}

// DirtyPages returns the descriptors of all pages the transaction dirtied.
// A recovery component uses this to decide what to log or undo.
func (p *PageStore) DirtyPages(tid *primitives.TransactionID) []page.PageDescriptor {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	txInfo, exists := p.transactions[tid]
	if !exists {
		return nil
	}
	return txInfo.DirtyPageIDs()
}

// FlushPage persists the cached page regardless of its dirty state and clears
// the dirty marker. Flushing an absent page is a no-op.
func (p *PageStore) FlushPage(pid page.PageDescriptor) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.flushPageLocked(pid)
}

func (p *PageStore) flushPageLocked(pid page.PageDescriptor) error {
	pg, exists := p.cache.Peek(pid)
	if !exists {
		return nil
	}
	return p.writePageOut(pg)
}

// FlushAllPages persists every cached page.
func (p *PageStore) FlushAllPages() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, pid := range p.cache.GetAll() {
		if err := p.flushPageLocked(pid); err != nil {
			return fmt.Errorf("failed to flush page %v: %w", pid, err)
		}
	}
	return nil
}

// FlushPagesOf persists every page the transaction dirtied, then drops the
// transaction's bookkeeping and releases its locks. This is the pool-side
// half of a commit.
func (p *PageStore) FlushPagesOf(tid *primitives.TransactionID) error {
	p.mutex.Lock()
	txInfo, exists := p.transactions[tid]
	if !exists {
		p.mutex.Unlock()
		p.locks.UnlockAllPages(tid)
		return nil
	}

	for pid := range txInfo.dirtyPages {
		if err := p.flushPageLocked(pid); err != nil {
			p.mutex.Unlock()
			return fmt.Errorf("failed to flush page %v: %w", pid, err)
		}
	}
	delete(p.transactions, tid)
	p.mutex.Unlock()

	p.locks.UnlockAllPages(tid)
	return nil
}

// DiscardPagesOf drops the transaction's dirty pages from the cache without
// writing them, so the next GetPage reloads the clean on-disk copies. This is
// the pool-side half of an abort. Bookkeeping and locks are released.
func (p *PageStore) DiscardPagesOf(tid *primitives.TransactionID) {
	p.mutex.Lock()
	txInfo, exists := p.transactions[tid]
	if exists {
		for pid := range txInfo.dirtyPages {
			p.cache.Remove(pid)
		}
		delete(p.transactions, tid)
	}
	p.mutex.Unlock()

	p.locks.UnlockAllPages(tid)
}

// CachedPages returns the number of pages currently resident.
func (p *PageStore) CachedPages() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.cache.Size()
}

// Close flushes every cached page. The file registry stays open; closing the
// files is its owner's call.
func (p *PageStore) Close() error {
	if err := p.FlushAllPages(); err != nil {
		return fmt.Errorf("failed to flush pages during shutdown: %w", err)
	}
	return nil
}
