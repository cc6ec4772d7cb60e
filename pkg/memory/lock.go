package memory

import (
	"pagecore/pkg/primitives"
	"pagecore/pkg/storage/page"
)

// LockManager is the concurrency collaborator the buffer pool suspends in.
// GetPage blocks inside LockPage until the lock is granted or the manager
// gives up (deadlock detection, timeout); the pool itself never retries.
// Implementations own the locking policy; the pool only reports intent
// (shared vs exclusive) and releases per transaction.
type LockManager interface {
	// LockPage acquires a lock on the page for the transaction, blocking
	// until granted. Exclusive requests intend modification.
	LockPage(tid *primitives.TransactionID, pid page.PageDescriptor, exclusive bool) error

	// IsPageLocked reports whether any transaction currently holds a lock on
	// the page. Eviction skips locked pages.
	IsPageLocked(pid page.PageDescriptor) bool

	// UnlockAllPages releases every lock the transaction holds.
	UnlockAllPages(tid *primitives.TransactionID)
}

// grantAllLockManager grants every request immediately and tracks nothing.
// It is the default when no real lock manager is wired in, for single-client
// use and tests.
type grantAllLockManager struct{}

// NewGrantAllLockManager returns a LockManager that never blocks and never
// reports a page as locked.
func NewGrantAllLockManager() LockManager {
	return grantAllLockManager{}
}

func (grantAllLockManager) LockPage(*primitives.TransactionID, page.PageDescriptor, bool) error {
	return nil
}

func (grantAllLockManager) IsPageLocked(page.PageDescriptor) bool {
	return false
}

func (grantAllLockManager) UnlockAllPages(*primitives.TransactionID) {}
