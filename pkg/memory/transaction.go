package memory

import (
	"time"

	"pagecore/pkg/storage/page"
)

// Permissions represents the access level a transaction requests on a page.
type Permissions int

const (
	ReadOnly Permissions = iota
	ReadWrite
)

func (p Permissions) String() string {
	if p == ReadWrite {
		return "READ_WRITE"
	}
	return "READ_ONLY"
}

// TransactionInfo is the pool's per-transaction bookkeeping: when it started,
// which pages it dirtied, and which pages it accessed with what permission.
// The dirty set is what a recovery component asks for when deciding what to
// log or undo.
type TransactionInfo struct {
	startTime   time.Time
	dirtyPages  map[page.PageDescriptor]bool
	lockedPages map[page.PageDescriptor]Permissions
}

func newTransactionInfo() *TransactionInfo {
	return &TransactionInfo{
		startTime:   time.Now(),
		dirtyPages:  make(map[page.PageDescriptor]bool),
		lockedPages: make(map[page.PageDescriptor]Permissions),
	}
}

// DirtyPageIDs returns the descriptors of all pages this transaction dirtied,
// in no particular order.
func (ti *TransactionInfo) DirtyPageIDs() []page.PageDescriptor {
	pids := make([]page.PageDescriptor, 0, len(ti.dirtyPages))
	for pid := range ti.dirtyPages {
		pids = append(pids, pid)
	}
	return pids
}

// StartTime returns when the pool first saw this transaction.
func (ti *TransactionInfo) StartTime() time.Time {
	return ti.startTime
}
