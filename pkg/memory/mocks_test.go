package memory

import (
	"fmt"
	"sync"

	"pagecore/pkg/primitives"
	"pagecore/pkg/storage/page"
)

// mockPage is a minimal page.Page for exercising the pool without real page
// formats.
type mockPage struct {
	pid     page.PageDescriptor
	dirtier *primitives.TransactionID
}

func (m *mockPage) GetID() page.PageDescriptor {
	return m.pid
}

func (m *mockPage) IsDirty() *primitives.TransactionID {
	return m.dirtier
}

func (m *mockPage) MarkDirty(dirty bool, tid *primitives.TransactionID) {
	if dirty {
		m.dirtier = tid
	} else {
		m.dirtier = nil
	}
}

func (m *mockPage) GetPageData() []byte {
	return make([]byte, page.PageSize)
}

// mockPageFile serves fresh pages on every read and records all traffic.
type mockPageFile struct {
	id      primitives.IndexID
	mu      sync.Mutex
	reads   map[page.PageDescriptor]int
	writes  []page.PageDescriptor
	closed  bool
	failIO  bool
}

func newMockPageFile(id primitives.IndexID) *mockPageFile {
	return &mockPageFile{
		id:    id,
		reads: make(map[page.PageDescriptor]int),
	}
}

func (f *mockPageFile) GetID() primitives.IndexID {
	return f.id
}

func (f *mockPageFile) ReadPage(pid page.PageDescriptor) (page.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIO {
		return nil, fmt.Errorf("mock read failure")
	}
	f.reads[pid]++
	return &mockPage{pid: pid}, nil
}

func (f *mockPageFile) WritePage(p page.Page) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIO {
		return fmt.Errorf("mock write failure")
	}
	f.writes = append(f.writes, p.GetID())
	return nil
}

func (f *mockPageFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *mockPageFile) readCount(pid page.PageDescriptor) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads[pid]
}

func (f *mockPageFile) writeLog() []page.PageDescriptor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]page.PageDescriptor(nil), f.writes...)
}

// lockEverything reports every page as locked, so nothing can be evicted.
type lockEverything struct{}

func (lockEverything) LockPage(*primitives.TransactionID, page.PageDescriptor, bool) error {
	return nil
}

func (lockEverything) IsPageLocked(page.PageDescriptor) bool {
	return true
}

func (lockEverything) UnlockAllPages(*primitives.TransactionID) {}

// recordingLockManager remembers which transactions released their locks.
type recordingLockManager struct {
	mu       sync.Mutex
	released []*primitives.TransactionID
}

func (r *recordingLockManager) LockPage(*primitives.TransactionID, page.PageDescriptor, bool) error {
	return nil
}

func (r *recordingLockManager) IsPageLocked(page.PageDescriptor) bool {
	return false
}

func (r *recordingLockManager) UnlockAllPages(tid *primitives.TransactionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, tid)
}
