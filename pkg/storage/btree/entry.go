package btree

import (
	"fmt"

	"pagecore/pkg/primitives"
	"pagecore/pkg/storage/page"
	"pagecore/pkg/types"
)

// EntryLocator identifies where a persisted entry or record currently lives:
// the page holding it and the slot within that page. Locators are issued by
// InsertEntry/InsertRecord and by iteration; update and delete operations
// require one and clear it once the slot no longer holds the entry.
type EntryLocator struct {
	Page page.PageDescriptor
	Slot int
}

func (l *EntryLocator) String() string {
	return fmt.Sprintf("EntryLocator(%v, slot=%d)", l.Page, l.Slot)
}

// TreeEntry is one key of an internal page together with the child pointers
// on either side of it. Entries are never owned independently: they are
// written into and synthesized out of internal pages.
type TreeEntry struct {
	Key        types.Field
	LeftChild  page.PageDescriptor
	RightChild page.PageDescriptor
	Locator    *EntryLocator
}

func NewTreeEntry(key types.Field, leftChild, rightChild page.PageDescriptor) *TreeEntry {
	return &TreeEntry{
		Key:        key,
		LeftChild:  leftChild,
		RightChild: rightChild,
	}
}

func (e *TreeEntry) String() string {
	return fmt.Sprintf("TreeEntry(key=%v, left=%d, right=%d)",
		e.Key, e.LeftChild.PageNo(), e.RightChild.PageNo())
}

// RecordID points at the heap location a leaf record indexes: the heap page
// number and the tuple slot within it. The heap file itself is an external
// collaborator; the index only stores the reference.
type RecordID struct {
	PageNo primitives.PageNumber
	Slot   uint32
}

func (r RecordID) String() string {
	return fmt.Sprintf("RecordID(page=%d, slot=%d)", r.PageNo, r.Slot)
}

// Record is one keyed record of a leaf page: the key plus the heap location
// of the indexed tuple. Same locator discipline as TreeEntry.
type Record struct {
	Key     types.Field
	RID     RecordID
	Locator *EntryLocator
}

func NewRecord(key types.Field, rid RecordID) *Record {
	return &Record{
		Key: key,
		RID: rid,
	}
}

func (r *Record) String() string {
	return fmt.Sprintf("Record(key=%v, rid=%v)", r.Key, r.RID)
}
