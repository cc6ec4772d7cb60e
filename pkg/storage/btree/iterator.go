package btree

import (
	"fmt"
)

// Iterators borrow their page's state rather than snapshotting it. Each one
// captures the page's version counter at Open and fails fast with
// ErrPageMutated on the first HasNext or Next after the page changed, instead
// of yielding entries from a layout that no longer exists.

// InternalIterator walks the live entries of an internal page in increasing
// key order. Each yielded entry pairs a key with the child pointers on either
// side of it, so the left child of entry i is the child of the nearest live
// slot before i, not of slot i-1; after deletes those differ.
type InternalIterator struct {
	ip        *InternalPage
	slot      int
	prevChild int
	version   uint64
	open      bool
}

// NewInternalIterator creates an iterator over the page. Open must be called
// before the first HasNext or Next.
func NewInternalIterator(ip *InternalPage) *InternalIterator {
	return &InternalIterator{ip: ip}
}

func (it *InternalIterator) Open() error {
	it.version = it.ip.version
	it.slot = 1
	it.prevChild = 0
	it.open = true
	return nil
}

func (it *InternalIterator) checkUsable() error {
	if !it.open {
		return fmt.Errorf("iterator not open")
	}
	if it.version != it.ip.version {
		return ErrPageMutated
	}
	return nil
}

// HasNext reports whether another entry remains.
func (it *InternalIterator) HasNext() (bool, error) {
	if err := it.checkUsable(); err != nil {
		return false, err
	}
	for i := it.slot; i <= it.ip.numSlots; i++ {
		if it.ip.isSlotUsed(i) {
			return true, nil
		}
	}
	return false, nil
}

// Next returns the next entry in key order.
func (it *InternalIterator) Next() (*TreeEntry, error) {
	if err := it.checkUsable(); err != nil {
		return nil, err
	}
	for ; it.slot <= it.ip.numSlots; it.slot++ {
		if !it.ip.isSlotUsed(it.slot) {
			continue
		}
		e := &TreeEntry{
			Key:        it.ip.keys[it.slot],
			LeftChild:  it.ip.childDescriptor(it.prevChild),
			RightChild: it.ip.childDescriptor(it.slot),
			Locator:    &EntryLocator{Page: it.ip.pid, Slot: it.slot},
		}
		it.prevChild = it.slot
		it.slot++
		return e, nil
	}
	return nil, fmt.Errorf("%w: no more entries", ErrOutOfRange)
}

// Rewind resets the iterator to the first entry. Equivalent to closing and
// reopening, so it also re-arms the mutation check against the page's current
// state.
func (it *InternalIterator) Rewind() error {
	if !it.open {
		return fmt.Errorf("iterator not open")
	}
	return it.Open()
}

func (it *InternalIterator) Close() {
	it.open = false
}

// InternalReverseIterator walks the live entries of an internal page in
// decreasing key order.
type InternalReverseIterator struct {
	ip      *InternalPage
	slot    int
	version uint64
	open    bool
}

func NewInternalReverseIterator(ip *InternalPage) *InternalReverseIterator {
	return &InternalReverseIterator{ip: ip}
}

func (it *InternalReverseIterator) Open() error {
	it.version = it.ip.version
	it.slot = it.ip.numSlots
	it.open = true
	return nil
}

func (it *InternalReverseIterator) checkUsable() error {
	if !it.open {
		return fmt.Errorf("iterator not open")
	}
	if it.version != it.ip.version {
		return ErrPageMutated
	}
	return nil
}

func (it *InternalReverseIterator) HasNext() (bool, error) {
	if err := it.checkUsable(); err != nil {
		return false, err
	}
	for i := it.slot; i >= 1; i-- {
		if it.ip.isSlotUsed(i) {
			return true, nil
		}
	}
	return false, nil
}

func (it *InternalReverseIterator) Next() (*TreeEntry, error) {
	if err := it.checkUsable(); err != nil {
		return nil, err
	}
	for ; it.slot >= 1; it.slot-- {
		if !it.ip.isSlotUsed(it.slot) {
			continue
		}
		// the left child lives in the nearest live slot before this one
		prevChild := 0
		for i := it.slot - 1; i >= 0; i-- {
			if it.ip.isSlotUsed(i) {
				prevChild = i
				break
			}
		}
		e := &TreeEntry{
			Key:        it.ip.keys[it.slot],
			LeftChild:  it.ip.childDescriptor(prevChild),
			RightChild: it.ip.childDescriptor(it.slot),
			Locator:    &EntryLocator{Page: it.ip.pid, Slot: it.slot},
		}
		it.slot--
		return e, nil
	}
	return nil, fmt.Errorf("%w: no more entries", ErrOutOfRange)
}

func (it *InternalReverseIterator) Rewind() error {
	if !it.open {
		return fmt.Errorf("iterator not open")
	}
	return it.Open()
}

func (it *InternalReverseIterator) Close() {
	it.open = false
}

// LeafIterator walks the live records of a leaf page in increasing key order.
type LeafIterator struct {
	lp      *LeafPage
	slot    int
	version uint64
	open    bool
}

func NewLeafIterator(lp *LeafPage) *LeafIterator {
	return &LeafIterator{lp: lp}
}

func (it *LeafIterator) Open() error {
	it.version = it.lp.version
	it.slot = 0
	it.open = true
	return nil
}

func (it *LeafIterator) checkUsable() error {
	if !it.open {
		return fmt.Errorf("iterator not open")
	}
	if it.version != it.lp.version {
		return ErrPageMutated
	}
	return nil
}

func (it *LeafIterator) HasNext() (bool, error) {
	if err := it.checkUsable(); err != nil {
		return false, err
	}
	for i := it.slot; i < it.lp.numSlots; i++ {
		if it.lp.isSlotUsed(i) {
			return true, nil
		}
	}
	return false, nil
}

func (it *LeafIterator) Next() (*Record, error) {
	if err := it.checkUsable(); err != nil {
		return nil, err
	}
	for ; it.slot < it.lp.numSlots; it.slot++ {
		if !it.lp.isSlotUsed(it.slot) {
			continue
		}
		rec := it.lp.records[it.slot]
		it.slot++
		return rec, nil
	}
	return nil, fmt.Errorf("%w: no more records", ErrOutOfRange)
}

func (it *LeafIterator) Rewind() error {
	if !it.open {
		return fmt.Errorf("iterator not open")
	}
	return it.Open()
}

func (it *LeafIterator) Close() {
	it.open = false
}

// LeafReverseIterator walks the live records of a leaf page in decreasing
// key order.
type LeafReverseIterator struct {
	lp      *LeafPage
	slot    int
	version uint64
	open    bool
}

func NewLeafReverseIterator(lp *LeafPage) *LeafReverseIterator {
	return &LeafReverseIterator{lp: lp}
}

func (it *LeafReverseIterator) Open() error {
	it.version = it.lp.version
	it.slot = it.lp.numSlots - 1
	it.open = true
	return nil
}

func (it *LeafReverseIterator) checkUsable() error {
	if !it.open {
		return fmt.Errorf("iterator not open")
	}
	if it.version != it.lp.version {
		return ErrPageMutated
	}
	return nil
}

func (it *LeafReverseIterator) HasNext() (bool, error) {
	if err := it.checkUsable(); err != nil {
		return false, err
	}
	for i := it.slot; i >= 0; i-- {
		if it.lp.isSlotUsed(i) {
			return true, nil
		}
	}
	return false, nil
}

func (it *LeafReverseIterator) Next() (*Record, error) {
	if err := it.checkUsable(); err != nil {
		return nil, err
	}
	for ; it.slot >= 0; it.slot-- {
		if !it.lp.isSlotUsed(it.slot) {
			continue
		}
		rec := it.lp.records[it.slot]
		it.slot--
		return rec, nil
	}
	return nil, fmt.Errorf("%w: no more records", ErrOutOfRange)
}

func (it *LeafReverseIterator) Rewind() error {
	if !it.open {
		return fmt.Errorf("iterator not open")
	}
	return it.Open()
}

func (it *LeafReverseIterator) Close() {
	it.open = false
}
