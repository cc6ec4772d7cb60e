package btree

import (
	"bytes"
	"fmt"

	"pagecore/pkg/primitives"
	"pagecore/pkg/storage/page"
	"pagecore/pkg/types"
)

// InternalPage is one internal node of a B+Tree index and implements the
// page.Page interface used by the buffer pool.
//
// A node with m keys has m+1 child pointers. In memory the page keeps
// numSlots+1 slots: slot 0 carries only a child pointer (the leftmost child),
// slots 1..numSlots carry a key plus the child pointer to the right of that
// key. Occupancy bit i of the header covers slot i, which is why the header
// is ceil((numSlots+1)/8) bytes.
//
// On disk the layout is:
//
//	[header bitmap][keys: slots 1..numSlots][children: slots 0..numSlots]
//	[zero padding][parent pageNo][child category][page kind]
//
// The number of key slots is floor((pageBits - trailerBits) / (entryBits + 1))
// where an entry is one key plus one child pointer and the trailer accounts
// the parent pointer, the extra child pointer, and the two tag bytes. The +1
// in the denominator is the occupancy bit each entry costs.
type InternalPage struct {
	btreePage
	keys          []types.Field
	children      []primitives.PageNumber
	numSlots      int
	childCategory PageCategory
}

// InternalPageCapacity returns the number of keys an internal page can hold
// for the given key width. Pure function of the page size and entry width;
// the split/merge algorithms use it to decide when a node is full or
// under-occupied.
func InternalPageCapacity(keySize uint32) int {
	entryBits := int(keySize+childPtrSize) * 8
	return (page.PageSize*8 - internalTrailerSize*8) / (entryBits + 1)
}

// NewEmptyInternalPage creates an internal page with no entries, declaring
// the category its children will have. Used for freshly allocated pages.
func NewEmptyInternalPage(pid page.PageDescriptor, keyType types.Type, childCategory PageCategory) (*InternalPage, error) {
	if !keyType.Valid() {
		return nil, fmt.Errorf("invalid key type: %v", keyType)
	}
	if !childCategory.Valid() {
		return nil, fmt.Errorf("invalid child category: %v", childCategory)
	}

	numSlots := InternalPageCapacity(keyType.Size())
	return &InternalPage{
		btreePage: btreePage{
			pid:     pid,
			parent:  primitives.InvalidPageNumber,
			keyType: keyType,
			header:  make([]byte, headerBytes(numSlots)),
		},
		keys:          make([]types.Field, numSlots+1),
		children:      make([]primitives.PageNumber, numSlots+1),
		numSlots:      numSlots,
		childCategory: childCategory,
	}, nil
}

// NewInternalPage reconstructs an internal page from raw bytes read from
// disk. The constructor exactly reproduces the structure that produced the
// bytes: same occupied slots, same keys and children in the same slots, same
// parent pointer. Dirty state is runtime-only and never part of the bytes.
func NewInternalPage(pid page.PageDescriptor, data []byte, keyType types.Type) (*InternalPage, error) {
	if len(data) != page.PageSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrBadPageData, page.PageSize, len(data))
	}
	if PageCategory(data[page.PageSize-1]) != CategoryInternal {
		return nil, fmt.Errorf("%w: not an internal page", ErrBadPageData)
	}

	childCategory := PageCategory(data[page.PageSize-2])
	if !childCategory.Valid() {
		return nil, fmt.Errorf("%w: unknown child category 0x%02x", ErrBadPageData, data[page.PageSize-2])
	}

	ip, err := NewEmptyInternalPage(pid, keyType, childCategory)
	if err != nil {
		return nil, err
	}

	headerSize := headerBytes(ip.numSlots)
	copy(ip.header, data[:headerSize])
	if err := checkReservedBits(ip.header, ip.numSlots); err != nil {
		return nil, err
	}

	keySize := int(keyType.Size())
	keysOff := headerSize
	childrenOff := keysOff + ip.numSlots*keySize

	for i := 1; i <= ip.numSlots; i++ {
		if !ip.isSlotUsed(i) {
			continue
		}
		off := keysOff + (i-1)*keySize
		key, err := types.ParseField(bytes.NewReader(data[off:off+keySize]), keyType)
		if err != nil {
			return nil, fmt.Errorf("%w: key at slot %d: %v", ErrBadPageData, i, err)
		}
		ip.keys[i] = key
	}

	for i := 0; i <= ip.numSlots; i++ {
		if ip.isSlotUsed(i) {
			ip.children[i] = getPageNo(data[childrenOff+i*childPtrSize:])
		}
	}

	ip.parent = getPageNo(data[page.PageSize-6:])
	return ip, nil
}

// GetPageData serializes the page contents into a page-sized byte array.
// Passing the result to NewInternalPage yields an identical page.
func (ip *InternalPage) GetPageData() []byte {
	data := make([]byte, page.PageSize)

	headerSize := headerBytes(ip.numSlots)
	copy(data, ip.header)

	keySize := int(ip.keyType.Size())
	keysOff := headerSize
	childrenOff := keysOff + ip.numSlots*keySize

	for i := 1; i <= ip.numSlots; i++ {
		if !ip.isSlotUsed(i) || ip.keys[i] == nil {
			continue
		}
		off := keysOff + (i-1)*keySize
		buf := bytes.NewBuffer(data[off:off])
		_ = ip.keys[i].Serialize(buf)
	}

	for i := 0; i <= ip.numSlots; i++ {
		if ip.isSlotUsed(i) {
			putPageNo(data[childrenOff+i*childPtrSize:], ip.children[i])
		}
	}

	putPageNo(data[page.PageSize-6:], ip.parent)
	data[page.PageSize-2] = byte(ip.childCategory)
	data[page.PageSize-1] = byte(CategoryInternal)
	return data
}

// GetMaxEntries returns the maximum number of keys this page can hold.
func (ip *InternalPage) GetMaxEntries() int {
	return ip.numSlots
}

// GetNumEntries returns the number of keys currently stored on this page.
func (ip *InternalPage) GetNumEntries() int {
	count := 0
	for i := 1; i <= ip.numSlots; i++ {
		if ip.isSlotUsed(i) {
			count++
		}
	}
	return count
}

// GetNumEmptySlots returns the number of key slots currently unoccupied.
func (ip *InternalPage) GetNumEmptySlots() int {
	return ip.numSlots - ip.GetNumEntries()
}

// IsSlotUsed reports whether slot i holds live data. Slot 0 is the
// child-only slot; slots 1..GetMaxEntries() are key slots.
func (ip *InternalPage) IsSlotUsed(i int) (bool, error) {
	if i < 0 || i > ip.numSlots {
		return false, fmt.Errorf("%w: slot %d not in [0, %d]", ErrOutOfRange, i, ip.numSlots)
	}
	return ip.isSlotUsed(i), nil
}

// ChildCategory returns the declared category of this page's children.
// A node's children are homogeneous, so the category is stored once per page.
func (ip *InternalPage) ChildCategory() PageCategory {
	return ip.childCategory
}

// GetChildID returns the child pointer stored at slot i.
func (ip *InternalPage) GetChildID(i int) (page.PageDescriptor, error) {
	if i < 0 || i > ip.numSlots {
		return page.PageDescriptor{}, fmt.Errorf("%w: slot %d not in [0, %d]", ErrOutOfRange, i, ip.numSlots)
	}
	if !ip.isSlotUsed(i) {
		return page.PageDescriptor{}, fmt.Errorf("%w: slot %d is empty", ErrInvalidLocator, i)
	}
	return ip.childDescriptor(i), nil
}

func (ip *InternalPage) childDescriptor(i int) page.PageDescriptor {
	return page.NewPageDescriptor(ip.pid.GetIndexID(), ip.children[i])
}

// InsertEntry adds the entry to the page and sets its locator to reflect
// where it now lives.
//
// On an empty page the entry's left and right child are both written: the
// left into child slot 0, the key and right child into the first key slot.
// Otherwise the new entry must share a child pointer with an existing entry
// on the page (the node-internal insert contract of the B+Tree structural
// algorithms); the match is found by a deterministic left-to-right slot scan.
// Returns ErrPageFull with no empty slot, ErrBadEntry when neither child of
// the new entry connects to the page.
func (ip *InternalPage) InsertEntry(e *TreeEntry) error {
	if e == nil || e.Key == nil {
		return fmt.Errorf("%w: nil entry or key", ErrBadEntry)
	}
	if e.Key.Type() != ip.keyType {
		return fmt.Errorf("%w: key type %v does not match page key type %v",
			ErrBadEntry, e.Key.Type(), ip.keyType)
	}
	if e.LeftChild.GetIndexID() != ip.pid.GetIndexID() || e.RightChild.GetIndexID() != ip.pid.GetIndexID() {
		return fmt.Errorf("%w: child pages belong to a different index", ErrBadEntry)
	}

	// first entry on the page consumes child slot 0 plus one key slot
	if ip.GetNumEntries() == 0 {
		ip.children[0] = e.LeftChild.PageNo()
		ip.keys[1] = e.Key
		ip.children[1] = e.RightChild.PageNo()
		ip.markSlotUsed(0, true)
		ip.markSlotUsed(1, true)
		ip.version++
		e.Locator = &EntryLocator{Page: ip.pid, Slot: 1}
		return nil
	}

	emptySlot := -1
	for i := 1; i <= ip.numSlots; i++ {
		if !ip.isSlotUsed(i) {
			emptySlot = i
			break
		}
	}
	if emptySlot == -1 {
		return fmt.Errorf("%w: no empty slots on page %v", ErrPageFull, ip.pid)
	}

	// locate the existing child pointer the new entry hangs off, validating
	// key order against the neighbors on the way
	lessOrEqSlot := -1
	for i := 0; i <= ip.numSlots; i++ {
		if !ip.isSlotUsed(i) {
			continue
		}

		if ip.children[i] == e.LeftChild.PageNo() || ip.children[i] == e.RightChild.PageNo() {
			if i > 0 {
				greater, err := ip.keys[i].Compare(primitives.GreaterThan, e.Key)
				if err != nil {
					return err
				}
				if greater {
					return fmt.Errorf("%w: attempt to insert entry out of key order", ErrBadEntry)
				}
			}
			lessOrEqSlot = i
			if ip.children[i] == e.RightChild.PageNo() {
				ip.children[i] = e.LeftChild.PageNo()
			}
		} else if lessOrEqSlot != -1 {
			less, err := ip.keys[i].Compare(primitives.LessThan, e.Key)
			if err != nil {
				return err
			}
			if less {
				return fmt.Errorf("%w: attempt to insert entry out of key order", ErrBadEntry)
			}
			break
		}
	}

	if lessOrEqSlot == -1 {
		return fmt.Errorf("%w: neither child of the new entry matches an entry on page %v",
			ErrBadEntry, ip.pid)
	}

	// shift entries between the empty slot and the insertion point so the new
	// entry lands adjacent to the entry it connects to
	goodSlot := -1
	if emptySlot < lessOrEqSlot {
		for i := emptySlot; i < lessOrEqSlot; i++ {
			ip.moveEntry(i+1, i)
		}
		goodSlot = lessOrEqSlot
	} else {
		for i := emptySlot; i > lessOrEqSlot+1; i-- {
			ip.moveEntry(i-1, i)
		}
		goodSlot = lessOrEqSlot + 1
	}

	ip.markSlotUsed(goodSlot, true)
	ip.keys[goodSlot] = e.Key
	ip.children[goodSlot] = e.RightChild.PageNo()
	ip.version++
	e.Locator = &EntryLocator{Page: ip.pid, Slot: goodSlot}
	return nil
}

// moveEntry moves a key and its child pointer from one slot to another and
// updates the corresponding header bits.
func (ip *InternalPage) moveEntry(from, to int) {
	if from == to || !ip.isSlotUsed(from) || ip.isSlotUsed(to) {
		return
	}
	ip.keys[to] = ip.keys[from]
	ip.children[to] = ip.children[from]
	ip.keys[from] = nil
	ip.markSlotUsed(to, true)
	ip.markSlotUsed(from, false)
}

// validateLocator resolves an entry's locator to the key slot it names,
// failing with ErrInvalidLocator when the locator is absent, points at a
// different page, or names a slot that no longer holds data.
func (ip *InternalPage) validateLocator(loc *EntryLocator) (int, error) {
	if loc == nil {
		return 0, fmt.Errorf("%w: entry has no locator", ErrInvalidLocator)
	}
	if loc.Page != ip.pid {
		return 0, fmt.Errorf("%w: locator names page %v, not %v", ErrInvalidLocator, loc.Page, ip.pid)
	}
	if loc.Slot < 1 || loc.Slot > ip.numSlots {
		return 0, fmt.Errorf("%w: slot %d not in [1, %d]", ErrInvalidLocator, loc.Slot, ip.numSlots)
	}
	if !ip.isSlotUsed(loc.Slot) {
		return 0, fmt.Errorf("%w: slot %d is already empty", ErrInvalidLocator, loc.Slot)
	}
	return loc.Slot, nil
}

// DeleteKeyAndRightChild deletes the entry's key and abandons its right
// child pointer. The surviving left child pointer is not rewritten; any
// pointer repair is the structural-modification caller's responsibility.
// The entry's locator is cleared to reflect it is no longer stored anywhere.
func (ip *InternalPage) DeleteKeyAndRightChild(e *TreeEntry) error {
	slot, err := ip.validateLocator(e.Locator)
	if err != nil {
		return err
	}

	ip.markSlotUsed(slot, false)
	ip.keys[slot] = nil
	ip.version++
	e.Locator = nil
	return nil
}

// DeleteKeyAndLeftChild deletes the entry's key and abandons its left child
// pointer: the surviving right child is relinked into the preceding live
// slot's child position, which the abandoned left child occupied.
func (ip *InternalPage) DeleteKeyAndLeftChild(e *TreeEntry) error {
	slot, err := ip.validateLocator(e.Locator)
	if err != nil {
		return err
	}

	for i := slot - 1; i >= 0; i-- {
		if ip.isSlotUsed(i) {
			ip.children[i] = ip.children[slot]
			break
		}
	}

	ip.markSlotUsed(slot, false)
	ip.keys[slot] = nil
	ip.version++
	e.Locator = nil
	return nil
}

// UpdateEntry overwrites the key and both child pointers at the slot the
// entry's locator names, validating that the new key keeps the page's key
// order intact.
func (ip *InternalPage) UpdateEntry(e *TreeEntry) error {
	if e == nil || e.Key == nil {
		return fmt.Errorf("%w: nil entry or key", ErrBadEntry)
	}

	slot, err := ip.validateLocator(e.Locator)
	if err != nil {
		return err
	}

	for i := slot + 1; i <= ip.numSlots; i++ {
		if !ip.isSlotUsed(i) {
			continue
		}
		less, cmpErr := ip.keys[i].Compare(primitives.LessThan, e.Key)
		if cmpErr != nil {
			return cmpErr
		}
		if less {
			return fmt.Errorf("%w: updated key is greater than its right neighbor", ErrBadEntry)
		}
		break
	}
	for i := slot - 1; i >= 1; i-- {
		if !ip.isSlotUsed(i) {
			continue
		}
		greater, cmpErr := ip.keys[i].Compare(primitives.GreaterThan, e.Key)
		if cmpErr != nil {
			return cmpErr
		}
		if greater {
			return fmt.Errorf("%w: updated key is less than its left neighbor", ErrBadEntry)
		}
		break
	}

	for i := slot - 1; i >= 0; i-- {
		if ip.isSlotUsed(i) {
			ip.children[i] = e.LeftChild.PageNo()
			break
		}
	}
	ip.children[slot] = e.RightChild.PageNo()
	ip.keys[slot] = e.Key
	ip.version++
	return nil
}
