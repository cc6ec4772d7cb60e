package btree

import (
	"bytes"
	"fmt"

	"pagecore/pkg/primitives"
	"pagecore/pkg/storage/page"
	"pagecore/pkg/types"
)

// LeafPage is one leaf node of a B+Tree index. Slots hold full records (key
// plus the heap location of the indexed tuple) in increasing key order, and
// sibling-leaf links replace the child pointers of internal pages. Occupancy
// bit i covers record slot i; the extra header bit past the last slot is the
// format's reserved flag and is always zero for leaves.
//
// On disk:
//
//	[header bitmap][records: slots 0..numSlots-1][zero padding]
//	[parent pageNo][prev leaf pageNo][next leaf pageNo][page kind]
type LeafPage struct {
	btreePage
	records  []*Record
	numSlots int
	prevLeaf primitives.PageNumber
	nextLeaf primitives.PageNumber
}

// recordWidth is the fixed serialized size of one leaf record: the key plus
// the heap page number and tuple slot of its RecordID.
func recordWidth(keySize uint32) int {
	return int(keySize) + 8
}

// LeafPageCapacity returns the number of records a leaf page can hold for
// the given key width.
func LeafPageCapacity(keySize uint32) int {
	recordBits := recordWidth(keySize) * 8
	return (page.PageSize*8 - leafTrailerSize*8) / (recordBits + 1)
}

// NewEmptyLeafPage creates a leaf page with no records and no sibling links.
func NewEmptyLeafPage(pid page.PageDescriptor, keyType types.Type) (*LeafPage, error) {
	if !keyType.Valid() {
		return nil, fmt.Errorf("invalid key type: %v", keyType)
	}

	numSlots := LeafPageCapacity(keyType.Size())
	return &LeafPage{
		btreePage: btreePage{
			pid:     pid,
			parent:  primitives.InvalidPageNumber,
			keyType: keyType,
			header:  make([]byte, headerBytes(numSlots)),
		},
		records:  make([]*Record, numSlots),
		numSlots: numSlots,
		prevLeaf: primitives.InvalidPageNumber,
		nextLeaf: primitives.InvalidPageNumber,
	}, nil
}

// NewLeafPage reconstructs a leaf page from raw bytes read from disk,
// reproducing exactly the structure that produced them.
func NewLeafPage(pid page.PageDescriptor, data []byte, keyType types.Type) (*LeafPage, error) {
	if len(data) != page.PageSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrBadPageData, page.PageSize, len(data))
	}
	if PageCategory(data[page.PageSize-1]) != CategoryLeaf {
		return nil, fmt.Errorf("%w: not a leaf page", ErrBadPageData)
	}

	lp, err := NewEmptyLeafPage(pid, keyType)
	if err != nil {
		return nil, err
	}

	headerSize := headerBytes(lp.numSlots)
	copy(lp.header, data[:headerSize])
	if err := checkReservedBits(lp.header, lp.numSlots-1); err != nil {
		return nil, err
	}

	keySize := int(keyType.Size())
	width := recordWidth(keyType.Size())

	for i := 0; i < lp.numSlots; i++ {
		if !lp.isSlotUsed(i) {
			continue
		}
		off := headerSize + i*width
		key, err := types.ParseField(bytes.NewReader(data[off:off+keySize]), keyType)
		if err != nil {
			return nil, fmt.Errorf("%w: record key at slot %d: %v", ErrBadPageData, i, err)
		}

		rid := RecordID{
			PageNo: getPageNo(data[off+keySize:]),
			Slot:   uint32(getPageNo(data[off+keySize+4:])),
		}
		rec := NewRecord(key, rid)
		rec.Locator = &EntryLocator{Page: pid, Slot: i}
		lp.records[i] = rec
	}

	lp.parent = getPageNo(data[page.PageSize-13:])
	lp.prevLeaf = getPageNo(data[page.PageSize-9:])
	lp.nextLeaf = getPageNo(data[page.PageSize-5:])
	return lp, nil
}

// GetPageData serializes the page contents into a page-sized byte array.
// Passing the result to NewLeafPage yields an identical page.
func (lp *LeafPage) GetPageData() []byte {
	data := make([]byte, page.PageSize)

	headerSize := headerBytes(lp.numSlots)
	copy(data, lp.header)

	keySize := int(lp.keyType.Size())
	width := recordWidth(lp.keyType.Size())

	for i := 0; i < lp.numSlots; i++ {
		if !lp.isSlotUsed(i) || lp.records[i] == nil {
			continue
		}
		off := headerSize + i*width
		buf := bytes.NewBuffer(data[off:off])
		_ = lp.records[i].Key.Serialize(buf)
		putPageNo(data[off+keySize:], lp.records[i].RID.PageNo)
		putPageNo(data[off+keySize+4:], primitives.PageNumber(lp.records[i].RID.Slot))
	}

	putPageNo(data[page.PageSize-13:], lp.parent)
	putPageNo(data[page.PageSize-9:], lp.prevLeaf)
	putPageNo(data[page.PageSize-5:], lp.nextLeaf)
	data[page.PageSize-1] = byte(CategoryLeaf)
	return data
}

// GetMaxRecords returns the maximum number of records this page can hold.
func (lp *LeafPage) GetMaxRecords() int {
	return lp.numSlots
}

// GetNumRecords returns the number of records currently stored on this page.
func (lp *LeafPage) GetNumRecords() int {
	count := 0
	for i := 0; i < lp.numSlots; i++ {
		if lp.isSlotUsed(i) {
			count++
		}
	}
	return count
}

// GetNumEmptySlots returns the number of record slots currently unoccupied.
func (lp *LeafPage) GetNumEmptySlots() int {
	return lp.numSlots - lp.GetNumRecords()
}

// IsSlotUsed reports whether slot i holds a live record.
func (lp *LeafPage) IsSlotUsed(i int) (bool, error) {
	if i < 0 || i >= lp.numSlots {
		return false, fmt.Errorf("%w: slot %d not in [0, %d)", ErrOutOfRange, i, lp.numSlots)
	}
	return lp.isSlotUsed(i), nil
}

// PrevLeaf returns the page number of the preceding sibling leaf, or
// primitives.InvalidPageNumber if this is the leftmost leaf.
func (lp *LeafPage) PrevLeaf() primitives.PageNumber {
	return lp.prevLeaf
}

// NextLeaf returns the page number of the following sibling leaf, or
// primitives.InvalidPageNumber if this is the rightmost leaf.
func (lp *LeafPage) NextLeaf() primitives.PageNumber {
	return lp.nextLeaf
}

func (lp *LeafPage) SetPrevLeaf(pageNo primitives.PageNumber) {
	lp.prevLeaf = pageNo
}

func (lp *LeafPage) SetNextLeaf(pageNo primitives.PageNumber) {
	lp.nextLeaf = pageNo
}

// GetRecord returns the record at slot i, or nil if the slot is empty.
func (lp *LeafPage) GetRecord(i int) (*Record, error) {
	if i < 0 || i >= lp.numSlots {
		return nil, fmt.Errorf("%w: slot %d not in [0, %d)", ErrOutOfRange, i, lp.numSlots)
	}
	if !lp.isSlotUsed(i) {
		return nil, nil
	}
	return lp.records[i], nil
}

// InsertRecord adds the record to the page in key order, shifting records
// between the first empty slot and the insertion point to make room. The
// record's locator is set to reflect where it now lives. Fails with
// ErrPageFull when no slot is empty.
func (lp *LeafPage) InsertRecord(rec *Record) error {
	if rec == nil || rec.Key == nil {
		return fmt.Errorf("%w: nil record or key", ErrBadEntry)
	}
	if rec.Key.Type() != lp.keyType {
		return fmt.Errorf("%w: key type %v does not match page key type %v",
			ErrBadEntry, rec.Key.Type(), lp.keyType)
	}

	emptySlot := -1
	for i := 0; i < lp.numSlots; i++ {
		if !lp.isSlotUsed(i) {
			emptySlot = i
			break
		}
	}
	if emptySlot == -1 {
		return fmt.Errorf("%w: no empty slots on page %v", ErrPageFull, lp.pid)
	}

	// last live slot whose key is less than or equal to the new key
	lessOrEqSlot := -1
	for i := 0; i < lp.numSlots; i++ {
		if !lp.isSlotUsed(i) {
			continue
		}
		lessOrEq, err := lp.records[i].Key.Compare(primitives.LessThanOrEqual, rec.Key)
		if err != nil {
			return err
		}
		if !lessOrEq {
			break
		}
		lessOrEqSlot = i
	}

	goodSlot := -1
	if emptySlot < lessOrEqSlot {
		for i := emptySlot; i < lessOrEqSlot; i++ {
			lp.moveRecord(i+1, i)
		}
		goodSlot = lessOrEqSlot
	} else {
		for i := emptySlot; i > lessOrEqSlot+1; i-- {
			lp.moveRecord(i-1, i)
		}
		goodSlot = lessOrEqSlot + 1
	}

	lp.markSlotUsed(goodSlot, true)
	lp.records[goodSlot] = rec
	lp.version++
	rec.Locator = &EntryLocator{Page: lp.pid, Slot: goodSlot}
	return nil
}

// moveRecord moves a record from one slot to another, updating the header
// bits and the record's locator.
func (lp *LeafPage) moveRecord(from, to int) {
	if from == to || !lp.isSlotUsed(from) || lp.isSlotUsed(to) {
		return
	}
	lp.records[to] = lp.records[from]
	if lp.records[to].Locator != nil {
		lp.records[to].Locator.Slot = to
	}
	lp.records[from] = nil
	lp.markSlotUsed(to, true)
	lp.markSlotUsed(from, false)
}

func (lp *LeafPage) validateLocator(loc *EntryLocator) (int, error) {
	if loc == nil {
		return 0, fmt.Errorf("%w: record has no locator", ErrInvalidLocator)
	}
	if loc.Page != lp.pid {
		return 0, fmt.Errorf("%w: locator names page %v, not %v", ErrInvalidLocator, loc.Page, lp.pid)
	}
	if loc.Slot < 0 || loc.Slot >= lp.numSlots {
		return 0, fmt.Errorf("%w: slot %d not in [0, %d)", ErrInvalidLocator, loc.Slot, lp.numSlots)
	}
	if !lp.isSlotUsed(loc.Slot) {
		return 0, fmt.Errorf("%w: slot %d is already empty", ErrInvalidLocator, loc.Slot)
	}
	return loc.Slot, nil
}

// DeleteRecord removes the record at the slot its locator names. The slot is
// cleared but not compacted; remaining records stay where they are. The
// record's locator is cleared to reflect it is no longer stored anywhere.
func (lp *LeafPage) DeleteRecord(rec *Record) error {
	slot, err := lp.validateLocator(rec.Locator)
	if err != nil {
		return err
	}

	lp.markSlotUsed(slot, false)
	lp.records[slot] = nil
	lp.version++
	rec.Locator = nil
	return nil
}

// UpdateRecord overwrites the key and heap location at the slot the record's
// locator names, validating that the new key keeps the page's key order.
func (lp *LeafPage) UpdateRecord(rec *Record) error {
	if rec == nil || rec.Key == nil {
		return fmt.Errorf("%w: nil record or key", ErrBadEntry)
	}

	slot, err := lp.validateLocator(rec.Locator)
	if err != nil {
		return err
	}

	for i := slot + 1; i < lp.numSlots; i++ {
		if !lp.isSlotUsed(i) {
			continue
		}
		less, cmpErr := lp.records[i].Key.Compare(primitives.LessThan, rec.Key)
		if cmpErr != nil {
			return cmpErr
		}
		if less {
			return fmt.Errorf("%w: updated key is greater than its right neighbor", ErrBadEntry)
		}
		break
	}
	for i := slot - 1; i >= 0; i-- {
		if !lp.isSlotUsed(i) {
			continue
		}
		greater, cmpErr := lp.records[i].Key.Compare(primitives.GreaterThan, rec.Key)
		if cmpErr != nil {
			return cmpErr
		}
		if greater {
			return fmt.Errorf("%w: updated key is less than its left neighbor", ErrBadEntry)
		}
		break
	}

	lp.records[slot] = rec
	lp.version++
	return nil
}
