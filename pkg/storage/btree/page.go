// Package btree implements the on-disk page format of a B+Tree index: leaf
// and internal node pages over the fixed-size page abstraction, with a header
// bitmap marking slot occupancy, fixed-width slot areas, and parent/child/
// sibling pointers packed into a trailer at the end of the page.
//
// Page mutation operations are not internally thread-safe. Callers are
// expected to hold an exclusive lock on the page (granted by the external
// lock manager at BufferPool.GetPage time) before calling insert, delete or
// update; the operations do not re-check locking.
package btree

import (
	"encoding/binary"
	"fmt"

	"pagecore/pkg/primitives"
	"pagecore/pkg/storage/page"
	"pagecore/pkg/types"
)

// PageCategory tags a node page as leaf or internal. It doubles as the
// child-category tag of internal pages, since a node's children are
// homogeneous, and as the page-kind discriminator stored in the last byte of
// every serialized node page.
type PageCategory byte

const (
	CategoryInternal PageCategory = 0x01
	CategoryLeaf     PageCategory = 0x02
)

func (c PageCategory) Valid() bool {
	return c == CategoryInternal || c == CategoryLeaf
}

func (c PageCategory) String() string {
	switch c {
	case CategoryInternal:
		return "internal"
	case CategoryLeaf:
		return "leaf"
	default:
		return "invalid"
	}
}

const (
	// childPtrSize is the width of a child/sibling/parent page pointer (a
	// page number within the same index file).
	childPtrSize = 4

	// internalTrailerSize accounts the bytes an internal page spends outside
	// its key slots: the parent pointer, the one extra child pointer a node
	// with m keys needs for its m+1 children, the child-category tag, and the
	// page-kind tag.
	internalTrailerSize = childPtrSize + childPtrSize + 1 + 1

	// leafTrailerSize accounts the parent pointer, the previous/next sibling
	// leaf pointers, and the page-kind tag.
	leafTrailerSize = 3*childPtrSize + 1
)

// btreePage carries the state common to both node page kinds: identity,
// parent pointer, key type, the slot-occupancy bitmap, and the runtime-only
// dirty marker. The bitmap has one bit per slot plus one extra bit, so the
// header is ceil((numSlots+1)/8) bytes; which slot bit 0 belongs to differs
// between the two kinds.
type btreePage struct {
	pid     page.PageDescriptor
	parent  primitives.PageNumber
	keyType types.Type
	header  []byte
	dirtier *primitives.TransactionID

	// version counts mutations so borrowed iterators can fail fast instead of
	// yielding entries from a page that changed under them.
	version uint64
}

// GetID returns the identity of this page.
func (bp *btreePage) GetID() page.PageDescriptor {
	return bp.pid
}

// IsDirty returns the transaction that last dirtied this page, or nil if the
// page is clean.
func (bp *btreePage) IsDirty() *primitives.TransactionID {
	return bp.dirtier
}

// MarkDirty sets the dirty state of this page as dirtied by a particular
// transaction. It is the only mutator of the dirty marker.
func (bp *btreePage) MarkDirty(dirty bool, tid *primitives.TransactionID) {
	if dirty {
		bp.dirtier = tid
	} else {
		bp.dirtier = nil
	}
}

// Parent returns the page number of this page's parent, or
// primitives.InvalidPageNumber for a root.
func (bp *btreePage) Parent() primitives.PageNumber {
	return bp.parent
}

func (bp *btreePage) SetParent(pageNo primitives.PageNumber) {
	bp.parent = pageNo
}

func (bp *btreePage) KeyType() types.Type {
	return bp.keyType
}

// isSlotUsed reports bit i of the header bitmap without bounds checking.
func (bp *btreePage) isSlotUsed(i int) bool {
	return bp.header[i/8]&(1<<(i%8)) != 0
}

// markSlotUsed fills or clears bit i of the header bitmap.
func (bp *btreePage) markSlotUsed(i int, used bool) {
	if used {
		bp.header[i/8] |= 1 << (i % 8)
	} else {
		bp.header[i/8] &^= 1 << (i % 8)
	}
}

// headerBytes computes the size of the occupancy bitmap for a page with the
// given number of slots: ceil((numSlots + 1) / 8). The +1 reserves the extra
// bit the on-disk format has always carried; preserving the arithmetic keeps
// the format byte-for-byte stable.
func headerBytes(numSlots int) int {
	return (numSlots + 1 + 7) / 8
}

// checkReservedBits verifies that no occupancy bit past maxBit is set in the
// header. Set bits there mean the buffer was not produced by this format.
func checkReservedBits(header []byte, maxBit int) error {
	for i := maxBit + 1; i < len(header)*8; i++ {
		if header[i/8]&(1<<(i%8)) != 0 {
			return fmt.Errorf("%w: occupancy bit %d set past slot count", ErrBadPageData, i)
		}
	}
	return nil
}

func putPageNo(buf []byte, pageNo primitives.PageNumber) {
	binary.BigEndian.PutUint32(buf, uint32(pageNo))
}

func getPageNo(buf []byte) primitives.PageNumber {
	return primitives.PageNumber(binary.BigEndian.Uint32(buf))
}

// DeserializePage reconstructs a node page from a raw page buffer, using the
// page-kind tag in the last byte to pick the variant. The page kinds form a
// closed set; no other kind is expected to appear in this format family.
func DeserializePage(pid page.PageDescriptor, data []byte, keyType types.Type) (page.Page, error) {
	if len(data) != page.PageSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrBadPageData, page.PageSize, len(data))
	}

	switch PageCategory(data[len(data)-1]) {
	case CategoryInternal:
		return NewInternalPage(pid, data, keyType)
	case CategoryLeaf:
		return NewLeafPage(pid, data, keyType)
	default:
		return nil, fmt.Errorf("%w: unknown page kind 0x%02x", ErrBadPageData, data[len(data)-1])
	}
}
