package page

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"pagecore/pkg/primitives"
)

// PageDescriptor is the identity of a page: the index file it belongs to and
// its page number within that file. It is an immutable value, comparable with
// ==, and usable directly as a map key. Pages reference other pages only
// through descriptors, never through object references, since any page can be
// evicted and reloaded independently.
type PageDescriptor struct {
	indexID primitives.IndexID
	pageNum primitives.PageNumber
}

// NewPageDescriptor creates a new page descriptor
func NewPageDescriptor(indexID primitives.IndexID, pageNum primitives.PageNumber) PageDescriptor {
	return PageDescriptor{
		indexID: indexID,
		pageNum: pageNum,
	}
}

// GetIndexID returns the index file ID
func (pd PageDescriptor) GetIndexID() primitives.IndexID {
	return pd.indexID
}

// PageNo returns the page number
func (pd PageDescriptor) PageNo() primitives.PageNumber {
	return pd.pageNum
}

// Serialize returns this page ID as a byte array
func (pd PageDescriptor) Serialize() []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(pd.indexID))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(pd.pageNum))
	return buf
}

// String returns a string representation of this page ID
func (pd PageDescriptor) String() string {
	return fmt.Sprintf("PageDescriptor(index=%d, page=%d)", pd.indexID, pd.pageNum)
}

// HashCode returns a hash code for this page ID
func (pd PageDescriptor) HashCode() primitives.HashCode {
	h := fnv.New64a()
	h.Write(pd.Serialize())
	return primitives.HashCode(h.Sum64())
}
