package page

import (
	"pagecore/pkg/primitives"
)

const (
	// PageSize is the size of each page in bytes (8KB)
	PageSize = 8192
)

// Page interface represents a page that is resident in the buffer pool.
// Pages may be "dirty", indicating they have been modified since last written
// to disk; the dirty marker carries the transaction responsible.
type Page interface {
	// GetID returns the identity of this page
	GetID() PageDescriptor

	// IsDirty returns the transaction ID that last dirtied this page, or nil if clean
	IsDirty() *primitives.TransactionID

	// MarkDirty sets the dirty state of this page. This is the only mutator of
	// the dirty marker; content-mutating operations never set it implicitly.
	MarkDirty(dirty bool, tid *primitives.TransactionID)

	// GetPageData returns a byte array representing the contents of this page.
	// The invariant is that passing the returned bytes back through the page's
	// deserializer produces a logically identical page. Dirty state is
	// runtime-only and is never part of the serialized form.
	GetPageData() []byte
}
