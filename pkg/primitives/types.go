package primitives

// IndexID identifies the on-disk file an index lives in. It is derived from
// hashing the file path, so the same path always maps to the same ID.
type IndexID uint64

// PageNumber is the zero-based position of a page within an index file.
type PageNumber uint32

// SlotNumber identifies a slot within a page's fixed-width slot area.
type SlotNumber uint16

// HashCode represents a hash value computed for fast lookups.
type HashCode uint64

// Sentinel values for invalid/unset identifiers
const (
	// InvalidPageNumber represents an invalid or unset page number.
	// Used for: no parent page, no next/prev leaf, uninitialized references.
	InvalidPageNumber PageNumber = 0

	// InvalidIndexID represents an invalid or unset index file ID
	InvalidIndexID IndexID = 0
)
