package btree

import "errors"

// Error kinds surfaced by page operations. None of these are retried
// internally: ErrPageFull is the signal for the structural-modification layer
// to split, everything else indicates a caller contract violation or a
// corrupt buffer. Callers test with errors.Is.
var (
	// ErrOutOfRange reports a slot index outside the page's slot range.
	ErrOutOfRange = errors.New("slot index out of range")

	// ErrPageFull reports an insert into a page with no empty slots.
	ErrPageFull = errors.New("page is full")

	// ErrBadEntry reports an entry whose child pointers do not connect to any
	// existing entry on the page (a non-adjacent insert), or an update that
	// would break key ordering.
	ErrBadEntry = errors.New("entry does not fit the page")

	// ErrInvalidLocator reports an update or delete referencing a missing or
	// stale locator.
	ErrInvalidLocator = errors.New("invalid entry locator")

	// ErrPageMutated reports an iterator advanced after its page was mutated.
	ErrPageMutated = errors.New("page mutated during iteration")

	// ErrBadPageData reports a malformed byte buffer: wrong length, unknown
	// page kind, unknown child category, or occupancy bits past the slot count.
	ErrBadPageData = errors.New("malformed page data")
)
