package memory

import "errors"

var (
	// ErrBufferPoolFull reports a page load that could not free a cache slot:
	// every resident page is locked, so nothing can be evicted.
	ErrBufferPoolFull = errors.New("buffer pool full, cannot evict")

	// ErrUnknownIndex reports a page reference to an index no file is
	// registered for.
	ErrUnknownIndex = errors.New("no file registered for index")
)
