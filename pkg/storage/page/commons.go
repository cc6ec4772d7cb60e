package page

import (
	"fmt"
	"os"
	"sync"

	"pagecore/pkg/primitives"
)

// BaseFile provides page-granular I/O over one OS file: reading and writing
// fixed-size blocks by page number, counting pages, and atomically allocating
// new pages. Higher layers (the index file, the buffer pool) speak to disk
// exclusively through it.
//
// Thread-safety: all public methods use read/write locks to ensure safe
// concurrent access.
type BaseFile struct {
	file     *os.File            // The underlying OS file handle for I/O operations
	indexID  primitives.IndexID  // Unique identifier generated from the file path hash
	mutex    sync.RWMutex        // Read-write mutex for thread-safe operations
	filePath primitives.Filepath // Absolute path to the index file
}

// NewBaseFile opens (creating if necessary) the file at filePath and prepares
// it for page-based operations. The file's ID is the hash of its path, so the
// same path always yields the same ID.
func NewBaseFile(filePath primitives.Filepath) (*BaseFile, error) {
	if filePath == "" {
		return nil, fmt.Errorf("filePath cannot be empty")
	}

	file, err := openFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return &BaseFile{
		file:     file,
		indexID:  filePath.Hash(),
		filePath: filePath,
	}, nil
}

// GetID returns the unique identifier for this file.
func (bf *BaseFile) GetID() primitives.IndexID {
	return bf.indexID
}

// NumPages returns the total number of pages in this file, rounding a partial
// trailing page up.
func (bf *BaseFile) NumPages() (primitives.PageNumber, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	fileInfo, err := bf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	numPages := primitives.PageNumber(fileInfo.Size() / int64(PageSize))
	if fileInfo.Size()%int64(PageSize) != 0 {
		numPages++
	}

	return numPages, nil
}

// ReadPageData reads exactly PageSize bytes from the file at the offset
// corresponding to the given page number.
func (bf *BaseFile) ReadPageData(pageNo primitives.PageNumber) ([]byte, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return nil, fmt.Errorf("file is closed")
	}

	offset := int64(pageNo) * int64(PageSize)
	pageData := make([]byte, PageSize)

	_, err := bf.file.ReadAt(pageData, offset)
	return pageData, err
}

// WritePageData writes exactly PageSize bytes to the file at the offset
// corresponding to the given page number, then syncs the file so the write is
// persisted before returning.
func (bf *BaseFile) WritePageData(pageNo primitives.PageNumber, pageData []byte) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return fmt.Errorf("file is closed")
	}

	if len(pageData) != PageSize {
		return fmt.Errorf("invalid page data size: expected %d, got %d", PageSize, len(pageData))
	}

	offset := int64(pageNo) * int64(PageSize)

	if _, err := bf.file.WriteAt(pageData, offset); err != nil {
		return fmt.Errorf("failed to write page data: %w", err)
	}

	if err := bf.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	return nil
}

// AllocateNewPage atomically allocates and reserves the next available page
// number. The new page is zero-filled on disk so the file size increases
// immediately and no concurrent caller can allocate the same number. The
// caller is expected to overwrite the reserved page with real data via
// WritePageData.
func (bf *BaseFile) AllocateNewPage() (primitives.PageNumber, error) {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	fileInfo, err := bf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	currentSize := fileInfo.Size()
	numPages := currentSize / int64(PageSize)
	if currentSize%int64(PageSize) != 0 {
		numPages++
	}

	allocatedPageNo := primitives.PageNumber(numPages)

	zeroPage := make([]byte, PageSize)
	offset := int64(allocatedPageNo) * int64(PageSize)

	if _, err := bf.file.WriteAt(zeroPage, offset); err != nil {
		return 0, fmt.Errorf("failed to reserve page space: %w", err)
	}

	if err := bf.file.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync file after page allocation: %w", err)
	}

	return allocatedPageNo, nil
}

// Close closes the underlying file handle. After Close, all other methods
// return errors.
func (bf *BaseFile) Close() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file != nil {
		err := bf.file.Close()
		bf.file = nil
		return err
	}

	return nil
}

// FilePath returns the path this file was opened with.
func (bf *BaseFile) FilePath() primitives.Filepath {
	return bf.filePath
}

func openFile(filename primitives.Filepath) (*os.File, error) {
	file, err := os.OpenFile(string(filename), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %v", filename, err)
	}
	return file, nil
}
