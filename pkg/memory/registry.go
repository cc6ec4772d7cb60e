package memory

import (
	"fmt"
	"sync"

	"pagecore/pkg/primitives"
	"pagecore/pkg/storage/page"
)

// PageFile is the on-disk collaborator the buffer pool loads pages from and
// flushes pages to. btree.IndexFile implements it.
type PageFile interface {
	GetID() primitives.IndexID
	ReadPage(pid page.PageDescriptor) (page.Page, error)
	WritePage(p page.Page) error
	Close() error
}

// FileRegistry is the catalog of open index files, keyed by their IDs.
// The buffer pool resolves every page descriptor through it.
//
// Thread-safe.
type FileRegistry struct {
	files map[primitives.IndexID]PageFile
	mutex sync.RWMutex
}

func NewFileRegistry() *FileRegistry {
	return &FileRegistry{
		files: make(map[primitives.IndexID]PageFile),
	}
}

// RegisterFile adds a file to the catalog. Registering a file with the ID of
// an existing entry replaces the entry; the replaced file is not closed.
func (r *FileRegistry) RegisterFile(f PageFile) error {
	if f == nil {
		return fmt.Errorf("file cannot be nil")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.files[f.GetID()] = f
	return nil
}

// GetFile returns the file registered for the index.
func (r *FileRegistry) GetFile(indexID primitives.IndexID) (PageFile, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	f, exists := r.files[indexID]
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrUnknownIndex, indexID)
	}
	return f, nil
}

// RemoveFile removes a file from the catalog and closes it.
func (r *FileRegistry) RemoveFile(indexID primitives.IndexID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	f, exists := r.files[indexID]
	if !exists {
		return fmt.Errorf("%w: %d", ErrUnknownIndex, indexID)
	}

	delete(r.files, indexID)
	return f.Close()
}

// Size returns the number of registered files.
func (r *FileRegistry) Size() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.files)
}

// Close closes every registered file and empties the catalog, returning the
// first close error encountered.
func (r *FileRegistry) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var firstErr error
	for id, f := range r.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close file for index %d: %w", id, err)
		}
	}
	r.files = make(map[primitives.IndexID]PageFile)
	return firstErr
}
