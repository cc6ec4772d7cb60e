package btree

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"pagecore/pkg/primitives"
	"pagecore/pkg/storage/page"
	"pagecore/pkg/types"
)

// IndexFile is one B+Tree index on disk: a metadata page at page 0 followed
// by node pages. It layers node-level semantics (typed reads, root and
// first-leaf tracking, kind-tagged allocation) over the page-granular I/O of
// page.BaseFile.
//
// Thread-safety: safe for concurrent use. Page contents read through it still
// follow the page-level locking contract; the file only guards its own
// metadata and the underlying I/O.
type IndexFile struct {
	base   *page.BaseFile
	meta   *IndexMeta
	logger *zap.Logger
	mu     sync.Mutex // guards meta
}

// OpenIndexFile opens (creating if necessary) the index stored at path. A new
// file gets a fresh metadata page; an existing file has its metadata decoded
// and checked against the expected key type.
func OpenIndexFile(path primitives.Filepath, keyType types.Type, logger *zap.Logger) (*IndexFile, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !keyType.Valid() {
		return nil, fmt.Errorf("invalid key type: %v", keyType)
	}

	base, err := page.NewBaseFile(path)
	if err != nil {
		return nil, err
	}

	f := &IndexFile{
		base:   base,
		logger: logger.With(zap.String("index", string(path))),
	}

	numPages, err := base.NumPages()
	if err != nil {
		base.Close()
		return nil, err
	}

	if numPages == 0 {
		f.meta = NewIndexMeta(keyType)
		if err := f.writeMeta(); err != nil {
			base.Close()
			return nil, err
		}
		f.logger.Info("created index file", zap.String("key_type", keyType.String()))
		return f, nil
	}

	raw, err := base.ReadPageData(0)
	if err != nil {
		base.Close()
		return nil, fmt.Errorf("read index meta: %w", err)
	}
	meta, err := DecodeIndexMeta(raw)
	if err != nil {
		base.Close()
		return nil, err
	}
	if meta.KeyType != keyType {
		base.Close()
		return nil, fmt.Errorf("index keyed on %v, expected %v", meta.KeyType, keyType)
	}

	f.meta = meta
	f.logger.Debug("opened index file",
		zap.Uint32("pages", uint32(numPages)),
		zap.Uint32("root", uint32(meta.Root)))
	return f, nil
}

func (f *IndexFile) writeMeta() error {
	data, err := f.meta.Encode()
	if err != nil {
		return err
	}
	return f.base.WritePageData(0, data)
}

// GetID returns the unique identifier of this index, derived from its path.
func (f *IndexFile) GetID() primitives.IndexID {
	return f.base.GetID()
}

// KeyType returns the type of the keys this index is built over.
func (f *IndexFile) KeyType() types.Type {
	return f.meta.KeyType
}

// NumPages returns the number of pages in the file, including the meta page.
func (f *IndexFile) NumPages() (primitives.PageNumber, error) {
	return f.base.NumPages()
}

// ReadPage reads and deserializes the node page the descriptor names. Page 0
// is the metadata page and is never handed out as a node page.
func (f *IndexFile) ReadPage(pid page.PageDescriptor) (page.Page, error) {
	if pid.GetIndexID() != f.GetID() {
		return nil, fmt.Errorf("page %v does not belong to index %d", pid, f.GetID())
	}
	if pid.PageNo() == 0 {
		return nil, fmt.Errorf("%w: page 0 is the metadata page", ErrBadPageData)
	}

	data, err := f.base.ReadPageData(pid.PageNo())
	if err != nil {
		return nil, fmt.Errorf("read page %v: %w", pid, err)
	}
	return DeserializePage(pid, data, f.meta.KeyType)
}

// WritePage serializes the page and writes it at its own page number. The
// caller decides when to write; the file does not track dirtiness.
func (f *IndexFile) WritePage(p page.Page) error {
	pid := p.GetID()
	if pid.GetIndexID() != f.GetID() {
		return fmt.Errorf("page %v does not belong to index %d", pid, f.GetID())
	}
	if pid.PageNo() == 0 {
		return fmt.Errorf("%w: page 0 is the metadata page", ErrBadPageData)
	}
	return f.base.WritePageData(pid.PageNo(), p.GetPageData())
}

// AllocateLeafPage reserves a new page number and writes an empty leaf page
// there, so the kind tag is on disk before the page is ever linked into the
// tree.
func (f *IndexFile) AllocateLeafPage() (*LeafPage, error) {
	pageNo, err := f.base.AllocateNewPage()
	if err != nil {
		return nil, err
	}

	pid := page.NewPageDescriptor(f.GetID(), pageNo)
	lp, err := NewEmptyLeafPage(pid, f.meta.KeyType)
	if err != nil {
		return nil, err
	}
	if err := f.base.WritePageData(pageNo, lp.GetPageData()); err != nil {
		return nil, err
	}

	f.logger.Debug("allocated leaf page", zap.Uint32("page", uint32(pageNo)))
	return lp, nil
}

// AllocateInternalPage reserves a new page number and writes an empty
// internal page there, declaring the category of its future children.
func (f *IndexFile) AllocateInternalPage(childCategory PageCategory) (*InternalPage, error) {
	pageNo, err := f.base.AllocateNewPage()
	if err != nil {
		return nil, err
	}

	pid := page.NewPageDescriptor(f.GetID(), pageNo)
	ip, err := NewEmptyInternalPage(pid, f.meta.KeyType, childCategory)
	if err != nil {
		return nil, err
	}
	if err := f.base.WritePageData(pageNo, ip.GetPageData()); err != nil {
		return nil, err
	}

	f.logger.Debug("allocated internal page", zap.Uint32("page", uint32(pageNo)))
	return ip, nil
}

// Root returns the page number of the tree's root, or
// primitives.InvalidPageNumber for an empty tree.
func (f *IndexFile) Root() primitives.PageNumber {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meta.Root
}

// SetRoot records a new root page and persists the metadata immediately.
func (f *IndexFile) SetRoot(pageNo primitives.PageNumber) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meta.Root = pageNo
	return f.writeMeta()
}

// FirstLeaf returns the page number of the leftmost leaf, where full scans
// start, or primitives.InvalidPageNumber for an empty tree.
func (f *IndexFile) FirstLeaf() primitives.PageNumber {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meta.FirstLeaf
}

// SetFirstLeaf records a new leftmost leaf and persists the metadata.
func (f *IndexFile) SetFirstLeaf(pageNo primitives.PageNumber) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meta.FirstLeaf = pageNo
	return f.writeMeta()
}

// Close closes the underlying file. Metadata is already persisted on every
// change, so Close has nothing left to flush.
func (f *IndexFile) Close() error {
	return f.base.Close()
}
