package btree

import (
	"fmt"

	"github.com/vmihailenco/msgpack"

	"pagecore/pkg/primitives"
	"pagecore/pkg/storage/page"
	"pagecore/pkg/types"
)

// indexMagic marks page 0 of an index file as a metadata page of this format.
const indexMagic uint32 = 0x42545245

// IndexMeta is the content of page 0 of an index file: everything needed to
// interpret the node pages that follow. It is msgpack-encoded and padded to a
// full page so the file stays an exact multiple of the page size.
type IndexMeta struct {
	Magic     uint32                `msgpack:"magic"`
	KeyType   types.Type            `msgpack:"key_type"`
	PageSize  int                   `msgpack:"page_size"`
	Root      primitives.PageNumber `msgpack:"root"`
	FirstLeaf primitives.PageNumber `msgpack:"first_leaf"`
}

// NewIndexMeta returns the metadata of a freshly created index: no root and
// no leaves yet.
func NewIndexMeta(keyType types.Type) *IndexMeta {
	return &IndexMeta{
		Magic:     indexMagic,
		KeyType:   keyType,
		PageSize:  page.PageSize,
		Root:      primitives.InvalidPageNumber,
		FirstLeaf: primitives.InvalidPageNumber,
	}
}

// Encode serializes the metadata into a page-sized buffer.
func (m *IndexMeta) Encode() ([]byte, error) {
	raw, err := msgpack.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode index meta: %w", err)
	}
	if len(raw) > page.PageSize {
		return nil, fmt.Errorf("encode index meta: %d bytes exceed page size", len(raw))
	}

	data := make([]byte, page.PageSize)
	copy(data, raw)
	return data, nil
}

// DecodeIndexMeta parses the metadata page and validates it describes an
// index this build can read.
func DecodeIndexMeta(data []byte) (*IndexMeta, error) {
	var m IndexMeta
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode index meta: %v", ErrBadPageData, err)
	}
	if m.Magic != indexMagic {
		return nil, fmt.Errorf("%w: not an index file (magic 0x%08x)", ErrBadPageData, m.Magic)
	}
	if m.PageSize != page.PageSize {
		return nil, fmt.Errorf("%w: index uses page size %d, this build uses %d",
			ErrBadPageData, m.PageSize, page.PageSize)
	}
	if !m.KeyType.Valid() {
		return nil, fmt.Errorf("%w: unknown key type %d", ErrBadPageData, m.KeyType)
	}
	return &m, nil
}
