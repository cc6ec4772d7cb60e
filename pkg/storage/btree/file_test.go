package btree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pagecore/pkg/primitives"
	"pagecore/pkg/storage/page"
	"pagecore/pkg/types"
)

func tempIndexPath(t *testing.T) primitives.Filepath {
	t.Helper()
	return primitives.Filepath(filepath.Join(t.TempDir(), "test.idx"))
}

func openTestIndex(t *testing.T, path primitives.Filepath) *IndexFile {
	t.Helper()
	f, err := OpenIndexFile(path, types.Int32Type, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestIndexMetaRoundTrip(t *testing.T) {
	m := NewIndexMeta(types.Int64Type)
	m.Root = 3
	m.FirstLeaf = 7

	data, err := m.Encode()
	require.NoError(t, err)
	require.Len(t, data, page.PageSize)

	got, err := DecodeIndexMeta(data)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestDecodeIndexMetaRejectsGarbage(t *testing.T) {
	_, err := DecodeIndexMeta(make([]byte, page.PageSize))
	require.ErrorIs(t, err, ErrBadPageData)

	wrongMagic := NewIndexMeta(types.Int32Type)
	wrongMagic.Magic = 0xdeadbeef
	data, err := wrongMagic.Encode()
	require.NoError(t, err)
	_, err = DecodeIndexMeta(data)
	require.ErrorIs(t, err, ErrBadPageData)

	wrongPageSize := NewIndexMeta(types.Int32Type)
	wrongPageSize.PageSize = 4096
	data, err = wrongPageSize.Encode()
	require.NoError(t, err)
	_, err = DecodeIndexMeta(data)
	require.ErrorIs(t, err, ErrBadPageData)
}

func TestOpenIndexFileCreatesAndReopens(t *testing.T) {
	path := tempIndexPath(t)

	f := openTestIndex(t, path)
	numPages, err := f.NumPages()
	require.NoError(t, err)
	assert.Equal(t, primitives.PageNumber(1), numPages)
	assert.Equal(t, primitives.InvalidPageNumber, f.Root())
	assert.Equal(t, primitives.InvalidPageNumber, f.FirstLeaf())
	require.NoError(t, f.Close())

	reopened := openTestIndex(t, path)
	assert.Equal(t, types.Int32Type, reopened.KeyType())
}

func TestOpenIndexFileRejectsKeyTypeMismatch(t *testing.T) {
	path := tempIndexPath(t)
	f := openTestIndex(t, path)
	require.NoError(t, f.Close())

	_, err := OpenIndexFile(path, types.Int64Type, zap.NewNop())
	require.Error(t, err)
}

func TestIndexFileRootAndFirstLeafPersist(t *testing.T) {
	path := tempIndexPath(t)
	f := openTestIndex(t, path)
	require.NoError(t, f.SetRoot(5))
	require.NoError(t, f.SetFirstLeaf(2))
	require.NoError(t, f.Close())

	reopened := openTestIndex(t, path)
	assert.Equal(t, primitives.PageNumber(5), reopened.Root())
	assert.Equal(t, primitives.PageNumber(2), reopened.FirstLeaf())
}

func TestIndexFileAllocateWriteRead(t *testing.T) {
	f := openTestIndex(t, tempIndexPath(t))

	lp, err := f.AllocateLeafPage()
	require.NoError(t, err)
	assert.Equal(t, primitives.PageNumber(1), lp.GetID().PageNo())

	rec := NewRecord(types.NewInt32Field(42), RecordID{PageNo: 8, Slot: 3})
	require.NoError(t, lp.InsertRecord(rec))
	require.NoError(t, f.WritePage(lp))

	p, err := f.ReadPage(lp.GetID())
	require.NoError(t, err)
	got, ok := p.(*LeafPage)
	require.True(t, ok)
	require.Equal(t, 1, got.GetNumRecords())
	r, err := got.GetRecord(0)
	require.NoError(t, err)
	assert.True(t, r.Key.Equals(types.NewInt32Field(42)))
	assert.Equal(t, RecordID{PageNo: 8, Slot: 3}, r.RID)

	// a freshly allocated page is readable before any explicit write
	ip, err := f.AllocateInternalPage(CategoryLeaf)
	require.NoError(t, err)
	p, err = f.ReadPage(ip.GetID())
	require.NoError(t, err)
	gotInternal, ok := p.(*InternalPage)
	require.True(t, ok)
	assert.Equal(t, 0, gotInternal.GetNumEntries())
	assert.Equal(t, CategoryLeaf, gotInternal.ChildCategory())
}

func TestIndexFileGuardsMetaPageAndForeignPages(t *testing.T) {
	f := openTestIndex(t, tempIndexPath(t))

	_, err := f.ReadPage(page.NewPageDescriptor(f.GetID(), 0))
	require.ErrorIs(t, err, ErrBadPageData)

	foreign := page.NewPageDescriptor(f.GetID()+1, 1)
	_, err = f.ReadPage(foreign)
	require.Error(t, err)

	lp, err := NewEmptyLeafPage(foreign, types.Int32Type)
	require.NoError(t, err)
	require.Error(t, f.WritePage(lp))
}
