package page

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecore/pkg/primitives"
)

func newTestBaseFile(t *testing.T) *BaseFile {
	t.Helper()
	path := primitives.Filepath(filepath.Join(t.TempDir(), "test.idx"))
	bf, err := NewBaseFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { bf.Close() })
	return bf
}

func TestNewBaseFileRejectsEmptyPath(t *testing.T) {
	_, err := NewBaseFile("")
	require.Error(t, err)
}

func TestBaseFileIDDerivedFromPath(t *testing.T) {
	path := primitives.Filepath(filepath.Join(t.TempDir(), "same.idx"))

	a, err := NewBaseFile(path)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := NewBaseFile(path)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, a.GetID(), b.GetID())
	assert.Equal(t, path, b.FilePath())
}

func TestBaseFileWriteReadPage(t *testing.T) {
	bf := newTestBaseFile(t)

	data := make([]byte, PageSize)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, bf.WritePageData(0, data))

	got, err := bf.ReadPageData(0)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.Error(t, bf.WritePageData(0, data[:100]), "wrong size rejected")
}

func TestBaseFileAllocateNewPage(t *testing.T) {
	bf := newTestBaseFile(t)

	n, err := bf.NumPages()
	require.NoError(t, err)
	assert.Equal(t, primitives.PageNumber(0), n)

	first, err := bf.AllocateNewPage()
	require.NoError(t, err)
	assert.Equal(t, primitives.PageNumber(0), first)

	second, err := bf.AllocateNewPage()
	require.NoError(t, err)
	assert.Equal(t, primitives.PageNumber(1), second)

	n, err = bf.NumPages()
	require.NoError(t, err)
	assert.Equal(t, primitives.PageNumber(2), n)

	// allocation zero-fills the reserved page
	got, err := bf.ReadPageData(second)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, PageSize), got)
}

func TestBaseFileClosedOperationsFail(t *testing.T) {
	bf := newTestBaseFile(t)
	require.NoError(t, bf.Close())

	_, err := bf.NumPages()
	require.Error(t, err)
	_, err = bf.ReadPageData(0)
	require.Error(t, err)
	require.Error(t, bf.WritePageData(0, make([]byte, PageSize)))
	_, err = bf.AllocateNewPage()
	require.Error(t, err)

	// double close is fine
	require.NoError(t, bf.Close())
}
