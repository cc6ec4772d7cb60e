package btree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecore/pkg/types"
)

func collectForward(t *testing.T, ip *InternalPage) []*TreeEntry {
	t.Helper()
	it := NewInternalIterator(ip)
	require.NoError(t, it.Open())
	defer it.Close()

	var out []*TreeEntry
	for {
		has, err := it.HasNext()
		require.NoError(t, err)
		if !has {
			return out
		}
		e, err := it.Next()
		require.NoError(t, err)
		out = append(out, e)
	}
}

func collectReverse(t *testing.T, ip *InternalPage) []*TreeEntry {
	t.Helper()
	it := NewInternalReverseIterator(ip)
	require.NoError(t, it.Open())
	defer it.Close()

	var out []*TreeEntry
	for {
		has, err := it.HasNext()
		require.NoError(t, err)
		if !has {
			return out
		}
		e, err := it.Next()
		require.NoError(t, err)
		out = append(out, e)
	}
}

func collectRecords(t *testing.T, lp *LeafPage) []*Record {
	t.Helper()
	it := NewLeafIterator(lp)
	require.NoError(t, it.Open())
	defer it.Close()

	var out []*Record
	for {
		has, err := it.HasNext()
		require.NoError(t, err)
		if !has {
			return out
		}
		r, err := it.Next()
		require.NoError(t, err)
		out = append(out, r)
	}
}

func collectRecordsReverse(t *testing.T, lp *LeafPage) []*Record {
	t.Helper()
	it := NewLeafReverseIterator(lp)
	require.NoError(t, it.Open())
	defer it.Close()

	var out []*Record
	for {
		has, err := it.HasNext()
		require.NoError(t, err)
		if !has {
			return out
		}
		r, err := it.Next()
		require.NoError(t, err)
		out = append(out, r)
	}
}

func assertMirrored(t *testing.T, fwd, rev []*TreeEntry) {
	t.Helper()
	require.Len(t, rev, len(fwd))
	for i := range fwd {
		j := len(fwd) - 1 - i
		assert.True(t, fwd[i].Key.Equals(rev[j].Key))
		assert.Equal(t, fwd[i].LeftChild, rev[j].LeftChild)
		assert.Equal(t, fwd[i].RightChild, rev[j].RightChild)
		assert.Equal(t, *fwd[i].Locator, *rev[j].Locator)
	}
}

func TestInternalIteratorsAgreeOnEmptyPage(t *testing.T) {
	ip := newTestInternalPage(t)
	assert.Empty(t, collectForward(t, ip))
	assert.Empty(t, collectReverse(t, ip))
}

func TestInternalIteratorsAgreeOnContiguousPage(t *testing.T) {
	ip := newTestInternalPage(t)
	fillEntries(t, ip, 10)
	assertMirrored(t, collectForward(t, ip), collectReverse(t, ip))
}

func TestInternalIteratorsAgreeOnHoleyPage(t *testing.T) {
	ip := newTestInternalPage(t)
	entries := fillEntries(t, ip, 10)
	for _, i := range []int{1, 4, 5, 8} {
		require.NoError(t, ip.DeleteKeyAndRightChild(entries[i]))
	}

	fwd := collectForward(t, ip)
	require.Len(t, fwd, 6)
	assertMirrored(t, fwd, collectReverse(t, ip))
}

func TestInternalIteratorPairsSurvivingChildren(t *testing.T) {
	ip := newTestInternalPage(t)
	entries := fillEntries(t, ip, 3) // keys 10, 20, 30, children 0..3
	require.NoError(t, ip.DeleteKeyAndRightChild(entries[1]))

	got := collectForward(t, ip)
	require.Len(t, got, 2)

	// key 30's left child is the child of the nearest live slot, not of the
	// cleared slot next to it
	assert.Equal(t, childPid(1), got[1].LeftChild)
	assert.Equal(t, childPid(3), got[1].RightChild)
}

func TestInternalIteratorFailsAfterMutation(t *testing.T) {
	ip := newTestInternalPage(t)
	fillEntries(t, ip, 3)

	it := NewInternalIterator(ip)
	require.NoError(t, it.Open())
	defer it.Close()

	_, err := it.Next()
	require.NoError(t, err)

	e := NewTreeEntry(types.NewInt32Field(40), childPid(3), childPid(4))
	require.NoError(t, ip.InsertEntry(e))

	_, err = it.HasNext()
	require.ErrorIs(t, err, ErrPageMutated)
	_, err = it.Next()
	require.ErrorIs(t, err, ErrPageMutated)

	// rewinding re-arms the iterator against the page's current state
	require.NoError(t, it.Rewind())
	got, err := it.Next()
	require.NoError(t, err)
	assert.True(t, got.Key.Equals(types.NewInt32Field(10)))
}

func TestInternalReverseIteratorFailsAfterMutation(t *testing.T) {
	ip := newTestInternalPage(t)
	entries := fillEntries(t, ip, 3)

	it := NewInternalReverseIterator(ip)
	require.NoError(t, it.Open())
	defer it.Close()

	_, err := it.Next()
	require.NoError(t, err)

	require.NoError(t, ip.DeleteKeyAndRightChild(entries[0]))

	_, err = it.Next()
	require.ErrorIs(t, err, ErrPageMutated)
}

func TestInternalIteratorExhaustion(t *testing.T) {
	ip := newTestInternalPage(t)
	fillEntries(t, ip, 1)

	it := NewInternalIterator(ip)
	require.NoError(t, it.Open())
	defer it.Close()

	_, err := it.Next()
	require.NoError(t, err)
	_, err = it.Next()
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestLeafIteratorsAgree(t *testing.T) {
	lp := newTestLeafPage(t)
	assert.Empty(t, collectRecords(t, lp))
	assert.Empty(t, collectRecordsReverse(t, lp))

	recs := fillRecords(t, lp, 10)
	for _, i := range []int{0, 3, 7} {
		require.NoError(t, lp.DeleteRecord(recs[i]))
	}

	fwd := collectRecords(t, lp)
	rev := collectRecordsReverse(t, lp)
	require.Len(t, fwd, 7)
	require.Len(t, rev, 7)
	for i := range fwd {
		j := len(fwd) - 1 - i
		assert.True(t, fwd[i].Key.Equals(rev[j].Key))
		assert.Equal(t, fwd[i].RID, rev[j].RID)
	}
}

func TestLeafIteratorYieldsKeyOrder(t *testing.T) {
	lp := newTestLeafPage(t)
	for _, v := range []int32{30, 10, 50, 20, 40} {
		rec := NewRecord(types.NewInt32Field(v), RecordID{PageNo: 1, Slot: uint32(v)})
		require.NoError(t, lp.InsertRecord(rec))
	}

	keys := make([]int32, 0, 5)
	for _, r := range collectRecords(t, lp) {
		keys = append(keys, r.Key.(*types.Int32Field).Value)
	}
	assert.Equal(t, []int32{10, 20, 30, 40, 50}, keys)
}

func TestLeafIteratorFailsAfterMutation(t *testing.T) {
	lp := newTestLeafPage(t)
	fillRecords(t, lp, 3)

	it := NewLeafIterator(lp)
	require.NoError(t, it.Open())
	defer it.Close()

	_, err := it.Next()
	require.NoError(t, err)

	rec := NewRecord(types.NewInt32Field(999), RecordID{PageNo: 1, Slot: 999})
	require.NoError(t, lp.InsertRecord(rec))

	_, err = it.Next()
	require.ErrorIs(t, err, ErrPageMutated)

	rit := NewLeafReverseIterator(lp)
	require.NoError(t, rit.Open())
	defer rit.Close()

	_, err = rit.Next()
	require.NoError(t, err)
	require.NoError(t, lp.DeleteRecord(rec))
	_, err = rit.HasNext()
	require.ErrorIs(t, err, ErrPageMutated)
}
