package types

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecore/pkg/primitives"
)

func TestInt32FieldSerializeParseRoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 2147483647, -2147483648} {
		f := NewInt32Field(v)
		var buf bytes.Buffer
		require.NoError(t, f.Serialize(&buf))
		require.Equal(t, 4, buf.Len())

		got, err := ParseField(&buf, Int32Type)
		require.NoError(t, err)
		assert.True(t, f.Equals(got), "value %d", v)
	}
}

func TestInt64FieldSerializeParseRoundTrip(t *testing.T) {
	for _, v := range []int64{0, -1, 9223372036854775807, -9223372036854775808} {
		f := NewInt64Field(v)
		var buf bytes.Buffer
		require.NoError(t, f.Serialize(&buf))
		require.Equal(t, 8, buf.Len())

		got, err := ParseField(&buf, Int64Type)
		require.NoError(t, err)
		assert.True(t, f.Equals(got), "value %d", v)
	}
}

func TestInt32FieldCompare(t *testing.T) {
	five := NewInt32Field(5)
	ten := NewInt32Field(10)

	tests := []struct {
		op   primitives.Predicate
		want bool
	}{
		{primitives.Equals, false},
		{primitives.LessThan, true},
		{primitives.GreaterThan, false},
		{primitives.LessThanOrEqual, true},
		{primitives.GreaterThanOrEqual, false},
		{primitives.NotEqual, true},
	}
	for _, tt := range tests {
		got, err := five.Compare(tt.op, ten)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "5 %s 10", tt.op)
	}

	eq, err := five.Compare(primitives.Equals, NewInt32Field(5))
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestCompareAcrossTypesIsFalse(t *testing.T) {
	got, err := NewInt32Field(5).Compare(primitives.Equals, NewInt64Field(5))
	require.NoError(t, err)
	assert.False(t, got)

	assert.False(t, NewInt64Field(5).Equals(NewInt32Field(5)))
}

func TestParseFieldRejectsBadInput(t *testing.T) {
	_, err := ParseField(bytes.NewReader([]byte{1, 2}), Int32Type)
	require.Error(t, err, "short read")

	_, err = ParseField(bytes.NewReader(make([]byte, 8)), Type(0))
	require.Error(t, err, "unknown type")
}

func TestTypeProperties(t *testing.T) {
	assert.Equal(t, uint32(4), Int32Type.Size())
	assert.Equal(t, uint32(8), Int64Type.Size())
	assert.True(t, Int32Type.Valid())
	assert.True(t, Int64Type.Valid())
	assert.False(t, Type(0).Valid())
	assert.Equal(t, uint32(0), Type(0).Size())
}
