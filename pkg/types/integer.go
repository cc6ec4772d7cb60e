package types

import (
	"encoding/binary"
	"io"
	"strconv"

	"pagecore/pkg/primitives"
)

// Int32Field represents a 32-bit signed integer key
type Int32Field struct {
	Value int32
}

func NewInt32Field(value int32) *Int32Field {
	return &Int32Field{Value: value}
}

func (f *Int32Field) Serialize(w io.Writer) error {
	bytes := make([]byte, 4)
	binary.BigEndian.PutUint32(bytes, uint32(f.Value)) // #nosec G115
	_, err := w.Write(bytes)
	return err
}

func (f *Int32Field) Compare(op primitives.Predicate, other Field) (bool, error) {
	otherField, ok := other.(*Int32Field)
	if !ok {
		return false, nil
	}
	return compareInt64(int64(f.Value), int64(otherField.Value), op), nil
}

func (f *Int32Field) Type() Type {
	return Int32Type
}

func (f *Int32Field) String() string {
	return strconv.FormatInt(int64(f.Value), 10)
}

func (f *Int32Field) Equals(other Field) bool {
	otherField, ok := other.(*Int32Field)
	if !ok {
		return false
	}
	return f.Value == otherField.Value
}

func (f *Int32Field) Length() uint32 {
	return 4
}

// Int64Field represents a 64-bit signed integer key
type Int64Field struct {
	Value int64
}

func NewInt64Field(value int64) *Int64Field {
	return &Int64Field{Value: value}
}

func (f *Int64Field) Serialize(w io.Writer) error {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, uint64(f.Value)) // #nosec G115
	_, err := w.Write(bytes)
	return err
}

func (f *Int64Field) Compare(op primitives.Predicate, other Field) (bool, error) {
	otherField, ok := other.(*Int64Field)
	if !ok {
		return false, nil
	}
	return compareInt64(f.Value, otherField.Value, op), nil
}

func (f *Int64Field) Type() Type {
	return Int64Type
}

func (f *Int64Field) String() string {
	return strconv.FormatInt(f.Value, 10)
}

func (f *Int64Field) Equals(other Field) bool {
	otherField, ok := other.(*Int64Field)
	if !ok {
		return false
	}
	return f.Value == otherField.Value
}

func (f *Int64Field) Length() uint32 {
	return 8
}

func compareInt64(a, b int64, op primitives.Predicate) bool {
	switch op {
	case primitives.Equals:
		return a == b
	case primitives.LessThan:
		return a < b
	case primitives.GreaterThan:
		return a > b
	case primitives.LessThanOrEqual:
		return a <= b
	case primitives.GreaterThanOrEqual:
		return a >= b
	case primitives.NotEqual:
		return a != b
	default:
		return false
	}
}
