package types

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ParseField reads and parses a field from the given reader based on the
// specified field type. It is the inverse of Field.Serialize.
func ParseField(r io.Reader, fieldType Type) (Field, error) {
	size := fieldType.Size()
	if size == 0 {
		return nil, fmt.Errorf("invalid field type size: %v", fieldType)
	}

	bytes := make([]byte, size)
	if _, err := io.ReadFull(r, bytes); err != nil {
		return nil, err
	}

	switch fieldType {
	case Int32Type:
		return NewInt32Field(int32(binary.BigEndian.Uint32(bytes))), nil
	case Int64Type:
		return NewInt64Field(int64(binary.BigEndian.Uint64(bytes))), nil
	default:
		return nil, fmt.Errorf("unsupported field type: %v", fieldType)
	}
}
