package types

type Type uint8

const (
	Int32Type Type = iota + 1
	Int64Type
)

// String returns a string representation of the type
func (t Type) String() string {
	switch t {
	case Int32Type:
		return "INT32_TYPE"
	case Int64Type:
		return "INT64_TYPE"
	default:
		return "UNKNOWN_TYPE"
	}
}

// Size returns the serialized width of a field of this type in bytes.
// Index pages rely on every key of a given type having the same width,
// so only fixed-width types are representable.
func (t Type) Size() uint32 {
	switch t {
	case Int32Type:
		return 4
	case Int64Type:
		return 8
	default:
		return 0
	}
}

// Valid reports whether t is a known key type.
func (t Type) Valid() bool {
	return t == Int32Type || t == Int64Type
}
