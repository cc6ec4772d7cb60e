package types

import (
	"io"

	"pagecore/pkg/primitives"
)

// Field is a fixed-width, comparable key value stored in index pages.
// The catalog decides which concrete type an index is keyed on; the page
// format only depends on Type().Size() staying constant per index.
type Field interface {
	Serialize(w io.Writer) error

	Compare(op primitives.Predicate, other Field) (bool, error)

	Type() Type

	String() string

	Equals(other Field) bool

	Length() uint32
}
