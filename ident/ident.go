// Package ident provides the unique-identifier value kind used for
// document `_id` fields and primary-key lookups (spec.md §3, §4.4).
//
// The teacher repository (datalog/identity.go) hashes an arbitrary string
// into a SHA1-backed Identity with a lazily-computed L85 string encoding.
// nimbusdb's identifier kind is a 128-bit UUID per spec.md's value domain,
// so this type wraps google/uuid.UUID instead of a content hash, but keeps
// the teacher's shape: a small value type with String/Compare/Bytes
// methods and a package-level constructor.
package ident

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is a 128-bit unique identifier.
type ID struct {
	value uuid.UUID
}

// New generates a fresh random identifier.
func New() ID {
	return ID{value: uuid.New()}
}

// Parse parses the string representation of an identifier produced by
// String.
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("parse identifier %q: %w", s, err)
	}
	return ID{value: u}, nil
}

// FromBytes builds an identifier from its 16 raw bytes.
func FromBytes(b []byte) (ID, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return ID{}, fmt.Errorf("identifier from bytes: %w", err)
	}
	return ID{value: u}, nil
}

// String returns the canonical UUID string representation.
func (i ID) String() string {
	return i.value.String()
}

// Bytes returns the raw 16-byte representation.
func (i ID) Bytes() []byte {
	b := i.value
	return b[:]
}

// Compare gives a total order over identifiers, used by the value-domain
// comparator when two `_id` values are compared directly.
func (i ID) Compare(other ID) int {
	for k := 0; k < len(i.value); k++ {
		if i.value[k] != other.value[k] {
			if i.value[k] < other.value[k] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Equal reports whether two identifiers refer to the same value.
func (i ID) Equal(other ID) bool {
	return i.value == other.value
}

// IsZero reports whether this is the zero identifier (never assigned).
func (i ID) IsZero() bool {
	return i.value == uuid.Nil
}
