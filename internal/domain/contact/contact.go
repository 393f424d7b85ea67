// Package contact models residue–residue contacts and the canonical,
// immutable contact sets that identify a conformation.
package contact

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

// Contact is an unordered pair of residue positions stored with I < J.
type Contact struct {
	I int `json:"i"`
	J int `json:"j"`
}

// New returns the canonical contact between positions a and b.
func New(a, b int) Contact {
	if a > b {
		a, b = b, a
	}
	return Contact{I: a, J: b}
}

// Valid reports whether the contact joins two distinct, non-negative positions.
func (c Contact) Valid() bool {
	return c.I >= 0 && c.I < c.J
}

// Less orders contacts by I then J.
func (c Contact) Less(o Contact) bool {
	if c.I != o.I {
		return c.I < o.I
	}
	return c.J < o.J
}

func (c Contact) String() string {
	return fmt.Sprintf("(%d,%d)", c.I, c.J)
}

// Set is an immutable, sorted, duplicate-free list of contacts.
// The zero value is the empty set.
type Set struct {
	contacts []Contact
}

// NewSet canonicalises, sorts and deduplicates contacts. Self contacts are
// dropped.
func NewSet(contacts ...Contact) Set {
	out := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		c = New(c.I, c.J)
		if c.I == c.J {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Less(out[b]) })
	uniq := out[:0]
	for i, c := range out {
		if i > 0 && c == out[i-1] {
			continue
		}
		uniq = append(uniq, c)
	}
	return Set{contacts: uniq}
}

// fromSorted wraps contacts that are already canonical and sorted.
// The slice is owned by the returned set.
func fromSorted(contacts []Contact) Set {
	return Set{contacts: contacts}
}

// Len returns the number of contacts.
func (s Set) Len() int { return len(s.contacts) }

// At returns the i-th contact in sorted order.
func (s Set) At(i int) Contact { return s.contacts[i] }

// Contacts returns a copy of the contacts in sorted order.
func (s Set) Contacts() []Contact {
	out := make([]Contact, len(s.contacts))
	copy(out, s.contacts)
	return out
}

// Each calls fn for every contact in sorted order without copying.
func (s Set) Each(fn func(Contact)) {
	for _, c := range s.contacts {
		fn(c)
	}
}

// Has reports whether the set contains the contact between a and b.
func (s Set) Has(a, b int) bool {
	c := New(a, b)
	i := sort.Search(len(s.contacts), func(i int) bool { return !s.contacts[i].Less(c) })
	return i < len(s.contacts) && s.contacts[i] == c
}

// MaxIndex returns the largest residue position referenced, or -1 when empty.
func (s Set) MaxIndex() int {
	hi := -1
	for _, c := range s.contacts {
		if c.J > hi {
			hi = c.J
		}
	}
	return hi
}

// Equal reports whether two sets hold exactly the same contacts.
func (s Set) Equal(o Set) bool {
	if len(s.contacts) != len(o.contacts) {
		return false
	}
	for i, c := range s.contacts {
		if o.contacts[i] != c {
			return false
		}
	}
	return true
}

// Key returns a compact byte string that is equal for equal sets and is
// suitable as a map key.
func (s Set) Key() string {
	buf := make([]byte, 0, len(s.contacts)*4)
	for _, c := range s.contacts {
		buf = binary.AppendUvarint(buf, uint64(c.I))
		buf = binary.AppendUvarint(buf, uint64(c.J))
	}
	return string(buf)
}

func (s Set) String() string {
	parts := make([]string, len(s.contacts))
	for i, c := range s.contacts {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
