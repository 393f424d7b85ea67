package contact

// Builder accumulates contacts that are produced in sorted order, such as
// the all-pairs scan over a lattice walk. Out-of-order input falls back to
// a full canonicalisation in Set.
type Builder struct {
	contacts []Contact
	sorted   bool
}

// NewBuilder returns a Builder with room for n contacts.
func NewBuilder(n int) *Builder {
	return &Builder{contacts: make([]Contact, 0, n), sorted: true}
}

// Add appends the contact between i and j. Self contacts are ignored.
func (b *Builder) Add(i, j int) {
	if i == j {
		return
	}
	c := New(i, j)
	if n := len(b.contacts); n > 0 && !b.contacts[n-1].Less(c) {
		b.sorted = false
	}
	b.contacts = append(b.contacts, c)
}

// Len returns the number of contacts added so far.
func (b *Builder) Len() int { return len(b.contacts) }

// Reset empties the builder for reuse.
func (b *Builder) Reset() {
	b.contacts = b.contacts[:0]
	b.sorted = true
}

// Set returns the accumulated contacts as an immutable Set. The builder may
// be reused afterwards.
func (b *Builder) Set() Set {
	if !b.sorted {
		return NewSet(b.contacts...)
	}
	out := make([]Contact, len(b.contacts))
	copy(out, b.contacts)
	return fromSorted(out)
}

// Key returns the key the current contents would have as a Set, without
// building one.
func (b *Builder) Key() string {
	if !b.sorted {
		return NewSet(b.contacts...).Key()
	}
	return Set{contacts: b.contacts}.Key()
}
