package residue

import (
	"strings"

	"github.com/turtacn/foldcore/pkg/errors"
)

// Sequence is an immutable, fixed-length list of residues.
// The zero value is the empty sequence.
type Sequence struct {
	residues []Residue
}

// NewSequence copies residues into a new Sequence. Values outside the alphabet
// other than Stop are rejected.
func NewSequence(residues []Residue) (Sequence, error) {
	out := make([]Residue, len(residues))
	for i, r := range residues {
		if !r.Valid() && r != Stop {
			return Sequence{}, errors.Newf(errors.ErrCodeUnknownResidue, "residue %d at position %d out of range", r, i)
		}
		out[i] = r
	}
	return Sequence{residues: out}, nil
}

// Parse reads a one-letter sequence such as "CSVMQGGK". Surrounding
// whitespace is trimmed; '*' marks a stop residue.
func Parse(s string) (Sequence, error) {
	s = strings.TrimSpace(s)
	out := make([]Residue, len(s))
	for i := 0; i < len(s); i++ {
		r, err := FromLetter(s[i])
		if err != nil {
			return Sequence{}, errors.Wrap(err, errors.ErrCodeUnknownResidue, "parse sequence").
				WithDetailf("position %d", i)
		}
		out[i] = r
	}
	return Sequence{residues: out}, nil
}

// MustParse is Parse for literals; it panics on error.
func MustParse(s string) Sequence {
	seq, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return seq
}

// Len returns the number of residues.
func (s Sequence) Len() int { return len(s.residues) }

// At returns the residue at position i.
func (s Sequence) At(i int) Residue { return s.residues[i] }

// Residues returns a copy of the underlying residues.
func (s Sequence) Residues() []Residue {
	out := make([]Residue, len(s.residues))
	copy(out, s.residues)
	return out
}

// Valid reports whether the sequence is free of stop residues. The empty
// sequence is valid.
func (s Sequence) Valid() bool {
	for _, r := range s.residues {
		if r == Stop {
			return false
		}
	}
	return true
}

// WithResidue returns a copy of s with position i replaced by r.
func (s Sequence) WithResidue(i int, r Residue) Sequence {
	out := s.Residues()
	out[i] = r
	return Sequence{residues: out}
}

// Equal reports whether two sequences hold the same residues.
func (s Sequence) Equal(o Sequence) bool {
	if len(s.residues) != len(o.residues) {
		return false
	}
	for i, r := range s.residues {
		if o.residues[i] != r {
			return false
		}
	}
	return true
}

func (s Sequence) String() string {
	b := make([]byte, len(s.residues))
	for i, r := range s.residues {
		b[i] = r.Letter()
	}
	return string(b)
}
