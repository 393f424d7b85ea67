// Package residue defines the twenty-letter amino-acid alphabet and the
// immutable Sequence type folded by the rest of foldcore.
package residue

import (
	"github.com/turtacn/foldcore/pkg/errors"
)

// Residue is an amino-acid index in [0, Count) or the Stop sentinel.
type Residue int8

// Count is the number of standard residues.
const Count = 20

// Stop marks a residue produced by a stop codon. Sequences containing it
// cannot fold.
const Stop Residue = -1

// StopLetter is the one-letter rendering of Stop.
const StopLetter = '*'

// Letters lists the one-letter codes in index order. The order follows the
// Miyazawa–Jernigan contact energy tables.
const Letters = "CMFILVWYAGTSNQDEHRKP"

// Named residues, in index order.
const (
	Cys Residue = iota
	Met
	Phe
	Ile
	Leu
	Val
	Trp
	Tyr
	Ala
	Gly
	Thr
	Ser
	Asn
	Gln
	Asp
	Glu
	His
	Arg
	Lys
	Pro
)

var letterIndex = func() [256]Residue {
	var idx [256]Residue
	for i := range idx {
		idx[i] = Stop - 1
	}
	for i := 0; i < len(Letters); i++ {
		r := Residue(i)
		idx[Letters[i]] = r
		idx[Letters[i]+('a'-'A')] = r
	}
	idx[StopLetter] = Stop
	return idx
}()

// Valid reports whether r is a standard residue.
func (r Residue) Valid() bool {
	return r >= 0 && r < Count
}

// Letter returns the one-letter code of r, '*' for Stop and '?' otherwise.
func (r Residue) Letter() byte {
	switch {
	case r.Valid():
		return Letters[r]
	case r == Stop:
		return StopLetter
	default:
		return '?'
	}
}

func (r Residue) String() string {
	return string(r.Letter())
}

// FromLetter parses a one-letter code. Lower case is accepted and '*' maps to
// Stop. Any other byte returns ErrCodeUnknownResidue.
func FromLetter(c byte) (Residue, error) {
	r := letterIndex[c]
	if r < Stop {
		return Stop, errors.Newf(errors.ErrCodeUnknownResidue, "unknown residue letter %q", c)
	}
	return r, nil
}

// MustFromLetter is FromLetter for compile-time constants; it panics on error.
func MustFromLetter(c byte) Residue {
	r, err := FromLetter(c)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns the twenty standard residues in index order.
func All() []Residue {
	out := make([]Residue, Count)
	for i := range out {
		out[i] = Residue(i)
	}
	return out
}
