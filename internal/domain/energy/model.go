// Package energy implements the pairwise contact energy model: the energy of
// a sequence in a structure is the sum of matrix entries over its contacts.
package energy

import (
	"math"

	"github.com/turtacn/foldcore/internal/domain/contact"
	"github.com/turtacn/foldcore/internal/domain/residue"
	"github.com/turtacn/foldcore/pkg/errors"
)

// Matrix is a residue-by-residue table of contact energies.
type Matrix [residue.Count][residue.Count]float64

// Model is an immutable, symmetric contact energy model. It is safe for
// concurrent use.
type Model struct {
	m Matrix
}

// NewModel validates m and returns a Model holding a copy of it. The matrix
// must be symmetric and finite.
func NewModel(m Matrix) (*Model, error) {
	for i := 0; i < residue.Count; i++ {
		for j := 0; j < residue.Count; j++ {
			v := m[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.Newf(errors.ErrCodeInvalidMatrix, "non-finite energy at (%s,%s)",
					residue.Residue(i), residue.Residue(j))
			}
			if v != m[j][i] {
				return nil, errors.Newf(errors.ErrCodeInvalidMatrix, "matrix not symmetric at (%s,%s): %g != %g",
					residue.Residue(i), residue.Residue(j), v, m[j][i])
			}
		}
	}
	return &Model{m: m}, nil
}

// FromUpperTriangle expands the 210 values of a row-major upper triangle
// (row i holding columns i..19) into a full model.
func FromUpperTriangle(values []float64) (*Model, error) {
	const want = residue.Count * (residue.Count + 1) / 2
	if len(values) != want {
		return nil, errors.Newf(errors.ErrCodeInvalidMatrix, "upper triangle needs %d values, got %d", want, len(values))
	}
	var m Matrix
	k := 0
	for i := 0; i < residue.Count; i++ {
		for j := i; j < residue.Count; j++ {
			m[i][j] = values[k]
			m[j][i] = values[k]
			k++
		}
	}
	return NewModel(m)
}

var defaultModel = func() *Model {
	m, err := FromUpperTriangle(mjUpperTriangle[:])
	if err != nil {
		panic(err)
	}
	return m
}()

// MiyazawaJernigan returns the shared default model built from the
// Miyazawa–Jernigan contact energies.
func MiyazawaJernigan() *Model {
	return defaultModel
}

// Pair returns the contact energy between residues a and b.
func (m *Model) Pair(a, b residue.Residue) float64 {
	return m.m[a][b]
}

// Matrix returns a copy of the underlying table.
func (m *Model) Matrix() Matrix {
	return m.m
}

// Energy sums the pair energies of seq over every contact in set. seq must be
// valid and longer than set.MaxIndex().
func (m *Model) Energy(seq residue.Sequence, set contact.Set) float64 {
	var e float64
	for i := 0; i < set.Len(); i++ {
		c := set.At(i)
		e += m.m[seq.At(c.I)][seq.At(c.J)]
	}
	return e
}
