// Package conformation provides the finite ensembles of candidate structures
// that a sequence is folded against. Two backends exist: the exhaustive set
// of compact walks on a square lattice, and sampled decoy contact maps read
// from a MapSource.
//
// Libraries are built once and are read-only afterwards; every method is safe
// for concurrent use.
package conformation

import (
	"fmt"
	"math"

	"github.com/turtacn/foldcore/internal/domain/contact"
	"github.com/turtacn/foldcore/pkg/errors"
)

// StructureID identifies a structure within its library. IDs are dense in
// [0, Size()).
type StructureID int

// Unfolded is the StructureID reported for sequences that cannot fold.
const Unfolded StructureID = -1

// Kind distinguishes exhaustive from sampled libraries.
type Kind string

const (
	// KindLattice is the complete set of compact lattice structures.
	KindLattice Kind = "lattice"
	// KindDecoy is a sample of externally supplied contact maps.
	KindDecoy Kind = "decoy"
)

// Exhaustive reports whether the library enumerates every conformation.
func (k Kind) Exhaustive() bool { return k == KindLattice }

// Library is the read-only view of a conformation ensemble used by folding.
type Library interface {
	// Kind reports the backend.
	Kind() Kind
	// Size is the number of structures.
	Size() int
	// ProteinLength is the residue count every structure refers to.
	ProteinLength() int
	// Structure returns the contact set of id. It panics when id is out of
	// range; use Lookup for untrusted input.
	Structure(id StructureID) contact.Set
	// LogUnsampled is the natural log of the number of conformations that
	// the library represents but does not enumerate. Exhaustive libraries
	// return -Inf.
	LogUnsampled() float64
}

// Lookup returns the contact set of id, or ErrCodeStructureNotFound.
func Lookup(lib Library, id StructureID) (contact.Set, error) {
	if id < 0 || int(id) >= lib.Size() {
		return contact.Set{}, errors.Newf(errors.ErrCodeStructureNotFound, "structure %d not in library of %d", id, lib.Size())
	}
	return lib.Structure(id), nil
}

// Describe renders a one-line summary of lib for logs and CLI output.
func Describe(lib Library) string {
	if lib.Kind().Exhaustive() {
		return fmt.Sprintf("%s library: %d structures, length %d", lib.Kind(), lib.Size(), lib.ProteinLength())
	}
	return fmt.Sprintf("%s library: %d structures, length %d, log unsampled %.3f",
		lib.Kind(), lib.Size(), lib.ProteinLength(), lib.LogUnsampled())
}

// set is the shared storage for both backends.
type set struct {
	kind         Kind
	length       int
	structures   []contact.Set
	logUnsampled float64
}

func newSet(kind Kind, length int, structures []contact.Set, logUnsampled float64) (set, error) {
	if len(structures) == 0 {
		return set{}, errors.New(errors.ErrCodeLibraryEmpty, "conformation library has no structures")
	}
	for i, s := range structures {
		if s.MaxIndex() >= length {
			return set{}, errors.Newf(errors.ErrCodeDecoyLengthMismatch,
				"structure %d references residue %d, protein length is %d", i, s.MaxIndex(), length)
		}
	}
	if kind.Exhaustive() {
		logUnsampled = math.Inf(-1)
	}
	return set{kind: kind, length: length, structures: structures, logUnsampled: logUnsampled}, nil
}

func (s *set) Kind() Kind                           { return s.kind }
func (s *set) Size() int                            { return len(s.structures) }
func (s *set) ProteinLength() int                   { return s.length }
func (s *set) Structure(id StructureID) contact.Set { return s.structures[id] }
func (s *set) LogUnsampled() float64                { return s.logUnsampled }
