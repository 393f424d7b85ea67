package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/turtacn/foldcore/internal/domain/conformation"
	"github.com/turtacn/foldcore/internal/domain/folding"
)

// Known lattice fixtures.
const (
	Seq3x3     = "LLKAEEVFL"
	Seq3x3Best = 0
	Seq3x3DG   = -23.92744725312165

	Seq4x4     = "CMFILVWYAGTSNQDE"
	Seq4x4Best = 31
	Seq4x4DG   = -39.58180913012876
)

// DecoySequence matches the residue letters of every map in DecoyMaps.
const DecoySequence = "MKLVFAEDCW"

// DecoyMaps is a three-map decoy set for ten-residue proteins, keyed by
// file name. The index lists the maps in order a, b, c.
var DecoyMaps = map[string]string{
	"maps.txt": "a.cmap\nb.cmap\n\nc.cmap\n",
	"a.cmap":   "10\n0 M 5 A\n1 K 8 C\n2 L 7 D\n",
	"b.cmap":   "10\n0 M 9 W\n2 L 4 F\n3 V 6 E\n",
	"c.cmap":   "1 K 4 F\n3 V 9 W\n",
}

var (
	latticeMu sync.Mutex
	lattices  = map[int]*conformation.LatticeLibrary{}
)

// Lattice returns the side×side lattice library, enumerated once per test
// binary.
func Lattice(t testing.TB, side int) *conformation.LatticeLibrary {
	t.Helper()
	latticeMu.Lock()
	defer latticeMu.Unlock()
	if lib, ok := lattices[side]; ok {
		return lib
	}
	lib, err := conformation.NewLatticeLibrary(context.Background(), side)
	require.NoError(t, err)
	lattices[side] = lib
	return lib
}

// LatticeFolder returns a fresh Folder over the side×side lattice with the
// Miyazawa–Jernigan energies.
func LatticeFolder(t testing.TB, side int, opts ...folding.Option) *folding.Folder {
	t.Helper()
	f, err := folding.New(Lattice(t, side), nil, opts...)
	require.NoError(t, err)
	return f
}

// WriteDecoyDir writes DecoyMaps into a temporary directory and returns it.
func WriteDecoyDir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range DecoyMaps {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}
