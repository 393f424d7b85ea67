package conformation

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foldcore/internal/domain/contact"
	"github.com/turtacn/foldcore/internal/domain/residue"
	"github.com/turtacn/foldcore/pkg/errors"
)

func contacts(pairs ...[2]int) contact.Set {
	cs := make([]contact.Contact, len(pairs))
	for i, p := range pairs {
		cs[i] = contact.New(p[0], p[1])
	}
	return contact.NewSet(cs...)
}

func TestEnumerate_Counts(t *testing.T) {
	cases := []struct {
		side     int
		want     int
		contacts int
	}{
		{1, 1, 0},
		{2, 1, 1},
		{3, 5, 4},
		{4, 69, 9},
		{5, 1081, 16},
	}
	for _, tc := range cases {
		confs, err := Enumerate(context.Background(), tc.side)
		require.NoError(t, err)
		assert.Len(t, confs, tc.want, "side %d", tc.side)
		for _, c := range confs {
			assert.Equal(t, tc.contacts, c.Contacts.Len(), "side %d", tc.side)
			assert.Len(t, c.Path, tc.side*tc.side)
		}
	}
}

func TestEnumerate_ThreeByThreeOrder(t *testing.T) {
	confs, err := Enumerate(context.Background(), 3)
	require.NoError(t, err)

	want := []contact.Set{
		contacts([2]int{0, 7}, [2]int{1, 8}, [2]int{3, 8}, [2]int{5, 8}),
		contacts([2]int{0, 7}, [2]int{1, 6}, [2]int{3, 6}, [2]int{5, 8}),
		contacts([2]int{0, 5}, [2]int{1, 4}, [2]int{3, 8}, [2]int{4, 7}),
		contacts([2]int{0, 3}, [2]int{1, 8}, [2]int{2, 5}, [2]int{2, 7}),
		contacts([2]int{0, 3}, [2]int{0, 5}, [2]int{0, 7}, [2]int{1, 8}),
	}
	require.Len(t, confs, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(confs[i].Contacts), "structure %d: got %s", i, confs[i].Contacts)
	}
}

func TestEnumerate_FourByFourEnds(t *testing.T) {
	confs, err := Enumerate(context.Background(), 4)
	require.NoError(t, err)

	first := contacts([2]int{0, 15}, [2]int{1, 14}, [2]int{2, 13}, [2]int{4, 13}, [2]int{5, 12},
		[2]int{7, 12}, [2]int{8, 11}, [2]int{10, 15}, [2]int{11, 14})
	last := contacts([2]int{0, 3}, [2]int{0, 5}, [2]int{0, 7}, [2]int{1, 8}, [2]int{4, 15},
		[2]int{5, 14}, [2]int{6, 11}, [2]int{6, 13}, [2]int{7, 10})

	assert.True(t, first.Equal(confs[0].Contacts), "first: %s", confs[0].Contacts)
	assert.True(t, last.Equal(confs[len(confs)-1].Contacts), "last: %s", confs[len(confs)-1].Contacts)
}

func TestEnumerate_FiveByFiveFirst(t *testing.T) {
	confs, err := Enumerate(context.Background(), 5)
	require.NoError(t, err)

	first := contacts([2]int{0, 21}, [2]int{1, 22}, [2]int{2, 23}, [2]int{3, 24}, [2]int{5, 24},
		[2]int{6, 17}, [2]int{7, 16}, [2]int{9, 16}, [2]int{10, 15}, [2]int{11, 14},
		[2]int{13, 20}, [2]int{14, 19}, [2]int{15, 18}, [2]int{17, 24}, [2]int{18, 23}, [2]int{19, 22})
	assert.True(t, first.Equal(confs[0].Contacts))
}

func TestEnumerate_DistinctAndNonConsecutive(t *testing.T) {
	confs, err := Enumerate(context.Background(), 4)
	require.NoError(t, err)

	keys := make(map[string]int)
	for i, c := range confs {
		_, dup := keys[c.Contacts.Key()]
		assert.False(t, dup, "structure %d duplicates an earlier contact set", i)
		keys[c.Contacts.Key()] = i
		c.Contacts.Each(func(ct contact.Contact) {
			assert.GreaterOrEqual(t, ct.J-ct.I, 2)
		})
	}
}

func TestEnumerate_PathsAreSelfAvoidingWalks(t *testing.T) {
	confs, err := Enumerate(context.Background(), 4)
	require.NoError(t, err)

	for _, c := range confs {
		seen := make(map[Point]bool)
		for i, p := range c.Path {
			assert.False(t, seen[p])
			seen[p] = true
			if i > 0 {
				assert.True(t, adjacent(c.Path[i-1], p))
			}
		}
	}
}

func TestEnumerate_SideOutOfRange(t *testing.T) {
	for _, side := range []int{0, -1, MaxLatticeSide + 1} {
		_, err := Enumerate(context.Background(), side)
		assert.True(t, errors.IsCode(err, errors.ErrCodeLatticeTooLarge), "side %d", side)
	}
}

func TestEnumerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Enumerate(ctx, 5)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEnumerationAborted))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnumerate_DeadlineExceeded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	time.Sleep(2 * time.Millisecond)

	_, err := Enumerate(ctx, MaxLatticeSide)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewLatticeLibrary(t *testing.T) {
	lib, err := NewLatticeLibrary(context.Background(), 4)
	require.NoError(t, err)

	assert.Equal(t, KindLattice, lib.Kind())
	assert.Equal(t, 69, lib.Size())
	assert.Equal(t, 16, lib.ProteinLength())
	assert.Equal(t, 4, lib.Side())
	assert.True(t, math.IsInf(lib.LogUnsampled(), -1))
	assert.Equal(t, 9, lib.Structure(0).Len())
	assert.Len(t, lib.Path(68), 16)
	assert.Equal(t, "lattice library: 69 structures, length 16", Describe(lib))

	_, err = Lookup(lib, 69)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStructureNotFound))
	_, err = Lookup(lib, Unfolded)
	assert.Error(t, err)
}

func TestRender_Positions(t *testing.T) {
	lib, err := NewLatticeLibrary(context.Background(), 3)
	require.NoError(t, err)

	out, err := lib.Render(0, residue.Sequence{})
	require.NoError(t, err)
	assert.Equal(t, " 0- 1- 2\n       |\n 7- 8  3\n |     |\n 6- 5- 4\n", out)
}

func TestRender_Letters(t *testing.T) {
	lib, err := NewLatticeLibrary(context.Background(), 2)
	require.NoError(t, err)

	out, err := lib.Render(0, residue.MustParse("LKAE"))
	require.NoError(t, err)
	assert.Equal(t, " L- K\n    |\n E- A\n", out)

	_, err = lib.Render(0, residue.MustParse("LKA"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeSequenceLength))
	_, err = lib.Render(1, residue.Sequence{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeStructureNotFound))
}

func BenchmarkEnumerate5(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := Enumerate(context.Background(), 5); err != nil {
			b.Fatal(err)
		}
	}
}
