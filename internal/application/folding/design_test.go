package folding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foldcore/internal/domain/conformation"
	"github.com/turtacn/foldcore/internal/domain/residue"
	"github.com/turtacn/foldcore/internal/testutil"
	"github.com/turtacn/foldcore/pkg/errors"
)

func TestNeutrality_MatchesExhaustiveCount(t *testing.T) {
	folder := testutil.LatticeFolder(t, 3)
	seq := residue.MustParse(testutil.Seq3x3)
	const cutoff = -20.0

	res, err := Neutrality(context.Background(), folder, seq, cutoff)
	require.NoError(t, err)

	want := 0
	for pos := 0; pos < seq.Len(); pos++ {
		for _, r := range residue.All() {
			if r == seq.At(pos) {
				continue
			}
			info, err := folder.Fold(seq.WithResidue(pos, r))
			require.NoError(t, err)
			if info.Structure == testutil.Seq3x3Best && info.FreeEnergy <= cutoff {
				want++
			}
		}
	}

	assert.Equal(t, testutil.Seq3x3, res.Sequence)
	assert.Equal(t, testutil.Seq3x3Best, res.Structure)
	assert.Equal(t, 19*9, res.Mutants)
	assert.Equal(t, want, res.Neutral)
	assert.InDelta(t, float64(want)/171, res.Neutrality, delta)
	assert.Equal(t, int64(172), res.Folds)
}

func TestNeutrality_Bounds(t *testing.T) {
	folder := testutil.LatticeFolder(t, 3)
	seq := residue.MustParse(testutil.Seq3x3)

	none, err := Neutrality(context.Background(), folder, seq, -1000)
	require.NoError(t, err)
	assert.Zero(t, none.Neutral)
	assert.Zero(t, none.Neutrality)

	all, err := Neutrality(context.Background(), folder, seq, math.Inf(1))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, all.Neutral, none.Neutral)
	assert.LessOrEqual(t, all.Neutrality, 1.0)
}

func TestNeutrality_UnfoldedParent(t *testing.T) {
	folder := testutil.LatticeFolder(t, 3)

	res, err := Neutrality(context.Background(), folder, residue.MustParse("LLKAEEVF*"), 0)
	require.NoError(t, err)
	assert.Equal(t, int(conformation.Unfolded), res.Structure)
	assert.Zero(t, res.Neutrality)
	assert.Zero(t, res.Folds)
	assert.Equal(t, int64(0), folder.NumFolded())
}

func TestNeutrality_Errors(t *testing.T) {
	folder := testutil.LatticeFolder(t, 3)

	_, err := Neutrality(context.Background(), folder, residue.MustParse("LLK"), 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSequenceLength))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Neutrality(ctx, folder, residue.MustParse(testutil.Seq3x3), 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTimeout))
}

func TestFindSequence_AnyStructure(t *testing.T) {
	folder := testutil.LatticeFolder(t, 3)

	res, err := FindSequence(context.Background(), folder, newRand(7), -10, conformation.Unfolded, 5000)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.FreeEnergy, -10.0)
	assert.GreaterOrEqual(t, res.Attempts, 1)
	assert.Equal(t, int64(res.Attempts), folder.NumFolded())

	info, err := folder.Fold(residue.MustParse(res.Sequence))
	require.NoError(t, err)
	assert.Equal(t, res.Structure, int(info.Structure))
	assert.InDelta(t, res.FreeEnergy, info.FreeEnergy, delta)
}

func TestFindSequence_Target(t *testing.T) {
	folder := testutil.LatticeFolder(t, 3)

	res, err := FindSequence(context.Background(), folder, newRand(11), -5, 2, 20000)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Structure)
	assert.LessOrEqual(t, res.FreeEnergy, -5.0)
}

func TestFindSequence_Deterministic(t *testing.T) {
	a, err := FindSequence(context.Background(), testutil.LatticeFolder(t, 3), newRand(42), -10, conformation.Unfolded, 5000)
	require.NoError(t, err)
	b, err := FindSequence(context.Background(), testutil.LatticeFolder(t, 3), newRand(42), -10, conformation.Unfolded, 5000)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFindSequence_Errors(t *testing.T) {
	folder := testutil.LatticeFolder(t, 3)
	ctx := context.Background()

	_, err := FindSequence(ctx, folder, newRand(1), -1000, conformation.Unfolded, 50)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDesignExhausted))
	assert.Equal(t, int64(50), folder.NumFolded())

	_, err = FindSequence(ctx, folder, newRand(1), 0, 9, 10)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStructureNotFound))

	_, err = FindSequence(ctx, folder, newRand(1), 0, conformation.Unfolded, 0)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = FindSequence(cancelled, folder, newRand(1), 0, conformation.Unfolded, 10)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTimeout))
}

func TestMutate_ChangesExactlyOnePosition(t *testing.T) {
	rng := newRand(3)
	seq := residue.MustParse(testutil.Seq4x4)
	for i := 0; i < 200; i++ {
		mut := mutate(rng, seq)
		diff := 0
		for p := 0; p < seq.Len(); p++ {
			if mut.At(p) != seq.At(p) {
				diff++
				assert.True(t, mut.At(p).Valid())
			}
		}
		assert.Equal(t, 1, diff)
	}
}

func TestService_DesignAndNeutrality(t *testing.T) {
	m, c := newTestMetrics(t)
	svc := newTestService(t, 3, WithMetrics(m), WithDesignMaxAttempts(5000))
	ctx := context.Background()

	res, err := svc.Design(ctx, &DesignInput{Cutoff: -10, Target: -1, Seed: 5})
	require.NoError(t, err)
	assert.LessOrEqual(t, res.FreeEnergy, -10.0)

	_, err = svc.Design(ctx, &DesignInput{Cutoff: -1000, Target: -1, Seed: 5, MaxAttempts: 20})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDesignExhausted))

	_, err = svc.Design(ctx, nil)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	body := scrape(t, c)
	assert.Contains(t, body, `test_design_attempts_count{result="found"} 1`)
	assert.Contains(t, body, `test_design_attempts_count{result="exhausted"} 1`)

	n, err := svc.Neutrality(ctx, testutil.Seq3x3, -20)
	require.NoError(t, err)
	assert.Equal(t, 171, n.Mutants)

	_, err = svc.Neutrality(ctx, "LLKAEEVFB", -20)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownResidue))
}
