package folding

import (
	"context"
	"math/rand"

	"github.com/turtacn/foldcore/internal/domain/conformation"
	domainFold "github.com/turtacn/foldcore/internal/domain/folding"
	"github.com/turtacn/foldcore/internal/domain/residue"
	"github.com/turtacn/foldcore/pkg/errors"
	"github.com/turtacn/foldcore/pkg/types/fold"
)

// stallFactor times the protein length is the number of rejected mutations
// after which the design walk restarts from a fresh random sequence.
const stallFactor = 10

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Neutrality folds every single-point mutant of seq and reports the fraction
// that keeps the structure of seq with a free energy at or below cutoff.
// A sequence that does not fold has neutrality zero.
func Neutrality(ctx context.Context, folder *domainFold.Folder, seq residue.Sequence, cutoff float64) (*fold.NeutralityResult, error) {
	parent, err := folder.Fold(seq)
	if err != nil {
		return nil, err
	}
	res := &fold.NeutralityResult{
		Sequence:  seq.String(),
		Structure: int(parent.Structure),
		Cutoff:    cutoff,
		Mutants:   (residue.Count - 1) * seq.Len(),
	}
	if !parent.Folded() {
		return res, nil
	}
	res.Folds = 1

	for pos := 0; pos < seq.Len(); pos++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeTimeout, "neutrality cancelled")
		}
		orig := seq.At(pos)
		for _, r := range residue.All() {
			if r == orig {
				continue
			}
			info, err := folder.Fold(seq.WithResidue(pos, r))
			if err != nil {
				return nil, err
			}
			res.Folds++
			if info.Structure == parent.Structure && info.FreeEnergy <= cutoff {
				res.Neutral++
			}
		}
	}
	if res.Mutants > 0 {
		res.Neutrality = float64(res.Neutral) / float64(res.Mutants)
	}
	return res, nil
}

// FindSequence searches for a sequence that folds with a free energy at or
// below cutoff, into target when target is not conformation.Unfolded.
//
// The search is a greedy walk: a random point mutation of the current
// sequence replaces it when it lowers the score (the free energy, or the
// free energy of the sequence held in target). After stallFactor·L rejected
// mutations the walk restarts from a new random sequence. Every evaluated
// sequence counts against maxAttempts.
func FindSequence(ctx context.Context, folder *domainFold.Folder, rng *rand.Rand, cutoff float64,
	target conformation.StructureID, maxAttempts int) (*fold.DesignResult, error) {
	if maxAttempts <= 0 {
		return nil, errors.InvalidParam("design needs a positive attempt budget")
	}
	lib := folder.Library()
	if target != conformation.Unfolded {
		if _, err := conformation.Lookup(lib, target); err != nil {
			return nil, err
		}
	}
	length := lib.ProteinLength()
	stall := stallFactor * length

	score := func(l domainFold.Landscape) float64 {
		if target != conformation.Unfolded {
			return l.FreeEnergyOf(target)
		}
		return l.Evaluation.FreeEnergy
	}

	var (
		current   residue.Sequence
		bestScore float64
		rejected  int
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeTimeout, "sequence design cancelled")
		}

		fresh := current.Len() == 0 || rejected >= stall
		var cand residue.Sequence
		if fresh {
			cand = randomSequence(rng, length)
		} else {
			cand = mutate(rng, current)
		}

		l, err := folder.Landscape(cand)
		if err != nil {
			return nil, err
		}
		ev := l.Evaluation
		if ev.FreeEnergy <= cutoff && (target == conformation.Unfolded || ev.Best == int(target)) {
			return &fold.DesignResult{
				Sequence:   cand.String(),
				Structure:  ev.Best,
				FreeEnergy: ev.FreeEnergy,
				Attempts:   attempt,
			}, nil
		}

		if sc := score(l); fresh || sc < bestScore {
			current, bestScore, rejected = cand, sc, 0
		} else {
			rejected++
		}
	}
	return nil, errors.Newf(errors.ErrCodeDesignExhausted,
		"no sequence with free energy ≤ %g found in %d attempts", cutoff, maxAttempts)
}

func randomSequence(rng *rand.Rand, n int) residue.Sequence {
	out := make([]residue.Residue, n)
	for i := range out {
		out[i] = residue.Residue(rng.Intn(residue.Count))
	}
	seq, _ := residue.NewSequence(out)
	return seq
}

// mutate replaces one random position with a different random residue.
func mutate(rng *rand.Rand, seq residue.Sequence) residue.Sequence {
	pos := rng.Intn(seq.Len())
	old := int(seq.At(pos))
	r := residue.Residue((old + 1 + rng.Intn(residue.Count-1)) % residue.Count)
	return seq.WithResidue(pos, r)
}
