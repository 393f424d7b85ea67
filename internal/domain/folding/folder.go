// Package folding is the facade that folds sequences against a conformation
// library: it computes the energy of the sequence in every structure, picks
// the ground state and reports its free energy.
package folding

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/foldcore/internal/domain/conformation"
	"github.com/turtacn/foldcore/internal/domain/energy"
	"github.com/turtacn/foldcore/internal/domain/residue"
	"github.com/turtacn/foldcore/internal/domain/thermo"
	"github.com/turtacn/foldcore/pkg/errors"
)

// FoldInfo is the result of folding one sequence.
type FoldInfo struct {
	// Structure is the ground-state structure, or conformation.Unfolded.
	Structure conformation.StructureID
	// FreeEnergy is the folding free energy; NaN when unfolded.
	FreeEnergy float64
}

// Folded reports whether the sequence reached a structure.
func (f FoldInfo) Folded() bool {
	return f.Structure != conformation.Unfolded
}

// UnfoldedInfo is the result for sequences that cannot fold.
func UnfoldedInfo() FoldInfo {
	return FoldInfo{Structure: conformation.Unfolded, FreeEnergy: math.NaN()}
}

// Verifier checks a sequence against reference data before folding.
type Verifier interface {
	Verify(seq residue.Sequence) error
}

// Option configures a Folder.
type Option func(*Folder)

// WithWeighting selects how the unsampled conformations of a sampled library
// enter the partition function. The default is thermo.UnsampledZeroEnergy.
func WithWeighting(w thermo.UnsampledWeighting) Option {
	return func(f *Folder) { f.weighting = w }
}

// WithLetterVerification rejects sequences that v does not accept.
// Decoy libraries implement Verifier.
func WithLetterVerification(v Verifier) Option {
	return func(f *Folder) { f.verifier = v }
}

// WithWorkers bounds the goroutines FoldAll uses. Zero or negative means
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(f *Folder) { f.workers = n }
}

// Folder folds sequences against an immutable library and energy model. It
// is safe for concurrent use.
type Folder struct {
	lib       conformation.Library
	model     *energy.Model
	weighting thermo.UnsampledWeighting
	verifier  Verifier
	workers   int

	folded atomic.Int64
	ready  bool
}

// New validates the library and returns a ready Folder. A nil model selects
// the Miyazawa–Jernigan energies.
func New(lib conformation.Library, model *energy.Model, opts ...Option) (*Folder, error) {
	if lib == nil || lib.Size() == 0 {
		return nil, errors.New(errors.ErrCodeLibraryEmpty, "folder needs a non-empty conformation library")
	}
	for id := 0; id < lib.Size(); id++ {
		if hi := lib.Structure(conformation.StructureID(id)).MaxIndex(); hi >= lib.ProteinLength() {
			return nil, errors.Newf(errors.ErrCodeDecoyLengthMismatch,
				"structure %d references residue %d, protein length is %d", id, hi, lib.ProteinLength())
		}
	}
	if model == nil {
		model = energy.MiyazawaJernigan()
	}
	f := &Folder{lib: lib, model: model}
	for _, opt := range opts {
		opt(f)
	}
	if f.workers <= 0 {
		f.workers = runtime.GOMAXPROCS(0)
	}
	f.ready = true
	return f, nil
}

// Library returns the library the folder folds against.
func (f *Folder) Library() conformation.Library { return f.lib }

// Model returns the energy model.
func (f *Folder) Model() *energy.Model { return f.model }

// Weighting returns the unsampled weighting used for sampled libraries.
func (f *Folder) Weighting() thermo.UnsampledWeighting { return f.weighting }

// VerifiesLetters reports whether sequences are checked against a Verifier
// before folding.
func (f *Folder) VerifiesLetters() bool { return f.verifier != nil }

// Ready reports whether the folder was constructed successfully.
func (f *Folder) Ready() bool { return f != nil && f.ready }

// NumFolded returns the number of sequences folded so far. Unfolded results
// and failed calls are not counted.
func (f *Folder) NumFolded() int64 { return f.folded.Load() }

// Energies returns the energy of seq in every structure of the library.
func (f *Folder) Energies(seq residue.Sequence) ([]float64, error) {
	if err := f.check(seq); err != nil {
		return nil, err
	}
	if !seq.Valid() {
		return nil, errors.New(errors.CodeInvalidParam, "sequence contains a stop residue")
	}
	return f.energies(seq), nil
}

func (f *Folder) check(seq residue.Sequence) error {
	if !f.Ready() {
		return errors.New(errors.ErrCodeFolderNotReady, "folder is not ready")
	}
	if seq.Len() != f.lib.ProteinLength() {
		return errors.Newf(errors.ErrCodeSequenceLength, "sequence has %d residues, library expects %d",
			seq.Len(), f.lib.ProteinLength())
	}
	return nil
}

func (f *Folder) energies(seq residue.Sequence) []float64 {
	out := make([]float64, f.lib.Size())
	for id := range out {
		out[id] = f.model.Energy(seq, f.lib.Structure(conformation.StructureID(id)))
	}
	return out
}

// Landscape is the full energy spectrum of one sequence over the library.
type Landscape struct {
	Energies   []float64
	Evaluation thermo.Evaluation
}

// FreeEnergyOf returns the free energy of the sequence held in structure id,
// E_id − ln Z. For the ground state it equals Evaluation.FreeEnergy.
func (l Landscape) FreeEnergyOf(id conformation.StructureID) float64 {
	return l.Energies[id] - l.Evaluation.LogZ
}

// Landscape evaluates seq against every structure. It counts as a fold.
func (f *Folder) Landscape(seq residue.Sequence) (Landscape, error) {
	if err := f.check(seq); err != nil {
		return Landscape{}, err
	}
	if !seq.Valid() {
		return Landscape{}, errors.New(errors.CodeInvalidParam, "sequence contains a stop residue")
	}
	return f.landscape(seq)
}

func (f *Folder) landscape(seq residue.Sequence) (Landscape, error) {
	if f.verifier != nil {
		if err := f.verifier.Verify(seq); err != nil {
			return Landscape{}, err
		}
	}

	var opts []thermo.Option
	if !f.lib.Kind().Exhaustive() {
		opts = append(opts, thermo.WithUnsampled(f.lib.LogUnsampled(), f.weighting))
	}
	energies := f.energies(seq)
	ev, err := thermo.Evaluate(energies, opts...)
	if err != nil {
		return Landscape{}, err
	}
	f.folded.Add(1)
	return Landscape{Energies: energies, Evaluation: ev}, nil
}

// Fold returns the ground-state structure of seq and its free energy.
// Sequences containing a stop residue yield UnfoldedInfo without error.
func (f *Folder) Fold(seq residue.Sequence) (FoldInfo, error) {
	if err := f.check(seq); err != nil {
		return FoldInfo{}, err
	}
	if !seq.Valid() {
		return UnfoldedInfo(), nil
	}
	l, err := f.landscape(seq)
	if err != nil {
		return FoldInfo{}, err
	}
	return FoldInfo{Structure: conformation.StructureID(l.Evaluation.Best), FreeEnergy: l.Evaluation.FreeEnergy}, nil
}

// FoldAll folds seqs concurrently and returns results in input order. The
// first error cancels the remaining work.
func (f *Folder) FoldAll(ctx context.Context, seqs []residue.Sequence) ([]FoldInfo, error) {
	out := make([]FoldInfo, len(seqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i := range seqs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			info, err := f.Fold(seqs[i])
			if err != nil {
				return errors.Wrap(err, errors.CodeUnknown, "fold batch").WithDetailf("sequence %d", i)
			}
			out[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
