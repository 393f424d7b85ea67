// Package thermo turns the energies of a sequence across a conformation
// ensemble into its ground-state structure and folding free energy.
//
// With E* the lowest energy, the partition function is taken relative to
// the ground state:
//
//	Z  = Σᵢ exp(E* − Eᵢ) + U
//	ΔG = E* − ln Z
//
// where U is the weight of conformations a sampled library does not
// enumerate (zero for exhaustive libraries). Every exponent is ≤ 0 apart from
// the unsampled term, so Z ≥ 1 and no term overflows.
package thermo

import (
	"fmt"
	"math"

	"github.com/turtacn/foldcore/pkg/errors"
)

// UnsampledWeighting selects how the unenumerated conformations enter Z.
type UnsampledWeighting int

const (
	// UnsampledZeroEnergy weights exp(log_nconf) conformations of energy zero
	// relative to the ground state: U = exp(E* + log_nconf).
	UnsampledZeroEnergy UnsampledWeighting = iota
	// UnsampledFlat counts the unsampled conformations at the weight of the
	// ground state itself: U = exp(log_nconf).
	UnsampledFlat
)

func (w UnsampledWeighting) String() string {
	switch w {
	case UnsampledZeroEnergy:
		return "zero-energy"
	case UnsampledFlat:
		return "flat"
	default:
		return fmt.Sprintf("UnsampledWeighting(%d)", int(w))
	}
}

// ParseWeighting maps "zero-energy" and "flat" to their weightings.
func ParseWeighting(s string) (UnsampledWeighting, error) {
	switch s {
	case "", "zero-energy":
		return UnsampledZeroEnergy, nil
	case "flat":
		return UnsampledFlat, nil
	default:
		return 0, errors.Newf(errors.ErrCodeConfigInvalid, "unknown unsampled weighting %q", s)
	}
}

// Evaluation is the thermodynamic summary of one energy vector.
type Evaluation struct {
	// Best is the index of the lowest energy, lowest index on ties.
	Best int
	// MinEnergy is the energy at Best.
	MinEnergy float64
	// LogZ is ln Z of the ground-state-relative partition function.
	LogZ float64
	// FreeEnergy is MinEnergy − LogZ.
	FreeEnergy float64
}

type options struct {
	unsampled    bool
	logUnsampled float64
	weighting    UnsampledWeighting
}

// Option configures Evaluate.
type Option func(*options)

// WithUnsampled adds the contribution of exp(logCount) conformations that
// the library does not enumerate. A logCount of -Inf adds nothing.
func WithUnsampled(logCount float64, w UnsampledWeighting) Option {
	return func(o *options) {
		o.unsampled = true
		o.logUnsampled = logCount
		o.weighting = w
	}
}

// Evaluate finds the ground state of energies and the free energy of the
// ensemble. Non-finite energies are not rejected; they propagate into the
// result.
func Evaluate(energies []float64, opts ...Option) (Evaluation, error) {
	if len(energies) == 0 {
		return Evaluation{}, errors.New(errors.ErrCodeNoEnergies, "cannot evaluate an empty ensemble")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	best := 0
	for i, e := range energies {
		if e < energies[best] {
			best = i
		}
	}
	eMin := energies[best]

	// Neumaier-compensated sum of the Boltzmann weights.
	var sum, comp float64
	add := func(v float64) {
		t := sum + v
		if math.Abs(sum) >= math.Abs(v) {
			comp += (sum - t) + v
		} else {
			comp += (v - t) + sum
		}
		sum = t
	}
	for _, e := range energies {
		add(math.Exp(eMin - e))
	}
	logZ := math.Log(sum + comp)

	// The unsampled weight is exp(u) relative to the ground state. u may
	// exceed the float64 exp range, so it is combined in log space.
	if o.unsampled && !math.IsInf(o.logUnsampled, -1) {
		u := eMin + o.logUnsampled
		if o.weighting == UnsampledFlat {
			u = o.logUnsampled
		}
		logZ = logAddExp(logZ, u)
	}

	return Evaluation{
		Best:       best,
		MinEnergy:  eMin,
		LogZ:       logZ,
		FreeEnergy: eMin - logZ,
	}, nil
}

// logAddExp returns ln(exp(a) + exp(b)) without overflow.
func logAddExp(a, b float64) float64 {
	hi, lo := a, b
	if b > a {
		hi, lo = b, a
	}
	if math.IsInf(hi, 0) {
		return hi
	}
	return hi + math.Log1p(math.Exp(lo-hi))
}
