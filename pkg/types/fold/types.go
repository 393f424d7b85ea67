// Package fold holds the wire types shared by the HTTP API, the Kafka worker
// and the CLI's JSON output.
package fold

import (
	"encoding/json"
	"math"

	"github.com/google/uuid"
)

// FoldRequest asks for one sequence to be folded.
type FoldRequest struct {
	ID       string `json:"id,omitempty"`
	Sequence string `json:"sequence" binding:"required"`
}

// BatchFoldRequest asks for several sequences to be folded together.
type BatchFoldRequest struct {
	Sequences []string `json:"sequences" binding:"required,min=1"`
}

// ErrorBody is the error payload of a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FoldResponse is the outcome of folding one sequence. FreeEnergy is absent
// for unfolded sequences.
type FoldResponse struct {
	ID         string     `json:"id"`
	Sequence   string     `json:"sequence"`
	Folded     bool       `json:"folded"`
	Structure  int        `json:"structure"`
	FreeEnergy *float64   `json:"free_energy,omitempty"`
	Cached     bool       `json:"cached,omitempty"`
	Error      *ErrorBody `json:"error,omitempty"`
}

// SetFreeEnergy stores dG unless it is NaN or infinite, which JSON cannot carry.
func (r *FoldResponse) SetFreeEnergy(dG float64) {
	if math.IsNaN(dG) || math.IsInf(dG, 0) {
		r.FreeEnergy = nil
		return
	}
	v := dG
	r.FreeEnergy = &v
}

// FreeEnergyOrNaN returns the free energy, or NaN when absent.
func (r FoldResponse) FreeEnergyOrNaN() float64 {
	if r.FreeEnergy == nil {
		return math.NaN()
	}
	return *r.FreeEnergy
}

// BatchFoldResponse holds per-sequence results in request order. Folds is
// the number of fold computations the batch performed.
type BatchFoldResponse struct {
	Results []FoldResponse `json:"results"`
	Folds   int64          `json:"folds"`
}

// LibraryInfo describes the loaded conformation library.
type LibraryInfo struct {
	Kind          string   `json:"kind"`
	Size          int      `json:"size"`
	ProteinLength int      `json:"protein_length"`
	LatticeSide   int      `json:"lattice_side,omitempty"`
	LogUnsampled  *float64 `json:"log_unsampled,omitempty"`
	Weighting     string   `json:"weighting"`
}

// Contact is one residue pair of a structure.
type Contact struct {
	I int `json:"i"`
	J int `json:"j"`
}

// StructureView is a structure of the library with an optional lattice drawing.
type StructureView struct {
	ID       int       `json:"id"`
	Contacts []Contact `json:"contacts"`
	Drawing  string    `json:"drawing,omitempty"`
}

// NeutralityResult reports the fraction of neutral point mutants.
type NeutralityResult struct {
	Sequence   string  `json:"sequence"`
	Structure  int     `json:"structure"`
	Cutoff     float64 `json:"cutoff"`
	Mutants    int     `json:"mutants"`
	Neutral    int     `json:"neutral"`
	Neutrality float64 `json:"neutrality"`
	Folds      int64   `json:"folds"`
}

// DesignResult is a sequence found by random search.
type DesignResult struct {
	Sequence   string  `json:"sequence"`
	Structure  int     `json:"structure"`
	FreeEnergy float64 `json:"free_energy"`
	Attempts   int     `json:"attempts"`
}

// NewRequestID returns a random request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// Encode marshals v for the message bus.
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeRequest unmarshals a FoldRequest, assigning an ID when missing.
func DecodeRequest(data []byte) (FoldRequest, error) {
	var req FoldRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return FoldRequest{}, err
	}
	if req.ID == "" {
		req.ID = NewRequestID()
	}
	return req, nil
}
