// Package folding provides the application-level folding service shared by
// the HTTP API, the Kafka worker and the CLI. It sits between the transport
// handlers and the domain folder, adding caching, metrics and logging.
package folding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/turtacn/foldcore/internal/domain/conformation"
	"github.com/turtacn/foldcore/internal/domain/contact"
	domainFold "github.com/turtacn/foldcore/internal/domain/folding"
	"github.com/turtacn/foldcore/internal/domain/residue"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/foldcore/pkg/errors"
	"github.com/turtacn/foldcore/pkg/types/fold"
)

// Service defines the folding operations exposed to transports.
type Service interface {
	Fold(ctx context.Context, req fold.FoldRequest) (*fold.FoldResponse, error)
	FoldBatch(ctx context.Context, req fold.BatchFoldRequest) (*fold.BatchFoldResponse, error)
	Library() fold.LibraryInfo
	Structure(ctx context.Context, id int, sequence string) (*fold.StructureView, error)
	Neutrality(ctx context.Context, sequence string, cutoff float64) (*fold.NeutralityResult, error)
	Design(ctx context.Context, input *DesignInput) (*fold.DesignResult, error)
	Ready() bool
	NumFolded() int64
	Fingerprint() string
}

// Cache stores fold responses keyed by library fingerprint and sequence.
// The Redis FoldCache implements it.
type Cache interface {
	GetOrCompute(ctx context.Context, fingerprint, sequence string,
		compute func(context.Context) (*fold.FoldResponse, error)) (*fold.FoldResponse, bool, error)
}

// DesignInput contains input for a sequence design search.
type DesignInput struct {
	Cutoff      float64
	Target      int // -1 accepts any structure
	Seed        int64
	MaxAttempts int
}

// Option configures the service.
type Option func(*serviceImpl)

// WithCache enables the fold-result cache for single folds.
func WithCache(c Cache) Option {
	return func(s *serviceImpl) { s.cache = c }
}

// WithMetrics records fold, cache and design metrics.
func WithMetrics(m *prometheus.FoldMetrics) Option {
	return func(s *serviceImpl) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) Option {
	return func(s *serviceImpl) { s.logger = l }
}

// WithMaxBatch bounds the number of sequences accepted by FoldBatch.
func WithMaxBatch(n int) Option {
	return func(s *serviceImpl) { s.maxBatch = n }
}

// WithDesignMaxAttempts sets the attempt budget used when a DesignInput
// leaves MaxAttempts at zero.
func WithDesignMaxAttempts(n int) Option {
	return func(s *serviceImpl) { s.designMaxAttempts = n }
}

const cacheName = "fold"

// serviceImpl implements the Service interface.
type serviceImpl struct {
	folder            *domainFold.Folder
	cache             Cache
	metrics           *prometheus.FoldMetrics
	logger            logging.Logger
	maxBatch          int
	designMaxAttempts int
	fingerprint       string
	kind              string
}

// NewService creates a new folding service around a ready folder.
func NewService(folder *domainFold.Folder, opts ...Option) (Service, error) {
	if !folder.Ready() {
		return nil, errors.New(errors.ErrCodeFolderNotReady, "folding service needs a ready folder")
	}
	s := &serviceImpl{
		folder:            folder,
		logger:            logging.NewNopLogger(),
		maxBatch:          1000,
		designMaxAttempts: 100000,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.kind = string(folder.Library().Kind())
	s.fingerprint = Fingerprint(folder)
	s.logger = s.logger.Named("folding").With(logging.String("fingerprint", s.fingerprint))
	return s, nil
}

// Fingerprint identifies the library, energy model, weighting and letter
// verification of folder. Cached results are only valid under an identical
// fingerprint.
func Fingerprint(folder *domainFold.Folder) string {
	lib := folder.Library()
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%d|%s|%t|", lib.Kind(), lib.Size(), lib.ProteinLength(), folder.Weighting(), folder.VerifiesLetters())
	if !lib.Kind().Exhaustive() {
		fmt.Fprintf(h, "%x|", math.Float64bits(lib.LogUnsampled()))
	}
	m := folder.Model().Matrix()
	for i := range m {
		for j := range m[i] {
			fmt.Fprintf(h, "%x,", math.Float64bits(m[i][j]))
		}
	}
	for id := 0; id < lib.Size(); id++ {
		h.Write([]byte(lib.Structure(conformation.StructureID(id)).Key()))
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func (s *serviceImpl) Fold(ctx context.Context, req fold.FoldRequest) (*fold.FoldResponse, error) {
	seq, err := residue.Parse(req.Sequence)
	if err != nil {
		prometheus.RecordError(s.metrics, "folding", errors.GetCode(err).String())
		return nil, err
	}
	id := req.ID
	if id == "" {
		id = fold.NewRequestID()
	}

	compute := func(context.Context) (*fold.FoldResponse, error) {
		return s.foldOne(seq)
	}

	var resp *fold.FoldResponse
	if s.cache != nil {
		var cached bool
		resp, cached, err = s.cache.GetOrCompute(ctx, s.fingerprint, seq.String(), compute)
		if err == nil {
			prometheus.RecordCacheAccess(s.metrics, cacheName, cached)
		}
	} else {
		resp, err = compute(ctx)
	}
	if err != nil {
		return nil, err
	}

	out := *resp
	out.ID = id
	return &out, nil
}

func (s *serviceImpl) foldOne(seq residue.Sequence) (*fold.FoldResponse, error) {
	start := time.Now()
	info, err := s.folder.Fold(seq)
	prometheus.RecordFold(s.metrics, s.kind, info.Folded(), err, time.Since(start))
	if err != nil {
		prometheus.RecordError(s.metrics, "folding", errors.GetCode(err).String())
		return nil, err
	}
	s.logger.Debug("sequence folded",
		logging.String("sequence", seq.String()),
		logging.Int("structure", int(info.Structure)),
		logging.Float64("free_energy", info.FreeEnergy),
	)
	return toResponse(seq.String(), info), nil
}

func toResponse(sequence string, info domainFold.FoldInfo) *fold.FoldResponse {
	resp := &fold.FoldResponse{
		Sequence:  sequence,
		Folded:    info.Folded(),
		Structure: int(info.Structure),
	}
	resp.SetFreeEnergy(info.FreeEnergy)
	return resp
}

// ErrorResponse turns err into a FoldResponse carrying an error body.
func ErrorResponse(id, sequence string, err error) *fold.FoldResponse {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.CodeInternal
	}
	return &fold.FoldResponse{
		ID:        id,
		Sequence:  sequence,
		Structure: int(conformation.Unfolded),
		Error:     &fold.ErrorBody{Code: code.String(), Message: err.Error()},
	}
}

// FoldBatch validates every sequence up front; unparsable or mis-sized ones
// get an error entry while the rest are folded together. Results keep the
// request order. Batches bypass the cache.
func (s *serviceImpl) FoldBatch(ctx context.Context, req fold.BatchFoldRequest) (*fold.BatchFoldResponse, error) {
	n := len(req.Sequences)
	if n == 0 {
		return nil, errors.InvalidParam("batch holds no sequences")
	}
	if n > s.maxBatch {
		return nil, errors.InvalidParam("batch too large").WithDetailf("%d sequences, limit %d", n, s.maxBatch)
	}

	start := time.Now()
	results := make([]fold.FoldResponse, n)
	valid := make([]residue.Sequence, 0, n)
	index := make([]int, 0, n)
	length := s.folder.Library().ProteinLength()
	for i, raw := range req.Sequences {
		id := fold.NewRequestID()
		seq, err := residue.Parse(raw)
		if err == nil && seq.Len() != length {
			err = errors.Newf(errors.ErrCodeSequenceLength, "sequence has %d residues, library expects %d", seq.Len(), length)
		}
		if err != nil {
			results[i] = *ErrorResponse(id, raw, err)
			continue
		}
		results[i].ID = id
		valid = append(valid, seq)
		index = append(index, i)
	}

	infos, err := s.folder.FoldAll(ctx, valid)
	if err != nil {
		prometheus.RecordError(s.metrics, "folding", errors.GetCode(err).String())
		return nil, err
	}

	var folds int64
	per := time.Duration(0)
	if len(infos) > 0 {
		per = time.Since(start) / time.Duration(len(infos))
	}
	for k, info := range infos {
		i := index[k]
		resp := toResponse(valid[k].String(), info)
		resp.ID = results[i].ID
		results[i] = *resp
		if info.Folded() {
			folds++
		}
		prometheus.RecordFold(s.metrics, s.kind, info.Folded(), nil, per)
	}

	logging.LogOperationDuration(s.logger, "fold_batch", start,
		logging.Int("sequences", n),
		logging.Int64("folds", folds),
	)
	return &fold.BatchFoldResponse{Results: results, Folds: folds}, nil
}

func (s *serviceImpl) Library() fold.LibraryInfo {
	lib := s.folder.Library()
	info := fold.LibraryInfo{
		Kind:          string(lib.Kind()),
		Size:          lib.Size(),
		ProteinLength: lib.ProteinLength(),
		Weighting:     s.folder.Weighting().String(),
	}
	if lat, ok := lib.(*conformation.LatticeLibrary); ok {
		info.LatticeSide = lat.Side()
	}
	if !lib.Kind().Exhaustive() {
		v := lib.LogUnsampled()
		info.LogUnsampled = &v
	}
	return info
}

// Structure returns the contacts of id. Lattice structures are also drawn,
// with the residues of sequence when one is given.
func (s *serviceImpl) Structure(_ context.Context, id int, sequence string) (*fold.StructureView, error) {
	lib := s.folder.Library()
	set, err := conformation.Lookup(lib, conformation.StructureID(id))
	if err != nil {
		return nil, err
	}
	view := &fold.StructureView{ID: id, Contacts: make([]fold.Contact, 0, set.Len())}
	set.Each(func(c contact.Contact) {
		view.Contacts = append(view.Contacts, fold.Contact{I: c.I, J: c.J})
	})

	lat, ok := lib.(*conformation.LatticeLibrary)
	if !ok {
		return view, nil
	}
	var seq residue.Sequence
	if sequence != "" {
		if seq, err = residue.Parse(sequence); err != nil {
			return nil, err
		}
	}
	if view.Drawing, err = lat.Render(conformation.StructureID(id), seq); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *serviceImpl) Neutrality(ctx context.Context, sequence string, cutoff float64) (*fold.NeutralityResult, error) {
	seq, err := residue.Parse(sequence)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := Neutrality(ctx, s.folder, seq, cutoff)
	if err != nil {
		prometheus.RecordError(s.metrics, "neutrality", errors.GetCode(err).String())
		return nil, err
	}
	logging.LogOperationDuration(s.logger, "neutrality", start,
		logging.String("sequence", res.Sequence),
		logging.Float64("neutrality", res.Neutrality),
	)
	return res, nil
}

func (s *serviceImpl) Design(ctx context.Context, input *DesignInput) (*fold.DesignResult, error) {
	if input == nil {
		return nil, errors.InvalidParam("design input is required")
	}
	attempts := input.MaxAttempts
	if attempts == 0 {
		attempts = s.designMaxAttempts
	}
	start := time.Now()
	rng := newRand(input.Seed)
	res, err := FindSequence(ctx, s.folder, rng, input.Cutoff, conformation.StructureID(input.Target), attempts)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeDesignExhausted) {
			prometheus.RecordDesign(s.metrics, false, attempts)
		}
		return nil, err
	}
	prometheus.RecordDesign(s.metrics, true, res.Attempts)
	logging.LogOperationDuration(s.logger, "design", start,
		logging.String("sequence", res.Sequence),
		logging.Int("structure", res.Structure),
		logging.Int("attempts", res.Attempts),
	)
	return res, nil
}

func (s *serviceImpl) Ready() bool { return s.folder.Ready() }

func (s *serviceImpl) NumFolded() int64 { return s.folder.NumFolded() }

func (s *serviceImpl) Fingerprint() string { return s.fingerprint }

//Personal.AI order the ending
