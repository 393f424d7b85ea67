package folding

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/foldcore/internal/domain/conformation"
	domainFold "github.com/turtacn/foldcore/internal/domain/folding"
	"github.com/turtacn/foldcore/internal/domain/residue"
	"github.com/turtacn/foldcore/internal/domain/thermo"
	foldredis "github.com/turtacn/foldcore/internal/infrastructure/database/redis"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/foldcore/internal/testutil"
	"github.com/turtacn/foldcore/pkg/errors"
	"github.com/turtacn/foldcore/pkg/types/fold"
)

const delta = 1e-9

// memoryCache is an in-process Cache used to observe the service's cache
// interaction.
type memoryCache struct {
	mu       sync.Mutex
	entries  map[string]*fold.FoldResponse
	computes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*fold.FoldResponse)}
}

func (c *memoryCache) GetOrCompute(ctx context.Context, fingerprint, sequence string,
	compute func(context.Context) (*fold.FoldResponse, error)) (*fold.FoldResponse, bool, error) {
	key := fingerprint + ":" + sequence
	c.mu.Lock()
	if r, ok := c.entries[key]; ok {
		c.mu.Unlock()
		hit := *r
		hit.Cached = true
		return &hit, true, nil
	}
	c.mu.Unlock()

	r, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	c.entries[key] = r
	c.computes++
	c.mu.Unlock()
	return r, false, nil
}

func newTestService(t *testing.T, side int, opts ...Option) Service {
	t.Helper()
	svc, err := NewService(testutil.LatticeFolder(t, side), opts...)
	require.NoError(t, err)
	return svc
}

func newTestMetrics(t *testing.T) (*prometheus.FoldMetrics, prometheus.MetricsCollector) {
	t.Helper()
	c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, logging.NewNopLogger())
	require.NoError(t, err)
	return prometheus.NewFoldMetrics(c), c
}

func scrape(t *testing.T, c prometheus.MetricsCollector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewService_RequiresReadyFolder(t *testing.T) {
	_, err := NewService(&domainFold.Folder{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFolderNotReady))
}

func TestFold_Lattice(t *testing.T) {
	svc := newTestService(t, 3)

	resp, err := svc.Fold(context.Background(), fold.FoldRequest{ID: "req-1", Sequence: testutil.Seq3x3})
	require.NoError(t, err)
	assert.Equal(t, "req-1", resp.ID)
	assert.Equal(t, testutil.Seq3x3, resp.Sequence)
	assert.True(t, resp.Folded)
	assert.Equal(t, testutil.Seq3x3Best, resp.Structure)
	require.NotNil(t, resp.FreeEnergy)
	assert.InDelta(t, testutil.Seq3x3DG, *resp.FreeEnergy, delta)
	assert.False(t, resp.Cached)
	assert.Nil(t, resp.Error)
	assert.Equal(t, int64(1), svc.NumFolded())
}

func TestFold_AssignsIDAndNormalizesCase(t *testing.T) {
	svc := newTestService(t, 4)

	resp, err := svc.Fold(context.Background(), fold.FoldRequest{Sequence: "  cmfilvwyagtsnqde\n"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, testutil.Seq4x4, resp.Sequence)
	assert.Equal(t, testutil.Seq4x4Best, resp.Structure)
	assert.InDelta(t, testutil.Seq4x4DG, resp.FreeEnergyOrNaN(), delta)
}

func TestFold_StopResidueIsUnfolded(t *testing.T) {
	svc := newTestService(t, 3)

	resp, err := svc.Fold(context.Background(), fold.FoldRequest{Sequence: "LLKAEEVF*"})
	require.NoError(t, err)
	assert.False(t, resp.Folded)
	assert.Equal(t, int(conformation.Unfolded), resp.Structure)
	assert.Nil(t, resp.FreeEnergy)
	assert.Equal(t, int64(0), svc.NumFolded())
}

func TestFold_Errors(t *testing.T) {
	svc := newTestService(t, 3)

	_, err := svc.Fold(context.Background(), fold.FoldRequest{Sequence: "LLKAEEVFX"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownResidue))

	_, err = svc.Fold(context.Background(), fold.FoldRequest{Sequence: "LLKA"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeSequenceLength))
}

func TestFold_UsesCache(t *testing.T) {
	cache := newMemoryCache()
	m, c := newTestMetrics(t)
	svc := newTestService(t, 3, WithCache(cache), WithMetrics(m))
	ctx := context.Background()

	first, err := svc.Fold(ctx, fold.FoldRequest{ID: "a", Sequence: testutil.Seq3x3})
	require.NoError(t, err)
	second, err := svc.Fold(ctx, fold.FoldRequest{ID: "b", Sequence: "llkaeevfl"})
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, "b", second.ID)
	assert.Equal(t, first.Structure, second.Structure)
	assert.Equal(t, 1, cache.computes)
	assert.Equal(t, int64(1), svc.NumFolded())

	body := scrape(t, c)
	assert.Contains(t, body, `test_cache_hits_total{cache="fold"} 1`)
	assert.Contains(t, body, `test_cache_misses_total{cache="fold"} 1`)
	assert.Contains(t, body, `test_folds_total{library="lattice",outcome="folded"} 1`)
}

func TestFold_WithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := foldredis.NewClientFromRDB(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), logging.NewNopLogger())
	defer client.Close()
	cache := foldredis.NewFoldCache(client, logging.NewNopLogger(), foldredis.WithoutJitter())

	svc := newTestService(t, 3, WithCache(cache))
	ctx := context.Background()

	first, err := svc.Fold(ctx, fold.FoldRequest{Sequence: testutil.Seq3x3})
	require.NoError(t, err)
	second, err := svc.Fold(ctx, fold.FoldRequest{Sequence: testutil.Seq3x3})
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.InDelta(t, first.FreeEnergyOrNaN(), second.FreeEnergyOrNaN(), delta)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, mr.Exists("foldcore:"+svc.Fingerprint()+":"+testutil.Seq3x3))
}

func TestFold_MetricsRecordErrors(t *testing.T) {
	m, c := newTestMetrics(t)
	svc := newTestService(t, 3, WithMetrics(m))

	_, err := svc.Fold(context.Background(), fold.FoldRequest{Sequence: "LL"})
	require.Error(t, err)

	body := scrape(t, c)
	assert.Contains(t, body, `test_folds_total{library="lattice",outcome="error"} 1`)
	assert.Contains(t, body, `test_errors_total{code="FOLD_001",component="folding"} 1`)
}

func TestFoldBatch(t *testing.T) {
	svc := newTestService(t, 3)

	resp, err := svc.FoldBatch(context.Background(), fold.BatchFoldRequest{
		Sequences: []string{testutil.Seq3x3, "LLKAEEVFX", "LLK", "LLKAEEVF*", "KKKKKKKKK"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 5)
	assert.Equal(t, int64(2), resp.Folds)

	ok := resp.Results[0]
	assert.True(t, ok.Folded)
	assert.Equal(t, testutil.Seq3x3Best, ok.Structure)
	assert.InDelta(t, testutil.Seq3x3DG, ok.FreeEnergyOrNaN(), delta)

	require.NotNil(t, resp.Results[1].Error)
	assert.Equal(t, "RES_001", resp.Results[1].Error.Code)
	assert.Equal(t, "LLKAEEVFX", resp.Results[1].Sequence)

	require.NotNil(t, resp.Results[2].Error)
	assert.Equal(t, "FOLD_001", resp.Results[2].Error.Code)

	assert.Nil(t, resp.Results[3].Error)
	assert.False(t, resp.Results[3].Folded)
	assert.Equal(t, -1, resp.Results[3].Structure)

	assert.True(t, resp.Results[4].Folded)

	ids := map[string]bool{}
	for _, r := range resp.Results {
		assert.NotEmpty(t, r.ID)
		ids[r.ID] = true
	}
	assert.Len(t, ids, 5)
}

func TestFoldBatch_Limits(t *testing.T) {
	svc := newTestService(t, 3, WithMaxBatch(2))

	_, err := svc.FoldBatch(context.Background(), fold.BatchFoldRequest{})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = svc.FoldBatch(context.Background(), fold.BatchFoldRequest{
		Sequences: []string{testutil.Seq3x3, testutil.Seq3x3, testutil.Seq3x3},
	})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestFoldBatch_Cancelled(t *testing.T) {
	svc := newTestService(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.FoldBatch(ctx, fold.BatchFoldRequest{Sequences: []string{testutil.Seq3x3}})
	require.Error(t, err)
}

func TestLibrary_Lattice(t *testing.T) {
	svc := newTestService(t, 4)

	info := svc.Library()
	assert.Equal(t, "lattice", info.Kind)
	assert.Equal(t, 69, info.Size)
	assert.Equal(t, 16, info.ProteinLength)
	assert.Equal(t, 4, info.LatticeSide)
	assert.Nil(t, info.LogUnsampled)
	assert.Equal(t, "zero-energy", info.Weighting)
}

func TestLibrary_Decoy(t *testing.T) {
	lib, err := conformation.LoadDecoyLibrary(context.Background(),
		conformation.NewDirSource(testutil.WriteDecoyDir(t)), "maps.txt", 10, 3.5)
	require.NoError(t, err)
	folder, err := domainFold.New(lib, nil, domainFold.WithWeighting(thermo.UnsampledFlat))
	require.NoError(t, err)
	svc, err := NewService(folder)
	require.NoError(t, err)

	info := svc.Library()
	assert.Equal(t, "decoy", info.Kind)
	assert.Equal(t, 3, info.Size)
	assert.Equal(t, 10, info.ProteinLength)
	assert.Zero(t, info.LatticeSide)
	require.NotNil(t, info.LogUnsampled)
	assert.InDelta(t, 3.5, *info.LogUnsampled, delta)
	assert.Equal(t, "flat", info.Weighting)

	view, err := svc.Structure(context.Background(), 0, "")
	require.NoError(t, err)
	assert.Equal(t, []fold.Contact{{I: 0, J: 5}, {I: 1, J: 8}, {I: 2, J: 7}}, view.Contacts)
	assert.Empty(t, view.Drawing)
}

func TestStructure_Lattice(t *testing.T) {
	svc := newTestService(t, 3)
	ctx := context.Background()

	view, err := svc.Structure(ctx, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 0, view.ID)
	assert.Len(t, view.Contacts, 4)
	assert.NotEmpty(t, view.Drawing)

	view, err = svc.Structure(ctx, 0, testutil.Seq3x3)
	require.NoError(t, err)
	assert.Contains(t, view.Drawing, "K")

	_, err = svc.Structure(ctx, 5, "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeStructureNotFound))

	_, err = svc.Structure(ctx, 0, "LLKAEEVFZ")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownResidue))

	_, err = svc.Structure(ctx, 0, "LLK")
	assert.True(t, errors.IsCode(err, errors.ErrCodeSequenceLength))
}

type acceptAll struct{}

func (acceptAll) Verify(residue.Sequence) error { return nil }

func TestFingerprint(t *testing.T) {
	a := Fingerprint(testutil.LatticeFolder(t, 3))
	b := Fingerprint(testutil.LatticeFolder(t, 3))
	c := Fingerprint(testutil.LatticeFolder(t, 4))
	d := Fingerprint(testutil.LatticeFolder(t, 3, domainFold.WithWeighting(thermo.UnsampledFlat)))

	assert.Len(t, a, 16)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)

	v := Fingerprint(testutil.LatticeFolder(t, 3, domainFold.WithLetterVerification(acceptAll{})))
	assert.NotEqual(t, a, v)

	svc, err := NewService(testutil.LatticeFolder(t, 3))
	require.NoError(t, err)
	assert.Equal(t, a, svc.Fingerprint())
	assert.True(t, svc.Ready())
}

func TestErrorResponse(t *testing.T) {
	resp := ErrorResponse("x", "SEQ", errors.New(errors.ErrCodeSequenceLength, "bad length"))
	assert.Equal(t, "x", resp.ID)
	assert.Equal(t, -1, resp.Structure)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FOLD_001", resp.Error.Code)

	resp = ErrorResponse("y", "SEQ", io.ErrUnexpectedEOF)
	assert.Equal(t, "COMMON_001", resp.Error.Code)
}
