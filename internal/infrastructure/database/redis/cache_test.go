package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/foldcore/pkg/errors"
	"github.com/turtacn/foldcore/pkg/types/fold"
)

type FoldCacheTestSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	cache *FoldCache
	ctx   context.Context
}

func (s *FoldCacheTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.ctx = context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	client := NewClientFromRDB(rdb, logging.NewNopLogger())
	s.cache = NewFoldCache(client, logging.NewNopLogger(), WithPrefix("test:"), WithTTL(time.Hour), WithoutJitter())
}

func (s *FoldCacheTestSuite) TearDownTest() {
	s.mr.Close()
}

func folded(seq string, structure int, dG float64) *fold.FoldResponse {
	resp := &fold.FoldResponse{ID: "req", Sequence: seq, Folded: true, Structure: structure}
	resp.SetFreeEnergy(dG)
	return resp
}

func (s *FoldCacheTestSuite) TestGet_Miss() {
	_, err := s.cache.Get(s.ctx, "lat5", "LLKAEEVFL")
	s.ErrorIs(err, ErrCacheMiss)
	s.True(pkgerrors.IsNotFound(err))
}

func (s *FoldCacheTestSuite) TestSetThenGet() {
	s.Require().NoError(s.cache.Set(s.ctx, "lat3", folded("LLKAEEVFL", 0, -23.9)))

	s.True(s.mr.Exists("test:lat3:LLKAEEVFL"))
	s.Equal(time.Hour, s.mr.TTL("test:lat3:LLKAEEVFL"))

	got, err := s.cache.Get(s.ctx, "lat3", "LLKAEEVFL")
	s.Require().NoError(err)
	s.True(got.Folded)
	s.Equal(0, got.Structure)
	s.InDelta(-23.9, got.FreeEnergyOrNaN(), 1e-12)
	s.False(got.Cached)
}

func (s *FoldCacheTestSuite) TestSet_SkipsErrors() {
	resp := &fold.FoldResponse{Sequence: "XX", Error: &fold.ErrorBody{Code: "RES_001"}}
	s.Require().NoError(s.cache.Set(s.ctx, "lat3", resp))
	s.False(s.mr.Exists("test:lat3:XX"))
}

func (s *FoldCacheTestSuite) TestSet_UnfoldedHasNoFreeEnergy() {
	resp := &fold.FoldResponse{Sequence: "LKAE", Structure: -1}
	s.Require().NoError(s.cache.Set(s.ctx, "lat2", resp))

	got, err := s.cache.Get(s.ctx, "lat2", "LKAE")
	s.Require().NoError(err)
	s.Nil(got.FreeEnergy)
	s.Equal(-1, got.Structure)
}

func (s *FoldCacheTestSuite) TestGet_CorruptEntry() {
	s.Require().NoError(s.mr.Set("test:lat3:AAA", "{not json"))
	_, err := s.cache.Get(s.ctx, "lat3", "AAA")
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *FoldCacheTestSuite) TestGetOrCompute_MissThenHit() {
	var calls int32
	compute := func(context.Context) (*fold.FoldResponse, error) {
		atomic.AddInt32(&calls, 1)
		return folded("MKLV", 3, -4.2), nil
	}

	first, cached, err := s.cache.GetOrCompute(s.ctx, "fp", "MKLV", compute)
	s.Require().NoError(err)
	s.False(cached)
	s.False(first.Cached)

	second, cached, err := s.cache.GetOrCompute(s.ctx, "fp", "MKLV", compute)
	s.Require().NoError(err)
	s.True(cached)
	s.True(second.Cached)
	s.Equal(first.Structure, second.Structure)
	s.Equal(int32(1), atomic.LoadInt32(&calls))
}

func (s *FoldCacheTestSuite) TestGetOrCompute_ComputeError() {
	boom := pkgerrors.New(pkgerrors.ErrCodeSequenceLength, "wrong length")
	_, _, err := s.cache.GetOrCompute(s.ctx, "fp", "MK", func(context.Context) (*fold.FoldResponse, error) {
		return nil, boom
	})
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSequenceLength))
	s.False(s.mr.Exists("test:fp:MK"))
}

func (s *FoldCacheTestSuite) TestGetOrCompute_Concurrent() {
	var calls int32
	release := make(chan struct{})
	compute := func(context.Context) (*fold.FoldResponse, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return folded("CCCC", 1, -1), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, _, err := s.cache.GetOrCompute(s.ctx, "fp", "CCCC", compute)
			s.NoError(err)
			s.Equal(1, resp.Structure)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	s.LessOrEqual(atomic.LoadInt32(&calls), int32(8))
	s.GreaterOrEqual(atomic.LoadInt32(&calls), int32(1))
}

func (s *FoldCacheTestSuite) TestGetOrCompute_RedisDown() {
	s.mr.Close()
	resp, cached, err := s.cache.GetOrCompute(s.ctx, "fp", "MKLV", func(context.Context) (*fold.FoldResponse, error) {
		return folded("MKLV", 2, -3), nil
	})
	s.Require().NoError(err)
	s.False(cached)
	s.Equal(2, resp.Structure)
}

func (s *FoldCacheTestSuite) TestInvalidate() {
	for _, seq := range []string{"AAAA", "CCCC", "MMMM"} {
		s.Require().NoError(s.cache.Set(s.ctx, "old", folded(seq, 0, -1)))
	}
	s.Require().NoError(s.cache.Set(s.ctx, "new", folded("AAAA", 0, -1)))

	n, err := s.cache.Invalidate(s.ctx, "old")
	s.Require().NoError(err)
	s.Equal(int64(3), n)
	s.True(s.mr.Exists("test:new:AAAA"))
}

func (s *FoldCacheTestSuite) TestExpiryJitter() {
	c := NewFoldCache(nil, nil, WithTTL(time.Hour))
	for i := 0; i < 20; i++ {
		d := c.expiry()
		s.GreaterOrEqual(d, 54*time.Minute)
		s.LessOrEqual(d, 66*time.Minute)
	}
	s.Zero(NewFoldCache(nil, nil, WithTTL(0)).expiry())
}

func TestFoldCacheTestSuite(t *testing.T) {
	suite.Run(t, new(FoldCacheTestSuite))
}

//Personal.AI order the ending
