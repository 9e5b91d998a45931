package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/courtside/internal/domain/court"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/pkg/metrics"
)

const defaultShardCount = 8

type shard struct {
	mu     sync.RWMutex
	courts map[string]*court.Court
}

// ShardedStore is an in-memory Store. Court ids are spread over shards by
// xxhash so lookups on different courts rarely contend. Per-court
// mutation is serialized by the court itself, not by the shard.
type ShardedStore struct {
	shards     []*shard
	shardCount int
	count      atomic.Int64
}

// NewShardedStore constructs an empty registry.
func NewShardedStore(opts ...Option) *ShardedStore {
	s := &ShardedStore{shardCount: defaultShardCount}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{courts: make(map[string]*court.Court)}
	}
	metrics.UpdateCourtCount(0)
	return s
}

func (s *ShardedStore) shardFor(id string) *shard {
	return s.shards[xxhash.Sum64String(id)%uint64(len(s.shards))]
}

// Create implements Store.Create.
func (s *ShardedStore) Create(_ context.Context, c *court.Court) error {
	sh := s.shardFor(c.ID())
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.courts[c.ID()]; exists {
		return fmt.Errorf("%w: %q", model.ErrDuplicateCourt, c.ID())
	}
	sh.courts[c.ID()] = c
	metrics.UpdateCourtCount(int(s.count.Add(1)))
	return nil
}

// Get implements Store.Get.
func (s *ShardedStore) Get(_ context.Context, courtID string) (*court.Court, error) {
	sh := s.shardFor(courtID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	c, ok := sh.courts[courtID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownCourt, courtID)
	}
	return c, nil
}

// List implements Store.List.
func (s *ShardedStore) List(_ context.Context) []*court.Court {
	out := make([]*court.Court, 0, s.count.Load())
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, c := range sh.courts {
			out = append(out, c)
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Count implements Store.Count.
func (s *ShardedStore) Count(_ context.Context) int {
	return int(s.count.Load())
}
