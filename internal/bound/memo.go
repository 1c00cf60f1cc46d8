package bound

import (
	"hash/maphash"
	"sync"

	"github.com/aretw0/artisan/pkg/domain"
)

const memoShards = 64

type memoShard struct {
	mu sync.RWMutex
	m  map[domain.State]Front
}

// memo is a sharded, insert-if-absent cache shared by every worker of a session.
type memo struct {
	seed   maphash.Seed
	shards [memoShards]memoShard
}

func newMemo() *memo {
	m := &memo{seed: maphash.MakeSeed()}
	for i := range m.shards {
		m.shards[i].m = make(map[domain.State]Front)
	}
	return m
}

func (m *memo) shard(k domain.State) *memoShard {
	return &m.shards[maphash.Comparable(m.seed, k)%memoShards]
}

func (m *memo) get(k domain.State) (Front, bool) {
	s := m.shard(k)
	s.mu.RLock()
	f, ok := s.m[k]
	s.mu.RUnlock()
	return f, ok
}

// put stores f unless another worker got there first, and returns the stored front.
func (m *memo) put(k domain.State, f Front) Front {
	s := m.shard(k)
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.m[k]; ok {
		return prev
	}
	s.m[k] = f
	return f
}

func (m *memo) len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}
