package search

import (
	"hash/maphash"
	"math/bits"
	"sync"

	"github.com/aretw0/artisan/pkg/domain"
)

const defaultTableShards = 256

// visit records how much room a fingerprint was explored with.
type visit struct {
	remaining uint8
	elapsed   uint16
}

type tableShard struct {
	mu sync.Mutex
	m  map[domain.Fingerprint]visit
}

// Table is the transposition table: a sharded map from state fingerprint to
// the best exploration budget it has been claimed with.
type Table struct {
	seed   maphash.Seed
	mask   uint64
	shards []tableShard
}

// NewTable allocates n shards, rounded up to a power of two.
func NewTable(n int) *Table {
	if n <= 0 {
		n = defaultTableShards
	}
	n = 1 << bits.Len(uint(n-1))
	t := &Table{seed: maphash.MakeSeed(), mask: uint64(n - 1), shards: make([]tableShard, n)}
	for i := range t.shards {
		t.shards[i].m = make(map[domain.Fingerprint]visit)
	}
	return t
}

// Claim reports whether the caller should explore fp with the given
// remaining steps and elapsed time. A fingerprint already claimed with at
// least as many remaining steps and no more elapsed time is skipped, since
// nothing below it can score better. Each winning claim replaces the record.
func (t *Table) Claim(fp domain.Fingerprint, remaining uint8, elapsed int) bool {
	v := visit{remaining: remaining, elapsed: uint16(min(elapsed, 0xffff))}
	s := &t.shards[maphash.Comparable(t.seed, fp)&t.mask]
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.m[fp]; ok && prev.remaining >= v.remaining && prev.elapsed <= v.elapsed {
		return false
	}
	s.m[fp] = v
	return true
}

// Len counts the claimed fingerprints.
func (t *Table) Len() int {
	n := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		n += len(s.m)
		s.mu.Unlock()
	}
	return n
}
