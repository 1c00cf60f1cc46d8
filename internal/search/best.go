package search

import (
	"sync"
	"sync/atomic"

	"github.com/aretw0/artisan/pkg/domain"
)

// Best is the incumbent shared by every worker. Its score only ever
// improves: Offer publishes a solution only when it strictly beats the
// current one.
type Best struct {
	// key is Score.Key()+1, so zero means no solution.
	key atomic.Uint64

	mu        sync.Mutex
	published uint64
	sol       Solution
}

// Offer installs sol if it strictly beats the incumbent.
func (b *Best) Offer(sol Solution) bool {
	k := sol.Score.Key() + 1
	for {
		cur := b.key.Load()
		if k <= cur {
			return false
		}
		if b.key.CompareAndSwap(cur, k) {
			break
		}
	}
	b.mu.Lock()
	// A slower goroutine may publish after a better one already did.
	if k > b.published {
		b.published = k
		b.sol = Solution{Macro: sol.Macro.Clone(), State: sol.State, Score: sol.Score}
	}
	b.mu.Unlock()
	return true
}

// Beats reports whether a solution with score sc would replace the incumbent.
func (b *Best) Beats(sc domain.Score) bool {
	return sc.Key()+1 > b.key.Load()
}

// Score returns the incumbent score.
func (b *Best) Score() (domain.Score, bool) {
	k := b.key.Load()
	if k == 0 {
		return domain.Score{}, false
	}
	k--
	return domain.Score{
		Quality:  uint32(k >> 24),
		Steps:    domain.StepLimit - uint8(k>>16),
		Duration: ^uint16(k),
	}, true
}

// Solution returns a copy of the incumbent.
func (b *Best) Solution() (Solution, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.published == 0 {
		return Solution{}, false
	}
	sol := b.sol
	sol.Macro = sol.Macro.Clone()
	return sol, true
}
