package search

import (
	"math"
	"slices"

	"github.com/aretw0/artisan/pkg/domain"
)

// Sentinel is the parent index of a path's first action.
const Sentinel = math.MaxUint32

type arenaEntry struct {
	action domain.ActionID
	parent uint32
}

// Arena stores search paths as (action, parent) links so a node carries a
// single index instead of its whole macro.
type Arena struct {
	entries []arenaEntry
}

// Push appends an action below parent and returns its index.
func (a *Arena) Push(action domain.ActionID, parent uint32) uint32 {
	a.entries = append(a.entries, arenaEntry{action: action, parent: parent})
	return uint32(len(a.entries) - 1)
}

// Path returns the actions from the root to idx.
func (a *Arena) Path(idx uint32) domain.Macro {
	var out domain.Macro
	for idx != Sentinel {
		e := a.entries[idx]
		out = append(out, e.action)
		idx = e.parent
	}
	slices.Reverse(out)
	return out
}

// Truncate drops every entry at or after n. Depth-first callers use it to
// release finished subtrees.
func (a *Arena) Truncate(n int) {
	if n < len(a.entries) {
		a.entries = a.entries[:n]
	}
}

// Len is the number of stored entries.
func (a *Arena) Len() int { return len(a.entries) }
