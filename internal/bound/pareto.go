package bound

import (
	"slices"
	"sort"
)

// Point is a (progress, quality) gain pair.
type Point struct {
	P uint32
	Q uint32
}

// Front is a Pareto front sorted by P ascending and Q strictly descending.
type Front []Point

// normalize sorts pts and removes dominated points. It reuses pts' storage.
func normalize(pts []Point) Front {
	slices.SortFunc(pts, func(a, b Point) int {
		if a.P != b.P {
			if a.P > b.P {
				return -1
			}
			return 1
		}
		if a.Q > b.Q {
			return -1
		}
		if a.Q < b.Q {
			return 1
		}
		return 0
	})
	out := pts[:0]
	for i, p := range pts {
		if i == 0 || p.Q > out[len(out)-1].Q {
			out = append(out, p)
		}
	}
	slices.Reverse(out)
	return slices.Clip(Front(out))
}

// Query returns the best quality gain among points with at least missing progress.
func (f Front) Query(missing uint32) (uint32, bool) {
	i := sort.Search(len(f), func(i int) bool { return f[i].P >= missing })
	if i == len(f) {
		return 0, false
	}
	return f[i].Q, true
}

// appendShifted adds every point of f offset by (dp, dq), clamped to the caps.
func appendShifted(dst []Point, f Front, dp, dq, capP, capQ uint32) []Point {
	for _, p := range f {
		dst = append(dst, Point{P: clampAdd(p.P, dp, capP), Q: clampAdd(p.Q, dq, capQ)})
	}
	return dst
}

func clampAdd(a, b, ceiling uint32) uint32 {
	return uint32(min(uint64(a)+uint64(b), uint64(ceiling)))
}
