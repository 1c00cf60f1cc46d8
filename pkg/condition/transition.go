package condition

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// RollRange bounds every roll: valid rolls are in [0, RollRange).
const RollRange = 10000

// Roll selects an outcome from a transition row. Zero always selects the
// first (baseline) entry of the row.
type Roll uint16

// Tier selects the transition table used by a recipe.
type Tier uint8

const (
	// Fixed keeps the process at Normal forever.
	Fixed Tier = iota
	// Standard is the Normal/Good/Excellent/Poor cycle of regular recipes.
	Standard
	Expert1
	Expert2
	Expert3
)

var tierNames = [...]string{
	Fixed:    "fixed",
	Standard: "standard",
	Expert1:  "expert1",
	Expert2:  "expert2",
	Expert3:  "expert3",
}

func (t Tier) String() string {
	if int(t) < len(tierNames) {
		return tierNames[t]
	}
	return fmt.Sprintf("tier(%d)", t)
}

// ParseTier resolves a tier name.
func ParseTier(s string) (Tier, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range tierNames {
		if name == key {
			return Tier(i), nil
		}
	}
	return Fixed, fmt.Errorf("unknown condition tier %q", s)
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type entry struct {
	kind   Kind
	weight uint16
}

// Each row sums to RollRange. The baseline outcome comes first.
var (
	rowNormal = []entry{{Normal, RollRange}}
	rowPoor   = []entry{{Poor, RollRange}}
	rowGood   = []entry{{Good, RollRange}}

	rowStandard = []entry{{Normal, 7600}, {Good, 2000}, {Excellent, 400}}
	rowExpert1  = []entry{{Normal, 4600}, {Good, 1200}, {Centered, 1500}, {Sturdy, 1500}, {Pliant, 1200}}
	rowExpert2  = []entry{{Normal, 3700}, {Good, 1200}, {Sturdy, 1500}, {Pliant, 1200}, {Malleable, 1200}, {Primed, 1200}}
	rowExpert3  = []entry{{Normal, 2500}, {Good, 1200}, {Sturdy, 1500}, {Pliant, 1200}, {Malleable, 1200}, {Primed, 1200}, {GoodOmen, 1200}}
)

func row(current Kind, tier Tier) []entry {
	switch {
	case tier == Fixed:
		return rowNormal
	case current == Excellent:
		return rowPoor
	case current == GoodOmen:
		return rowGood
	}
	switch tier {
	case Standard:
		if current != Normal {
			return rowNormal
		}
		return rowStandard
	case Expert1:
		return rowExpert1
	case Expert2:
		return rowExpert2
	case Expert3:
		return rowExpert3
	default:
		return rowNormal
	}
}

// Next returns the condition following current. It is a pure function of its
// inputs; rolls outside the range are clamped to the last bucket.
func Next(current Kind, tier Tier, roll Roll) Kind {
	r := row(current, tier)
	acc := uint16(0)
	for _, e := range r {
		acc += e.weight
		if uint16(roll) < acc {
			return e.kind
		}
	}
	return r[len(r)-1].kind
}

// Distribution returns the probability of each successor of current.
func Distribution(current Kind, tier Tier) map[Kind]float64 {
	out := make(map[Kind]float64)
	for _, e := range row(current, tier) {
		out[e.kind] += float64(e.weight) / RollRange
	}
	return out
}

// Sampler draws rolls from an owned generator. It is not safe for concurrent
// use; give each goroutine its own Sampler.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler returns a deterministic sampler for the seed.
func NewSampler(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Roll draws a uniform roll in [0, RollRange).
func (s *Sampler) Roll() Roll {
	return Roll(s.rng.IntN(RollRange))
}

// Rolls draws n rolls.
func (s *Sampler) Rolls(n int) []Roll {
	out := make([]Roll, n)
	for i := range out {
		out[i] = s.Roll()
	}
	return out
}
