package condition

import (
	"fmt"
	"strings"
)

// Kind is the per-step modifier applied to the process.
type Kind uint8

const (
	Normal Kind = iota
	Good
	Excellent
	Poor
	Centered
	Sturdy
	Pliant
	Malleable
	Primed
	GoodOmen
)

var kindNames = [...]string{
	Normal:    "normal",
	Good:      "good",
	Excellent: "excellent",
	Poor:      "poor",
	Centered:  "centered",
	Sturdy:    "sturdy",
	Pliant:    "pliant",
	Malleable: "malleable",
	Primed:    "primed",
	GoodOmen:  "good_omen",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("condition(%d)", k)
}

// ParseKind resolves a condition name (case-insensitive, "-" and "_" are equivalent).
func ParseKind(s string) (Kind, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, name := range kindNames {
		if name == key {
			return Kind(i), nil
		}
	}
	return Normal, fmt.Errorf("unknown condition %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Favorable reports whether actions gated on a good condition may be used.
func (k Kind) Favorable() bool {
	return k == Good || k == Excellent
}

// QualityPercent is the quality potency multiplier in percent.
func (k Kind) QualityPercent() uint64 {
	switch k {
	case Good:
		return 150
	case Excellent:
		return 400
	case Poor:
		return 50
	default:
		return 100
	}
}

// ProgressPercent is the progress potency multiplier in percent.
func (k Kind) ProgressPercent() uint64 {
	if k == Malleable {
		return 150
	}
	return 100
}

// HalvesDurability reports whether durability costs are halved (rounded up).
func (k Kind) HalvesDurability() bool { return k == Sturdy }

// HalvesCP reports whether positive CP costs are halved (rounded up).
func (k Kind) HalvesCP() bool { return k == Pliant }

// SuccessBonus is added to the success rate (percent) of probabilistic actions.
func (k Kind) SuccessBonus() int {
	if k == Centered {
		return 25
	}
	return 0
}

// DurationBonus is added to the turns of effects granted under this condition.
func (k Kind) DurationBonus() int {
	if k == Primed {
		return 2
	}
	return 0
}
