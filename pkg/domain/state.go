package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/artisan/pkg/condition"
)

// EffectKind identifies a buff tracked on the process state.
type EffectKind uint8

const (
	InnerQuiet EffectKind = iota
	WasteNot
	Veneration
	Innovation
	GreatStrides
	MuscleMemory
	Manipulation
	TrainedPerfection
	HeartAndSoul
	QuickInnovation

	NumEffects
)

// MaxInnerQuiet caps the InnerQuiet stack count.
const MaxInnerQuiet = 10

// Single-use effect states.
const (
	Available uint8 = 0
	Active    uint8 = 1
	Spent     uint8 = 2
)

var effectNames = [...]string{
	InnerQuiet:        "inner_quiet",
	WasteNot:          "waste_not",
	Veneration:        "veneration",
	Innovation:        "innovation",
	GreatStrides:      "great_strides",
	MuscleMemory:      "muscle_memory",
	Manipulation:      "manipulation",
	TrainedPerfection: "trained_perfection",
	HeartAndSoul:      "heart_and_soul",
	QuickInnovation:   "quick_innovation",
}

func (k EffectKind) String() string {
	if k < NumEffects {
		return effectNames[k]
	}
	return fmt.Sprintf("effect(%d)", k)
}

// ParseEffect resolves an effect name.
func ParseEffect(s string) (EffectKind, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, name := range effectNames {
		if name == key {
			return EffectKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown effect %q", s)
}

func (k EffectKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EffectKind) UnmarshalText(text []byte) error {
	parsed, err := ParseEffect(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Timed reports whether the effect counts down one turn per step.
func (k EffectKind) Timed() bool {
	switch k {
	case WasteNot, Veneration, Innovation, GreatStrides, MuscleMemory, Manipulation:
		return true
	}
	return false
}

// SingleUse reports whether the effect tracks a once-per-process action.
func (k EffectKind) SingleUse() bool {
	return k == TrainedPerfection || k == HeartAndSoul || k == QuickInnovation
}

// Effects holds, per effect kind, the remaining turns, the stack count
// (InnerQuiet) or the single-use state.
type Effects [NumEffects]uint8

// Active reports whether a timed or stacking effect is currently in force.
func (e Effects) Active(k EffectKind) bool {
	if k.SingleUse() {
		return e[k] == Active
	}
	return e[k] > 0
}

// Tick decrements every timed effect.
func (e Effects) Tick() Effects {
	for k := EffectKind(0); k < NumEffects; k++ {
		if k.Timed() && e[k] > 0 {
			e[k]--
		}
	}
	return e
}

// MarshalJSON encodes the non-zero entries keyed by effect name.
func (e Effects) MarshalJSON() ([]byte, error) {
	out := make(map[string]uint8)
	for k := EffectKind(0); k < NumEffects; k++ {
		if e[k] != 0 {
			out[k.String()] = e[k]
		}
	}
	return json.Marshal(out)
}

func (e *Effects) UnmarshalJSON(data []byte) error {
	var in map[string]uint8
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = Effects{}
	for name, v := range in {
		k, err := ParseEffect(name)
		if err != nil {
			return err
		}
		e[k] = v
	}
	return nil
}

// Combo is the chain token left by the previous action.
type Combo uint8

const (
	ComboNone Combo = iota
	// ComboSynthesisBegin marks the first step of a process.
	ComboSynthesisBegin
	ComboBasicTouch
	ComboStandardTouch
	ComboObserve
)

var comboNames = [...]string{
	ComboNone:           "none",
	ComboSynthesisBegin: "synthesis_begin",
	ComboBasicTouch:     "basic_touch",
	ComboStandardTouch:  "standard_touch",
	ComboObserve:        "observe",
}

func (c Combo) String() string {
	if int(c) < len(comboNames) {
		return comboNames[c]
	}
	return fmt.Sprintf("combo(%d)", c)
}

// ParseCombo resolves a combo token name.
func ParseCombo(s string) (Combo, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, name := range comboNames {
		if name == key {
			return Combo(i), nil
		}
	}
	return ComboNone, fmt.Errorf("unknown combo %q", s)
}

func (c Combo) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Combo) UnmarshalText(text []byte) error {
	parsed, err := ParseCombo(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Outcome is the terminal classification of a state.
type Outcome uint8

const (
	Ongoing Outcome = iota
	Completed
	Failed
)

var outcomeNames = [...]string{Ongoing: "ongoing", Completed: "completed", Failed: "failed"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", o)
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(text []byte) error {
	for i, name := range outcomeNames {
		if name == string(text) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// State is a snapshot of the process. It is a comparable value; two states
// reached through different action orders are interchangeable when their
// fingerprints match.
type State struct {
	Durability int32          `json:"durability"`
	CP         int32          `json:"cp"`
	Progress   uint32         `json:"progress"`
	Quality    uint32         `json:"quality"`
	Step       uint8          `json:"step"`
	Effects    Effects        `json:"effects"`
	Combo      Combo          `json:"combo"`
	Condition  condition.Kind `json:"condition"`
	Outcome    Outcome        `json:"outcome"`
}

// Fingerprint identifies a state independently of how many steps led to it.
type Fingerprint State

// Fingerprint returns the canonical key of the state.
func (s State) Fingerprint() Fingerprint {
	s.Step = 0
	return Fingerprint(s)
}

// Terminal reports whether no further action may be applied.
func (s State) Terminal() bool {
	return s.Outcome != Ongoing
}
