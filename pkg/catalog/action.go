package catalog

import (
	"slices"

	"github.com/aretw0/artisan/pkg/condition"
	"github.com/aretw0/artisan/pkg/domain"
)

// Grant is an effect applied by an action.
type Grant struct {
	Effect domain.EffectKind `yaml:"effect" json:"effect"`
	Turns  int               `yaml:"turns" json:"turns"`
}

// ComboLink changes an action's behaviour when it follows a combo token.
type ComboLink struct {
	After domain.Combo `yaml:"after" json:"after"`
	// CP replaces the base cost when set.
	CP *int `yaml:"cp,omitempty" json:"cp,omitempty"`
	// Sets is the token left behind instead of the action's default.
	Sets domain.Combo `yaml:"sets,omitempty" json:"sets,omitempty"`
	// InnerQuiet replaces the stacks gained when set.
	InnerQuiet *int `yaml:"inner_quiet,omitempty" json:"inner_quiet,omitempty"`
}

// Upgrade overrides potency or cost from a job level onwards.
type Upgrade struct {
	Level    int  `yaml:"level" json:"level"`
	Progress *int `yaml:"progress,omitempty" json:"progress,omitempty"`
	Quality  *int `yaml:"quality,omitempty" json:"quality,omitempty"`
	CP       *int `yaml:"cp,omitempty" json:"cp,omitempty"`
}

// Action is the immutable effect table of one catalog entry.
type Action struct {
	ID    domain.ActionID `yaml:"-" json:"id"`
	Name  string          `yaml:"name" json:"name"`
	// Label is the in-game display name used in macro text.
	Label string `yaml:"label" json:"label,omitempty"`
	Level int    `yaml:"level" json:"level"`

	CP         int `yaml:"cp" json:"cp"`
	Durability int `yaml:"durability" json:"durability"`
	// Progress and Quality are potencies in percent of the base stats.
	Progress int `yaml:"progress" json:"progress"`
	Quality  int `yaml:"quality" json:"quality"`
	// SuccessRate in percent; zero means the action always succeeds.
	SuccessRate int `yaml:"success_rate" json:"success_rate,omitempty"`
	// Time is the in-game wait in seconds, used for macro duration.
	Time int `yaml:"time" json:"time"`

	MinCP             int                 `yaml:"min_cp" json:"min_cp,omitempty"`
	MinDurability     int                 `yaml:"min_durability" json:"min_durability,omitempty"`
	MinInnerQuiet     int                 `yaml:"min_inner_quiet" json:"min_inner_quiet,omitempty"`
	FirstStep         bool                `yaml:"first_step" json:"first_step,omitempty"`
	RequiresCombo     []domain.Combo      `yaml:"requires_combo" json:"requires_combo,omitempty"`
	ForbidsCombo      []domain.Combo      `yaml:"forbids_combo" json:"forbids_combo,omitempty"`
	RequiresCondition []condition.Kind    `yaml:"requires_condition" json:"requires_condition,omitempty"`
	RequiresInactive  []domain.EffectKind `yaml:"requires_inactive" json:"requires_inactive,omitempty"`
	NoWasteNot        bool                `yaml:"no_waste_not" json:"no_waste_not,omitempty"`
	SingleUse         *domain.EffectKind  `yaml:"single_use" json:"single_use,omitempty"`

	Grants             []Grant      `yaml:"grants" json:"grants,omitempty"`
	Restore            int          `yaml:"restore" json:"restore,omitempty"`
	RestoreFull        bool         `yaml:"restore_full" json:"restore_full,omitempty"`
	SetsCombo          domain.Combo `yaml:"sets_combo" json:"sets_combo,omitempty"`
	Combo              []ComboLink  `yaml:"combo" json:"combo,omitempty"`
	InnerQuiet         int          `yaml:"inner_quiet" json:"inner_quiet,omitempty"`
	ConsumesInnerQuiet bool         `yaml:"consumes_inner_quiet" json:"consumes_inner_quiet,omitempty"`
	InnerQuietPotency  int          `yaml:"inner_quiet_potency" json:"inner_quiet_potency,omitempty"`
	LowDurabilityHalf  bool         `yaml:"low_durability_half" json:"low_durability_half,omitempty"`

	Upgrades []Upgrade `yaml:"upgrades" json:"upgrades,omitempty"`
}

// Probabilistic reports whether the action may fail.
func (a *Action) Probabilistic() bool {
	return a.SuccessRate > 0 && a.SuccessRate < 100
}

// Link returns the combo link matching the token, if any.
func (a *Action) Link(c domain.Combo) (ComboLink, bool) {
	for _, l := range a.Combo {
		if l.After == c {
			return l, true
		}
	}
	return ComboLink{}, false
}

// GrantTurns reports the turns granted for an effect.
func (a *Action) GrantTurns(k domain.EffectKind) (int, bool) {
	for _, g := range a.Grants {
		if g.Effect == k {
			return g.Turns, true
		}
	}
	return 0, false
}

// RestoresDurability reports whether the action exists to recover durability.
func (a *Action) RestoresDurability() bool {
	if a.Restore > 0 || a.RestoreFull {
		return true
	}
	_, ok := a.GrantTurns(domain.Manipulation)
	return ok
}

// SparesDurability reports whether the action reduces future durability costs.
func (a *Action) SparesDurability() bool {
	if _, ok := a.GrantTurns(domain.WasteNot); ok {
		return true
	}
	return a.SingleUse != nil && *a.SingleUse == domain.TrainedPerfection
}

// Gated reports whether the action needs a favourable condition.
func (a *Action) Gated() bool {
	return len(a.RequiresCondition) > 0
}

// ConditionAllowed reports whether the condition satisfies the requirement.
func (a *Action) ConditionAllowed(k condition.Kind) bool {
	return len(a.RequiresCondition) == 0 || slices.Contains(a.RequiresCondition, k)
}

// MinCPCost is the cheapest CP cost over all combo links.
func (a *Action) MinCPCost() int {
	low := a.CP
	for _, l := range a.Combo {
		if l.CP != nil && *l.CP < low {
			low = *l.CP
		}
	}
	return low
}

func (a *Action) resolve(level int) Action {
	out := *a
	for _, u := range a.Upgrades {
		if level < u.Level {
			continue
		}
		if u.Progress != nil {
			out.Progress = *u.Progress
		}
		if u.Quality != nil {
			out.Quality = *u.Quality
		}
		if u.CP != nil {
			out.CP = *u.CP
		}
	}
	out.Upgrades = nil
	if out.Time == 0 {
		out.Time = 3
	}
	return out
}
