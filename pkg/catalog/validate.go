package catalog

import (
	"errors"
	"fmt"

	"github.com/aretw0/artisan/pkg/domain"
)

// MaxPotency caps action potencies so that gains computed in uint64 cannot
// overflow for any settings that pass validation.
const MaxPotency = 10_000

// validate checks structural rules a simulator relies on. Every action that
// is neither single-use nor condition-gated must consume CP or durability, so
// no sequence can loop forever without spending a budget.
func validate(actions []Action) error {
	var errs []error
	fail := func(i int, field, reason string, value any) {
		errs = append(errs, &domain.ValidationError{
			Key:    fmt.Sprintf("actions[%d].%s", i, field),
			Reason: reason,
			Value:  value,
		})
	}

	if len(actions) == 0 {
		errs = append(errs, &domain.ValidationError{Key: "actions", Reason: "must not be empty"})
	}
	if len(actions) > domain.MaxActions {
		errs = append(errs, &domain.ValidationError{
			Key:    "actions",
			Reason: fmt.Sprintf("at most %d actions are supported", domain.MaxActions),
			Value:  len(actions),
		})
	}

	seen := make(map[string]int, 2*len(actions))
	claim := func(i int, field, name string) {
		key := normalize(name)
		if prev, ok := seen[key]; ok && prev != i {
			fail(i, field, fmt.Sprintf("duplicates actions[%d]", prev), name)
			return
		}
		seen[key] = i
	}

	for i := range actions {
		a := &actions[i]
		if a.Name == "" {
			fail(i, "name", "is required", nil)
		} else {
			claim(i, "name", a.Name)
		}
		if a.Label != "" {
			claim(i, "label", a.Label)
		}
		if a.Level < 0 || a.Level > MaxLevel {
			fail(i, "level", fmt.Sprintf("must be between 0 and %d", MaxLevel), a.Level)
		}
		if a.SuccessRate < 0 || a.SuccessRate > 100 {
			fail(i, "success_rate", "must be between 0 and 100", a.SuccessRate)
		}
		for _, f := range []struct {
			name  string
			value int
		}{
			{"durability", a.Durability},
			{"progress", a.Progress},
			{"quality", a.Quality},
			{"time", a.Time},
			{"min_cp", a.MinCP},
			{"min_durability", a.MinDurability},
			{"min_inner_quiet", a.MinInnerQuiet},
			{"restore", a.Restore},
			{"inner_quiet_potency", a.InnerQuietPotency},
		} {
			if f.value < 0 {
				fail(i, f.name, "must not be negative", f.value)
			}
		}
		for _, f := range []struct {
			name  string
			value int
		}{
			{"progress", a.Progress},
			{"quality", a.Quality},
			{"inner_quiet_potency", a.InnerQuietPotency},
		} {
			if f.value > MaxPotency {
				fail(i, f.name, fmt.Sprintf("must not exceed %d", MaxPotency), f.value)
			}
		}
		if a.InnerQuiet < 0 || a.InnerQuiet > domain.MaxInnerQuiet {
			fail(i, "inner_quiet", fmt.Sprintf("must be between 0 and %d", domain.MaxInnerQuiet), a.InnerQuiet)
		}
		if a.CP < 0 && !a.Gated() {
			fail(i, "cp", "may only be negative on condition-gated actions", a.CP)
		}
		if a.SingleUse != nil && !a.SingleUse.SingleUse() {
			fail(i, "single_use", "is not a single-use effect", a.SingleUse.String())
		}
		for j, g := range a.Grants {
			if !g.Effect.Timed() {
				fail(i, fmt.Sprintf("grants[%d].effect", j), "is not a timed effect", g.Effect.String())
			}
			if g.Turns <= 0 || g.Turns > 200 {
				fail(i, fmt.Sprintf("grants[%d].turns", j), "must be between 1 and 200", g.Turns)
			}
		}
		for j, l := range a.Combo {
			if l.After == domain.ComboNone {
				fail(i, fmt.Sprintf("combo[%d].after", j), "is required", nil)
			}
			if l.CP != nil && *l.CP < 0 {
				fail(i, fmt.Sprintf("combo[%d].cp", j), "must not be negative", *l.CP)
			}
			if l.InnerQuiet != nil && (*l.InnerQuiet < 0 || *l.InnerQuiet > domain.MaxInnerQuiet) {
				fail(i, fmt.Sprintf("combo[%d].inner_quiet", j), "is out of range", *l.InnerQuiet)
			}
		}
		for j, u := range a.Upgrades {
			if u.Level <= 0 || u.Level > MaxLevel {
				fail(i, fmt.Sprintf("upgrades[%d].level", j), "is out of range", u.Level)
			}
			for _, p := range []*int{u.Progress, u.Quality} {
				if p != nil && (*p < 0 || *p > MaxPotency) {
					fail(i, fmt.Sprintf("upgrades[%d]", j), fmt.Sprintf("potency must be between 0 and %d", MaxPotency), *p)
				}
			}
		}
		if a.SingleUse == nil && !a.Gated() && a.MinCPCost() <= 0 && a.Durability <= 0 {
			fail(i, "cp", "actions must cost CP or durability", a.CP)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
}
