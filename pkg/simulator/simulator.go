// Package simulator implements the deterministic process transition function.
//
// A Simulator binds immutable settings to a resolved catalog. Apply never draws
// randomness itself: the caller supplies a domain.Roll per step, so a macro and
// its recorded rolls always replay to the same terminal state.
package simulator

import (
	"fmt"
	"math"
	"slices"

	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/condition"
	"github.com/aretw0/artisan/pkg/domain"
)

// manipulationRestore is the durability Manipulation restores per step.
const manipulationRestore = 5

// Simulator applies catalog actions to process states.
type Simulator struct {
	settings domain.Settings
	catalog  *catalog.Catalog
	allowed  domain.ActionMask
	budget   uint8

	progressTarget uint32
	qualityTarget  uint32
	relaxed        bool
}

// New validates the settings and resolves the catalog at the configured job level.
func New(settings domain.Settings, c *catalog.Catalog) (*Simulator, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		c = catalog.Default()
	}
	level := settings.JobLevel
	if level == 0 {
		level = catalog.MaxLevel
	}
	if c.Level() != level {
		c = c.Resolve(level)
	}

	allowed := c.Mask()
	if settings.Allowed != 0 {
		allowed &= settings.Allowed
	}

	return &Simulator{
		settings:       settings,
		catalog:        c,
		allowed:        allowed,
		budget:         settings.StepBudget(),
		progressTarget: uint32(settings.ProgressTarget),
		qualityTarget:  uint32(settings.QualityTarget),
	}, nil
}

// Relaxed returns a simulator that never clamps quality or CP, never
// completes and ignores the step budget. Bound estimation uses it to measure
// raw gains.
func (s *Simulator) Relaxed() *Simulator {
	r := *s
	r.progressTarget = math.MaxUint32
	r.qualityTarget = math.MaxUint32
	r.budget = domain.StepLimit
	r.relaxed = true
	return &r
}

// Settings returns the bound configuration.
func (s *Simulator) Settings() domain.Settings { return s.settings }

// Catalog returns the resolved catalog.
func (s *Simulator) Catalog() *catalog.Catalog { return s.catalog }

// Allowed is the set of actions usable in this process.
func (s *Simulator) Allowed() domain.ActionMask { return s.allowed }

// Action returns the resolved definition of id.
func (s *Simulator) Action(id domain.ActionID) *catalog.Action { return s.catalog.Action(id) }

// Initial builds the starting state of the process.
func (s *Simulator) Initial() domain.State {
	return domain.State{
		Durability: int32(s.settings.MaxDurability),
		CP:         int32(s.settings.MaxCP),
		Quality:    uint32(s.settings.InitialQuality),
		Combo:      domain.ComboSynthesisBegin,
		Condition:  s.settings.InitialCondition,
	}
}

// Apply performs one transition. An unmet precondition returns the unchanged
// state and an error wrapping domain.ErrIllegalAction.
func (s *Simulator) Apply(st domain.State, id domain.ActionID, roll domain.Roll) (domain.State, error) {
	if err := s.Legal(st, id); err != nil {
		return st, err
	}
	return s.transition(st, s.catalog.Action(id), roll), nil
}

// Legal checks the preconditions of id in st.
func (s *Simulator) Legal(st domain.State, id domain.ActionID) error {
	if int(id) >= s.catalog.Len() {
		return &domain.IllegalActionError{Action: fmt.Sprintf("#%d", id), Reason: "not in catalog", Cause: domain.ErrUnknownAction}
	}
	a := s.catalog.Action(id)
	illegal := func(reason string) error {
		return &domain.IllegalActionError{Action: a.Name, Reason: reason}
	}

	switch {
	case st.Terminal():
		return &domain.IllegalActionError{Action: a.Name, Reason: "process is " + st.Outcome.String(), Cause: domain.ErrTerminalState}
	case !s.allowed.Has(id):
		return illegal("not available")
	case st.Step >= s.budget:
		return illegal("step limit reached")
	case a.FirstStep && st.Combo != domain.ComboSynthesisBegin:
		return illegal("only usable as the first step")
	case len(a.RequiresCombo) > 0 && !slices.Contains(a.RequiresCombo, st.Combo):
		return illegal("requires combo after " + joinCombos(a.RequiresCombo))
	case slices.Contains(a.ForbidsCombo, st.Combo):
		return illegal("cannot follow " + st.Combo.String())
	case !a.ConditionAllowed(st.Condition) && !st.Effects.Active(domain.HeartAndSoul):
		return illegal("requires condition " + joinConditions(a.RequiresCondition))
	case a.SingleUse != nil && st.Effects[*a.SingleUse] != domain.Available:
		return illegal("already used")
	case a.NoWasteNot && st.Effects.Active(domain.WasteNot):
		return illegal("unusable while waste_not is active")
	case int(st.Effects[domain.InnerQuiet]) < a.MinInnerQuiet:
		return illegal(fmt.Sprintf("requires %d inner_quiet stacks", a.MinInnerQuiet))
	case int(st.Durability) < a.MinDurability:
		return illegal(fmt.Sprintf("requires %d durability", a.MinDurability))
	case int(st.CP) < a.MinCP:
		return illegal(fmt.Sprintf("requires %d CP", a.MinCP))
	}
	for _, k := range a.RequiresInactive {
		if st.Effects.Active(k) {
			return illegal("requires " + k.String() + " inactive")
		}
	}
	if cost := s.CPCost(st, a); cost > st.CP {
		return illegal(fmt.Sprintf("needs %d CP, has %d", cost, st.CP))
	}
	return nil
}

// CPCost is the CP a given action costs in st. Negative values restore CP.
func (s *Simulator) CPCost(st domain.State, a *catalog.Action) int32 {
	cost := a.CP
	if link, ok := a.Link(st.Combo); ok && link.CP != nil {
		cost = *link.CP
	}
	if cost > 0 && st.Condition.HalvesCP() {
		cost = (cost + 1) / 2
	}
	return int32(cost)
}

// DurabilityCost is the durability a given action consumes in st.
func (s *Simulator) DurabilityCost(st domain.State, a *catalog.Action) int32 {
	cost := int32(a.Durability)
	if cost == 0 || st.Effects.Active(domain.TrainedPerfection) {
		return 0
	}
	if st.Effects.Active(domain.WasteNot) {
		cost = (cost + 1) / 2
	}
	if st.Condition.HalvesDurability() {
		cost = (cost + 1) / 2
	}
	return cost
}

// Succeeds resolves a probabilistic action against the roll.
func (s *Simulator) Succeeds(st domain.State, a *catalog.Action, roll domain.Roll) bool {
	if !a.Probabilistic() {
		return true
	}
	rate := a.SuccessRate + st.Condition.SuccessBonus()
	return int(roll.Outcome) < rate*100
}

func (s *Simulator) transition(st domain.State, a *catalog.Action, roll domain.Roll) domain.State {
	next := st
	success := s.Succeeds(st, a, roll)

	next.CP = st.CP - s.CPCost(st, a)
	if !s.relaxed {
		next.CP = min(next.CP, int32(s.settings.MaxCP))
	}

	durCost := s.DurabilityCost(st, a)
	if success && a.Progress > 0 {
		next.Progress = addCapped(st.Progress, s.progressGain(st, a, durCost), s.progressTarget)
	}
	if success && a.Quality > 0 {
		next.Quality = addCapped(st.Quality, s.qualityGain(st, a), s.qualityTarget)
	}

	next.Durability = st.Durability - durCost

	next.Effects = s.effects(st, &next, a, success)
	next.Combo = a.SetsCombo
	if link, ok := a.Link(st.Combo); ok && link.Sets != domain.ComboNone {
		next.Combo = link.Sets
	}

	next.Condition = condition.Next(st.Condition, s.settings.Tier, roll.Condition)
	next.Step = st.Step + 1
	next.Outcome = s.outcome(next)
	return next
}

func (s *Simulator) effects(st domain.State, next *domain.State, a *catalog.Action, success bool) domain.Effects {
	before := st.Effects
	_, grantsManipulation := a.GrantTurns(domain.Manipulation)
	maxDur := int32(s.settings.MaxDurability)

	if before.Active(domain.Manipulation) && next.Durability > 0 && !grantsManipulation {
		next.Durability = min(next.Durability+manipulationRestore, maxDur)
	}

	eff := before.Tick()
	if success && a.Quality > 0 {
		eff[domain.GreatStrides] = 0
	}
	if success && a.Progress > 0 {
		eff[domain.MuscleMemory] = 0
	}
	if a.ConsumesInnerQuiet {
		eff[domain.InnerQuiet] = 0
	}
	if before.Active(domain.TrainedPerfection) && a.Durability > 0 {
		eff[domain.TrainedPerfection] = domain.Spent
	}
	if before.Active(domain.HeartAndSoul) && !a.ConditionAllowed(st.Condition) {
		eff[domain.HeartAndSoul] = domain.Spent
	}

	if success {
		stacks := a.InnerQuiet
		if link, ok := a.Link(st.Combo); ok && link.InnerQuiet != nil {
			stacks = *link.InnerQuiet
		}
		eff[domain.InnerQuiet] = uint8(min(int(eff[domain.InnerQuiet])+stacks, domain.MaxInnerQuiet))
	}

	for _, g := range a.Grants {
		eff[g.Effect] = uint8(g.Turns + st.Condition.DurationBonus())
	}

	if a.RestoreFull {
		next.Durability = maxDur
	} else if a.Restore > 0 {
		next.Durability = min(next.Durability+int32(a.Restore), maxDur)
	}

	if a.SingleUse != nil {
		eff[*a.SingleUse] = domain.Active
	}
	return eff
}

// progressGain is base × potency × buffs × condition, floored once.
func (s *Simulator) progressGain(st domain.State, a *catalog.Action, durCost int32) uint32 {
	potency := uint64(a.Progress)
	if a.LowDurabilityHalf && st.Durability < durCost {
		potency /= 2
	}
	buff := uint64(100)
	if st.Effects.Active(domain.Veneration) {
		buff += 50
	}
	if st.Effects.Active(domain.MuscleMemory) {
		buff += 100
	}
	gain := uint64(s.settings.BaseProgress) * potency * buff * st.Condition.ProgressPercent() / 1_000_000
	return uint32(min(gain, math.MaxUint32))
}

// qualityGain applies InnerQuiet (+10% per stack), Innovation, GreatStrides
// and the condition multiplier on top of the action potency.
func (s *Simulator) qualityGain(st domain.State, a *catalog.Action) uint32 {
	iq := uint64(st.Effects[domain.InnerQuiet])
	potency := uint64(a.Quality) + uint64(a.InnerQuietPotency)*iq
	buff := uint64(100)
	if st.Effects.Active(domain.Innovation) {
		buff += 50
	}
	if st.Effects.Active(domain.GreatStrides) {
		buff += 100
	}
	gain := uint64(s.settings.BaseQuality) * potency * (100 + 10*iq) * buff * st.Condition.QualityPercent() / 100_000_000
	return uint32(min(gain, math.MaxUint32))
}

func (s *Simulator) outcome(st domain.State) domain.Outcome {
	switch {
	case !s.relaxed && st.Progress >= s.progressTarget:
		return domain.Completed
	case st.Durability <= 0:
		return domain.Failed
	default:
		return domain.Ongoing
	}
}

func addCapped(v, delta, ceiling uint32) uint32 {
	sum := uint64(v) + uint64(delta)
	return uint32(min(sum, uint64(ceiling)))
}

func joinCombos(cs []domain.Combo) string {
	out := ""
	for i, c := range cs {
		if i > 0 {
			out += "|"
		}
		out += c.String()
	}
	return out
}

func joinConditions(ks []condition.Kind) string {
	out := ""
	for i, k := range ks {
		if i > 0 {
			out += "|"
		}
		out += k.String()
	}
	return out
}
