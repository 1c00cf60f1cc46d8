package dsl

import (
	"slices"

	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/condition"
	"github.com/aretw0/artisan/pkg/domain"
)

// ActionBuilder provides a fluent API for configuring an action.
type ActionBuilder struct {
	action catalog.Action
}

// Label sets the in-game name used in macro text.
func (a *ActionBuilder) Label(label string) *ActionBuilder {
	a.action.Label = label
	return a
}

// Level sets the job level the action is learned at.
func (a *ActionBuilder) Level(level int) *ActionBuilder {
	a.action.Level = level
	return a
}

// CP sets the CP cost.
func (a *ActionBuilder) CP(cp int) *ActionBuilder {
	a.action.CP = cp
	return a
}

// Durability sets the durability cost.
func (a *ActionBuilder) Durability(d int) *ActionBuilder {
	a.action.Durability = d
	return a
}

// Progress sets the progress potency in percent.
func (a *ActionBuilder) Progress(potency int) *ActionBuilder {
	a.action.Progress = potency
	return a
}

// Quality sets the quality potency in percent.
func (a *ActionBuilder) Quality(potency int) *ActionBuilder {
	a.action.Quality = potency
	return a
}

// SuccessRate sets the chance of success in percent.
func (a *ActionBuilder) SuccessRate(pct int) *ActionBuilder {
	a.action.SuccessRate = pct
	return a
}

// Time sets the macro wait in seconds.
func (a *ActionBuilder) Time(seconds int) *ActionBuilder {
	a.action.Time = seconds
	return a
}

// FirstStep restricts the action to the opening step.
func (a *ActionBuilder) FirstStep() *ActionBuilder {
	a.action.FirstStep = true
	return a
}

// Grants adds an effect applied for turns steps.
func (a *ActionBuilder) Grants(effect domain.EffectKind, turns int) *ActionBuilder {
	a.action.Grants = append(a.action.Grants, catalog.Grant{Effect: effect, Turns: turns})
	return a
}

// Restore sets the durability restored by the action.
func (a *ActionBuilder) Restore(d int) *ActionBuilder {
	a.action.Restore = d
	return a
}

// InnerQuiet sets the stacks gained on success.
func (a *ActionBuilder) InnerQuiet(stacks int) *ActionBuilder {
	a.action.InnerQuiet = stacks
	return a
}

// SetsCombo sets the combo token the action leaves behind.
func (a *ActionBuilder) SetsCombo(c domain.Combo) *ActionBuilder {
	a.action.SetsCombo = c
	return a
}

// RequiresCombo allows the action only after one of the tokens.
func (a *ActionBuilder) RequiresCombo(cs ...domain.Combo) *ActionBuilder {
	a.action.RequiresCombo = append(a.action.RequiresCombo, cs...)
	return a
}

// RequiresCondition allows the action only under one of the conditions.
func (a *ActionBuilder) RequiresCondition(ks ...condition.Kind) *ActionBuilder {
	a.action.RequiresCondition = append(a.action.RequiresCondition, ks...)
	return a
}

// Build returns a copy of the underlying catalog.Action.
func (a *ActionBuilder) Build() catalog.Action {
	out := a.action
	out.Grants = slices.Clone(a.action.Grants)
	out.RequiresCombo = slices.Clone(a.action.RequiresCombo)
	out.RequiresCondition = slices.Clone(a.action.RequiresCondition)
	return out
}
