package domain

import (
	"math"

	"github.com/aretw0/artisan/pkg/condition"
)

// StepLimit is the largest step count a State can record.
const StepLimit = 255

// StatLimit caps CP, durability and the base stats. Gains are computed in
// uint64 and stay far from overflow below it.
const StatLimit = 1 << 20

// Settings is the process configuration. It is immutable for the duration
// of a solve.
type Settings struct {
	MaxCP          int `json:"max_cp" yaml:"max_cp" mapstructure:"max_cp"`
	MaxDurability  int `json:"max_durability" yaml:"max_durability" mapstructure:"max_durability"`
	ProgressTarget int `json:"progress_target" yaml:"progress_target" mapstructure:"progress_target"`
	// QualityTarget is also the ceiling quality is clamped to.
	QualityTarget  int `json:"quality_target" yaml:"quality_target" mapstructure:"quality_target"`
	InitialQuality int `json:"initial_quality,omitempty" yaml:"initial_quality,omitempty" mapstructure:"initial_quality"`

	// BaseProgress and BaseQuality are the stat multipliers a 100% potency action yields.
	BaseProgress int `json:"base_progress" yaml:"base_progress" mapstructure:"base_progress"`
	BaseQuality  int `json:"base_quality" yaml:"base_quality" mapstructure:"base_quality"`

	// JobLevel selects level-gated actions and potency upgrades. Zero means max level.
	JobLevel int `json:"job_level,omitempty" yaml:"job_level,omitempty" mapstructure:"job_level"`

	Tier             condition.Tier `json:"tier" yaml:"tier" mapstructure:"tier"`
	InitialCondition condition.Kind `json:"initial_condition" yaml:"initial_condition" mapstructure:"initial_condition"`

	// Allowed restricts the usable actions. Zero means every catalog action.
	Allowed ActionMask `json:"allowed,omitempty" yaml:"allowed,omitempty" mapstructure:"allowed"`

	// MaxSteps bounds macro length. Zero means StepLimit.
	MaxSteps int `json:"max_steps,omitempty" yaml:"max_steps,omitempty" mapstructure:"max_steps"`

	// AllowProbabilistic lets searches use actions that may fail, assuming success.
	AllowProbabilistic bool `json:"allow_probabilistic,omitempty" yaml:"allow_probabilistic,omitempty" mapstructure:"allow_probabilistic"`
}

// StepBudget returns the effective macro length limit.
func (s Settings) StepBudget() uint8 {
	if s.MaxSteps <= 0 || s.MaxSteps > StepLimit {
		return StepLimit
	}
	return uint8(s.MaxSteps)
}

// Validate rejects malformed configuration before any simulation runs.
func (s Settings) Validate() error {
	var errs []error
	check := func(ok bool, key, reason string, value any) {
		if !ok {
			errs = append(errs, &ValidationError{Key: key, Reason: reason, Value: value})
		}
	}

	check(s.MaxCP >= 0, "max_cp", "must not be negative", s.MaxCP)
	check(s.MaxCP <= StatLimit, "max_cp", "is unreasonably large", s.MaxCP)
	check(s.MaxDurability > 0, "max_durability", "must be positive", s.MaxDurability)
	check(s.MaxDurability <= StatLimit, "max_durability", "is unreasonably large", s.MaxDurability)
	check(s.ProgressTarget > 0, "progress_target", "must be positive", s.ProgressTarget)
	check(int64(s.ProgressTarget) <= math.MaxUint32, "progress_target", "must fit in 32 bits", s.ProgressTarget)
	check(s.QualityTarget > 0, "quality_target", "must be positive", s.QualityTarget)
	check(int64(s.QualityTarget) <= math.MaxUint32, "quality_target", "must fit in 32 bits", s.QualityTarget)
	check(s.InitialQuality >= 0, "initial_quality", "must not be negative", s.InitialQuality)
	check(s.InitialQuality <= s.QualityTarget, "initial_quality", "exceeds quality_target", s.InitialQuality)
	check(s.BaseProgress > 0, "base_progress", "must be positive", s.BaseProgress)
	check(s.BaseProgress <= StatLimit, "base_progress", "is unreasonably large", s.BaseProgress)
	check(s.BaseQuality >= 0, "base_quality", "must not be negative", s.BaseQuality)
	check(s.BaseQuality <= StatLimit, "base_quality", "is unreasonably large", s.BaseQuality)
	check(s.JobLevel >= 0 && s.JobLevel <= 100, "job_level", "must be between 0 and 100", s.JobLevel)
	check(s.MaxSteps >= 0, "max_steps", "must not be negative", s.MaxSteps)

	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: errs}
}
