package simulator

import (
	"fmt"

	"github.com/aretw0/artisan/pkg/domain"
)

// Step is one entry of a Trace.
type Step struct {
	Index  int             `json:"index"`
	Action domain.ActionID `json:"action"`
	Name   string          `json:"name"`
	Roll   domain.Roll     `json:"roll"`
	State  domain.State    `json:"state"`
}

// rollAt returns the recorded roll for step i, or the baseline roll.
func rollAt(rolls []domain.Roll, i int) domain.Roll {
	if i < len(rolls) {
		return rolls[i]
	}
	return domain.Roll{}
}

// Replay applies a macro from the initial state. Missing rolls are baseline.
func (s *Simulator) Replay(macro domain.Macro, rolls []domain.Roll) (domain.State, error) {
	st := s.Initial()
	for i, id := range macro {
		next, err := s.Apply(st, id, rollAt(rolls, i))
		if err != nil {
			return st, fmt.Errorf("step %d: %w", i+1, err)
		}
		st = next
	}
	return st, nil
}

// Trace replays a macro and records every intermediate state. On an illegal
// step the trace up to that point is returned together with the error.
func (s *Simulator) Trace(macro domain.Macro, rolls []domain.Roll) ([]Step, error) {
	st := s.Initial()
	steps := make([]Step, 0, len(macro)+1)
	steps = append(steps, Step{Index: 0, State: st})
	for i, id := range macro {
		roll := rollAt(rolls, i)
		next, err := s.Apply(st, id, roll)
		if err != nil {
			return steps, fmt.Errorf("step %d: %w", i+1, err)
		}
		st = next
		steps = append(steps, Step{
			Index:  i + 1,
			Action: id,
			Name:   s.catalog.Action(id).Name,
			Roll:   roll,
			State:  st,
		})
	}
	return steps, nil
}

// Score ranks a finished macro.
func (s *Simulator) Score(st domain.State, macro domain.Macro) domain.Score {
	return domain.Score{
		Quality:  st.Quality,
		Steps:    st.Step,
		Duration: uint16(min(s.catalog.Duration(macro), 0xffff)),
	}
}
