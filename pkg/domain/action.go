package domain

import (
	"encoding/json"
	"fmt"
	"math/bits"

	"github.com/aretw0/artisan/pkg/condition"
)

// ActionID indexes an action in a resolved catalog.
type ActionID uint8

// MaxActions is the largest catalog an ActionMask can address.
const MaxActions = 64

// ActionMask is a set of ActionIDs.
type ActionMask uint64

// MaskOf builds a mask from ids.
func MaskOf(ids ...ActionID) ActionMask {
	var m ActionMask
	for _, id := range ids {
		m |= 1 << id
	}
	return m
}

func (m ActionMask) Has(id ActionID) bool { return m&(1<<id) != 0 }
func (m ActionMask) With(id ActionID) ActionMask { return m | 1<<id }
func (m ActionMask) Without(id ActionID) ActionMask { return m &^ (1 << id) }
func (m ActionMask) Len() int { return bits.OnesCount64(uint64(m)) }

// IDs lists the members in ascending order.
func (m ActionMask) IDs() []ActionID {
	out := make([]ActionID, 0, m.Len())
	for m != 0 {
		id := ActionID(bits.TrailingZeros64(uint64(m)))
		out = append(out, id)
		m &^= 1 << id
	}
	return out
}

// Macro is an ordered action sequence.
type Macro []ActionID

// Clone returns an independent copy.
func (m Macro) Clone() Macro {
	out := make(Macro, len(m))
	copy(out, m)
	return out
}

// MarshalJSON encodes the macro as a list of ids rather than base64.
func (m Macro) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ints())
}

func (m *Macro) UnmarshalJSON(data []byte) error {
	var ids []ActionID
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	for _, v := range ints {
		if v < 0 || v >= MaxActions {
			return fmt.Errorf("action id %d out of range", v)
		}
		ids = append(ids, ActionID(v))
	}
	*m = ids
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (m Macro) MarshalYAML() (any, error) {
	return m.ints(), nil
}

func (m Macro) ints() []int {
	out := make([]int, len(m))
	for i, id := range m {
		out[i] = int(id)
	}
	return out
}

// Roll carries the randomness consumed by one transition: Outcome decides
// probabilistic actions (success when below rate*100) and Condition selects
// the next condition. The zero Roll is the baseline: certain success and the
// first entry of every transition row.
type Roll struct {
	Outcome   uint16         `json:"outcome"`
	Condition condition.Roll `json:"condition"`
}
