package domain

import "time"

// Score orders completed macros: higher quality first, then fewer steps,
// then shorter duration.
type Score struct {
	Quality  uint32 `json:"quality"`
	Steps    uint8  `json:"steps"`
	Duration uint16 `json:"duration"`
}

// Better reports whether s strictly beats o.
func (s Score) Better(o Score) bool {
	return s.Key() > o.Key()
}

// Key packs the score into an integer that sorts in score order.
func (s Score) Key() uint64 {
	return uint64(s.Quality)<<24 | uint64(StepLimit-s.Steps)<<16 | uint64(^s.Duration)
}

// Stats summarises the work a solve performed.
type Stats struct {
	Nodes       uint64        `json:"nodes"`
	Pruned      uint64        `json:"pruned"`
	Generations int           `json:"generations,omitempty"`
	TableSize   int           `json:"table_size,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Result is the outcome of a solve.
type Result struct {
	SessionID string   `json:"session_id"`
	Macro     Macro    `json:"macro"`
	Actions   []string `json:"actions"`
	Rolls     []Roll   `json:"rolls,omitempty"`
	State     State    `json:"state"`
	Score     Score    `json:"score"`
	Strategy  string   `json:"strategy,omitempty"`

	// Feasible is false when the progress target was proven unreachable.
	Feasible bool `json:"feasible"`
	// Found is false when no completing macro was discovered.
	Found bool `json:"found"`
	// Optimal is true when an exhaustive strategy ran to completion.
	Optimal bool `json:"optimal"`
	// Cancelled is true when the caller stopped the solve early.
	Cancelled bool `json:"cancelled"`
	// Cached is true when the result was read from a macro store.
	Cached bool `json:"cached,omitempty"`

	Stats Stats `json:"stats"`
}

// Record is a cached solve.
type Record struct {
	Key       string    `json:"key"`
	Settings  Settings  `json:"settings"`
	Result    Result    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
	// Sealed holds the encrypted record when the store encrypts at rest.
	Sealed string `json:"sealed,omitempty"`
}
