package domain

// State is the dispatch state machine position.
type State string

const (
	StateIdle       State = "Idle"
	StateRequesting State = "Requesting"
	StateSuccess    State = "Success"
	StateError      State = "Error"
)

// Status describes the most recent dispatch. It is transient and
// overwritten on every dispatch, never persisted.
//
// CurrentKeyIndex and CooldownRemaining are carried fields for future
// multi-key rotation; nothing computes them yet and they always hold their
// zero values.
type Status struct {
	State             State   `json:"state"`
	LatencySec        float64 `json:"latencySec"`
	CurrentKeyIndex   int     `json:"currentKeyIndex"`
	ErrorMsg          string  `json:"errorMsg,omitempty"`
	CooldownRemaining int     `json:"cooldownRemaining"`
}
