package domain

// Difficulty grades a checklist task.
type Difficulty string

const (
	DifficultySmall  Difficulty = "S"
	DifficultyMedium Difficulty = "M"
	DifficultyLarge  Difficulty = "L"
)

// ChecklistItem is one actionable step in a reframing card.
type ChecklistItem struct {
	Task       string     `json:"task"`
	Why        string     `json:"why"`
	Timebox    string     `json:"timebox"`
	Difficulty Difficulty `json:"difficulty"`
}

// ReframeCard is the structured insight the model is expected to produce:
// a reframe of the user's complaint, bright spots, effort directions, a
// three-step checklist and an encouragement. Absence of a card on an
// assistant message signals a parse failure, not an error state.
type ReframeCard struct {
	Title            string          `json:"title"`
	Reframe          string          `json:"reframe"`
	BrightSpots      []string        `json:"bright_spots"`
	EffortDirections []string        `json:"effort_directions"`
	Checklist        []ChecklistItem `json:"checklist"`
	Encouragement    string          `json:"encouragement"`
	NextQuestion     string          `json:"next_question"`
}
