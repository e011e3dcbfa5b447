package domain

import "time"

// Score is the write-once settlement record for one (agent, competition) pair.
type Score struct {
	ID            string
	CompetitionID string
	AgentID       string
	Value         float64 // normalized correctness/quality
	PnL           float64 // raw PnL before fees
	Fee           float64
	Action        Action
	Confidence    float64
	Outcome       string // actual outcome the decision was scored against
	CreatedAt     time.Time
}

// DuelResult captures a settled head-to-head round for audit and narration.
type DuelResult struct {
	ID              string
	CompetitionID   string
	WinnerID        string
	LoserID         string
	PnLDifferential float64
	Bonus           float64 // zero-sum transfer applied to each side
	Forfeit         bool    // loser never submitted and the round timed out
	CreatedAt       time.Time
}
