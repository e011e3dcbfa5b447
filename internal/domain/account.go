package domain

import "time"

// Position is an open paper position in one symbol.
type Position struct {
	Size     float64
	AvgPrice float64 // volume-weighted average entry price
}

// Account is the persisted snapshot of an agent's paper trading book
// within one competition.
type Account struct {
	AgentID       string
	CompetitionID string
	Cash          float64
	Positions     map[string]Position
	Equity        float64
	UpdatedAt     time.Time
}
