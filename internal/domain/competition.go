package domain

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a competition. Transitions are monotonic:
// upcoming → open → locked → settled, never backwards.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOpen     Status = "open"
	StatusLocked   Status = "locked"
	StatusSettled  Status = "settled"
)

// rank orders statuses along the lifecycle. Unknown statuses rank below upcoming.
func (s Status) rank() int {
	switch s {
	case StatusUpcoming:
		return 0
	case StatusOpen:
		return 1
	case StatusLocked:
		return 2
	case StatusSettled:
		return 3
	}
	return -1
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool { return s == StatusSettled }

// CanTransition reports whether moving from s to next is a single forward step.
func (s Status) CanTransition(next Status) bool {
	return s.rank() >= 0 && next.rank() == s.rank()+1
}

// ScoringMode selects the settlement algorithm for a competition.
type ScoringMode string

const (
	ScoringAccuracy    ScoringMode = "accuracy"
	ScoringPnL         ScoringMode = "pnl"
	ScoringAdversarial ScoringMode = "adversarial"
)

// Competition is a single short-lived prediction round.
// StartTime, LockTime and SettleTime are fixed at creation and never mutated.
type Competition struct {
	ID         string
	Slug       string // unique, human-readable
	Title      string
	Market     string // e.g. "BTCUSDT"
	Scoring    ScoringMode
	Status     Status
	StartTime  time.Time
	LockTime   time.Time
	SettleTime time.Time
	FeeRate    float64
	BasePayout float64 // accuracy-mode symmetric payoff before confidence weighting
	Outcome    string  // set once settled; empty before
	// DuelAgentA/B are set only for adversarial rounds.
	DuelAgentA string
	DuelAgentB string
}

// Validate checks the creation-time invariants of a competition.
func (c Competition) Validate() error {
	if c.Slug == "" {
		return fmt.Errorf("domain.Competition: empty slug")
	}
	if c.Market == "" {
		return fmt.Errorf("domain.Competition: %s: empty market", c.Slug)
	}
	if c.LockTime.Before(c.StartTime) {
		return fmt.Errorf("domain.Competition: %s: lock_time before start_time", c.Slug)
	}
	if c.SettleTime.Before(c.LockTime) {
		return fmt.Errorf("domain.Competition: %s: settle_time before lock_time", c.Slug)
	}
	switch c.Scoring {
	case ScoringAccuracy, ScoringPnL, ScoringAdversarial:
	default:
		return fmt.Errorf("domain.Competition: %s: unknown scoring mode %q", c.Slug, c.Scoring)
	}
	if c.Scoring == ScoringAdversarial && (c.DuelAgentA == "" || c.DuelAgentB == "") {
		return fmt.Errorf("domain.Competition: %s: adversarial round needs two agents", c.Slug)
	}
	return nil
}
