package domain

import (
	"fmt"
	"strings"
	"time"
)

// Action is an agent's single-shot decision for a round. The set is closed:
// unknown actions are rejected at the boundary, never scored as zero.
type Action string

const (
	ActionLong  Action = "LONG"
	ActionShort Action = "SHORT"
	ActionHold  Action = "HOLD"
	ActionWait  Action = "WAIT"
)

// ParseAction normalizes a raw action string, accepting the legacy
// OPEN_LONG/OPEN_SHORT spellings still emitted by older agents.
func ParseAction(raw string) (Action, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LONG", "OPEN_LONG":
		return ActionLong, nil
	case "SHORT", "OPEN_SHORT":
		return ActionShort, nil
	case "HOLD":
		return ActionHold, nil
	case "WAIT":
		return ActionWait, nil
	}
	return "", fmt.Errorf("domain.ParseAction: unknown action %q", raw)
}

// Directional reports whether the action carries market exposure.
func (a Action) Directional() bool { return a == ActionLong || a == ActionShort }

// Submission is one agent's decision for one competition.
// At most one exists per (agent, competition) pair.
type Submission struct {
	ID            string
	CompetitionID string
	AgentID       string
	Action        Action
	Stake         float64
	Confidence    float64 // [0,1]
	SubmittedAt   time.Time
}

// Validate checks boundary invariants before a submission is accepted.
func (s Submission) Validate() error {
	if _, err := ParseAction(string(s.Action)); err != nil {
		return err
	}
	if s.Stake < 0 {
		return fmt.Errorf("domain.Submission: negative stake %.2f", s.Stake)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("domain.Submission: confidence %.2f outside [0,1]", s.Confidence)
	}
	return nil
}
