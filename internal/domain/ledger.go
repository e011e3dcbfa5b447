package domain

import "time"

// EventType classifies a ledger event.
type EventType string

const (
	EventLock   EventType = "LOCK"
	EventUnlock EventType = "UNLOCK"
	EventSettle EventType = "SETTLE"
	EventFee    EventType = "FEE"
)

// LedgerEvent is an immutable, append-only record of a balance change.
// BalanceAfter caches the running balance immediately after the event;
// it must always equal the sum of amounts up to and including this event.
type LedgerEvent struct {
	ID            string
	AgentID       string
	CompetitionID string // empty for non-competition events
	Type          EventType
	Amount        float64 // signed
	BalanceAfter  float64
	CreatedAt     time.Time
}
