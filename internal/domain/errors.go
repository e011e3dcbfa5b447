package domain

import "errors"

var (
	// ErrDuplicateSubmission rejects a second decision for the same
	// (agent, competition) pair. Duplicates are rejected, never merged.
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// ErrInvalidTransition rejects a competition status change that is not a
	// single forward step of the lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrAlreadySettled rejects settlement of a competition that has already
	// been settled. Settlement is exactly-once per competition.
	ErrAlreadySettled = errors.New("competition already settled")

	// ErrNotLocked rejects settlement of a competition that has not reached
	// the locked state yet.
	ErrNotLocked = errors.New("competition not locked")

	// ErrAwaitingDecision defers a duel whose counterpart has not submitted
	// and whose grace window has not elapsed.
	ErrAwaitingDecision = errors.New("awaiting duel decision")

	// ErrLedgerIntegrity signals that the cached running balance disagrees
	// with the derived sum. The affected operation must halt for audit.
	ErrLedgerIntegrity = errors.New("ledger balance integrity violation")

	// ErrOracleUnavailable signals that settlement prices or the outcome
	// could not be fetched; settlement is deferred, not abandoned.
	ErrOracleUnavailable = errors.New("price oracle unavailable")

	// ErrNotFound is returned by storage lookups for missing records.
	ErrNotFound = errors.New("not found")
)
