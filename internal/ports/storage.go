package ports

import (
	"context"
	"time"

	"github.com/emarden/agentarena/internal/domain"
)

// Storage persists arena records. Competition and Agent rows support in-place
// field updates; Submission, Score and DuelResult are write-once.
type Storage interface {
	// Agents
	CreateAgent(ctx context.Context, a domain.Agent) error
	GetAgent(ctx context.Context, id string) (domain.Agent, error)
	ListAgents(ctx context.Context, activeOnly bool) ([]domain.Agent, error)
	UpdateAgentTrust(ctx context.Context, id string, score float64) error
	DeactivateAgent(ctx context.Context, id string) error

	// Competitions
	CreateCompetition(ctx context.Context, c domain.Competition) error
	GetCompetition(ctx context.Context, id string) (domain.Competition, error)
	ListCompetitionsByStatus(ctx context.Context, statuses ...domain.Status) ([]domain.Competition, error)
	// LatestStartTime returns the start time of the most recently created
	// competition, or ok=false when none exist.
	LatestStartTime(ctx context.Context) (t time.Time, ok bool, err error)
	// TransitionCompetition flips status from→to in one guarded update and
	// returns domain.ErrInvalidTransition if the stored status is not `from`.
	TransitionCompetition(ctx context.Context, id string, from, to domain.Status) error
	SetCompetitionOutcome(ctx context.Context, id, outcome string) error

	// Submissions — at most one per (agent, competition); duplicates return
	// domain.ErrDuplicateSubmission.
	SaveSubmission(ctx context.Context, s domain.Submission) error
	GetSubmissions(ctx context.Context, competitionID string) ([]domain.Submission, error)

	// Scores
	SaveScore(ctx context.Context, s domain.Score) error
	GetScores(ctx context.Context, competitionID string) ([]domain.Score, error)

	// Duels
	SaveDuelResult(ctx context.Context, d domain.DuelResult) error
	// GetDuelResult returns the recorded result for a competition,
	// or ok=false when the duel has none.
	GetDuelResult(ctx context.Context, competitionID string) (d domain.DuelResult, ok bool, err error)

	Close() error
}

// LedgerStore is the append-only event store backing the ledger service.
// Events are never mutated or deleted once appended.
type LedgerStore interface {
	AppendLedgerEvent(ctx context.Context, e domain.LedgerEvent) error
	// LastLedgerEvent returns the most recent event for the agent,
	// or ok=false when the agent has no events.
	LastLedgerEvent(ctx context.Context, agentID string) (e domain.LedgerEvent, ok bool, err error)
	// SumLedgerAmounts sums event amounts for the agent, optionally
	// restricted to one event type (empty type means all).
	SumLedgerAmounts(ctx context.Context, agentID string, eventType domain.EventType) (float64, error)
	// SettleAmountsSince returns SETTLE amounts for the agent created at or
	// after the cutoff, in chronological order.
	SettleAmountsSince(ctx context.Context, agentID string, since time.Time) ([]float64, error)
	LedgerEvents(ctx context.Context, agentID string) ([]domain.LedgerEvent, error)
}

// AccountStore persists per-agent paper trading books for live rounds.
type AccountStore interface {
	SaveAccount(ctx context.Context, a domain.Account) error
	GetAccount(ctx context.Context, agentID, competitionID string) (domain.Account, error)
}
