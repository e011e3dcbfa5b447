package ledger

// ledger.go — the event-sourced cash ledger.
//
// Every balance-affecting action is one immutable event. An agent's balance
// is the sum of its event amounts; each event also carries the running
// balance after it was applied. Append is a read-modify-write, so appends
// for the same agent are serialized behind a per-agent mutex. Appends for
// different agents proceed in parallel.

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emarden/agentarena/internal/domain"
	"github.com/emarden/agentarena/internal/ports"
)

// balanceTolerance absorbs float64 accumulation noise when comparing the
// cached running balance against the derived sum.
const balanceTolerance = 1e-6

// Ledger appends and derives balances over an append-only event store.
type Ledger struct {
	store ports.LedgerStore
	now   func() time.Time

	mu     sync.Mutex
	agents map[string]*sync.Mutex // agentID → append lock
}

// New creates a Ledger over the given store.
func New(store ports.LedgerStore) *Ledger {
	return &Ledger{
		store:  store,
		now:    time.Now,
		agents: make(map[string]*sync.Mutex),
	}
}

// agentLock returns the append lock for one agent, creating it on first use.
func (l *Ledger) agentLock(agentID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.agents[agentID]
	if !ok {
		m = &sync.Mutex{}
		l.agents[agentID] = m
	}
	return m
}

// Balance returns the agent's current cash: the sum of all its event amounts.
func (l *Ledger) Balance(ctx context.Context, agentID string) (float64, error) {
	return l.store.SumLedgerAmounts(ctx, agentID, "")
}

// RealizedPnL returns the sum of the agent's SETTLE amounts.
func (l *Ledger) RealizedPnL(ctx context.Context, agentID string) (float64, error) {
	return l.store.SumLedgerAmounts(ctx, agentID, domain.EventSettle)
}

// Append records one balance-affecting event and returns it with the cached
// running balance filled in. Before writing it audits the previous cached
// balance against the derived sum; a mismatch halts the operation with
// domain.ErrLedgerIntegrity.
func (l *Ledger) Append(ctx context.Context, agentID, competitionID string, typ domain.EventType, amount float64) (domain.LedgerEvent, error) {
	lock := l.agentLock(agentID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := l.store.SumLedgerAmounts(ctx, agentID, "")
	if err != nil {
		return domain.LedgerEvent{}, fmt.Errorf("ledger.Append: derive balance for %s: %w", agentID, err)
	}

	last, ok, err := l.store.LastLedgerEvent(ctx, agentID)
	if err != nil {
		return domain.LedgerEvent{}, fmt.Errorf("ledger.Append: last event for %s: %w", agentID, err)
	}
	if ok && math.Abs(last.BalanceAfter-balance) > balanceTolerance {
		return domain.LedgerEvent{}, fmt.Errorf(
			"ledger.Append: agent %s cached balance %.6f != derived %.6f: %w",
			agentID, last.BalanceAfter, balance, domain.ErrLedgerIntegrity,
		)
	}

	event := domain.LedgerEvent{
		ID:            uuid.New().String(),
		AgentID:       agentID,
		CompetitionID: competitionID,
		Type:          typ,
		Amount:        amount,
		BalanceAfter:  balance + amount,
		CreatedAt:     l.now().UTC(),
	}
	if err := l.store.AppendLedgerEvent(ctx, event); err != nil {
		return domain.LedgerEvent{}, fmt.Errorf("ledger.Append: persist event for %s: %w", agentID, err)
	}
	return event, nil
}

// Audit verifies that the agent's cached running balance agrees with the
// derived sum of amounts.
func (l *Ledger) Audit(ctx context.Context, agentID string) error {
	lock := l.agentLock(agentID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := l.store.SumLedgerAmounts(ctx, agentID, "")
	if err != nil {
		return fmt.Errorf("ledger.Audit: derive balance for %s: %w", agentID, err)
	}
	last, ok, err := l.store.LastLedgerEvent(ctx, agentID)
	if err != nil {
		return fmt.Errorf("ledger.Audit: last event for %s: %w", agentID, err)
	}
	if ok && math.Abs(last.BalanceAfter-balance) > balanceTolerance {
		return fmt.Errorf(
			"ledger.Audit: agent %s cached balance %.6f != derived %.6f: %w",
			agentID, last.BalanceAfter, balance, domain.ErrLedgerIntegrity,
		)
	}
	return nil
}

// SettleWindow returns the agent's SETTLE amounts since the cutoff,
// oldest first. Used by the reputation engine.
func (l *Ledger) SettleWindow(ctx context.Context, agentID string, since time.Time) ([]float64, error) {
	return l.store.SettleAmountsSince(ctx, agentID, since)
}

// History returns every event for the agent, oldest first.
func (l *Ledger) History(ctx context.Context, agentID string) ([]domain.LedgerEvent, error) {
	return l.store.LedgerEvents(ctx, agentID)
}
