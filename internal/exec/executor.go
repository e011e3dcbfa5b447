package exec

// executor.go — live tick execution for continuous rounds.
//
// Unlike single-shot prediction rounds, a live round keeps a paper trading
// book per agent and re-marks it on every price tick. The executor owns the
// books; persistence is snapshot-only, so a restart restores the last
// marked state.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emarden/agentarena/internal/book"
	"github.com/emarden/agentarena/internal/domain"
	"github.com/emarden/agentarena/internal/ports"
)

// Executor drives per-agent books from market ticks within one competition.
type Executor struct {
	accounts      ports.AccountStore
	oracle        ports.Oracle
	competitionID string
	symbol        string
	initialCash   float64

	mu    sync.Mutex
	books map[string]*book.Book // agentID → book
	now   func() time.Time
}

// New creates an executor for one competition. Books are restored from
// persisted account snapshots on first touch, or opened with initialCash.
func New(accounts ports.AccountStore, oracle ports.Oracle, competitionID, symbol string, initialCash float64) *Executor {
	if initialCash <= 0 {
		initialCash = 100000
	}
	return &Executor{
		accounts:      accounts,
		oracle:        oracle,
		competitionID: competitionID,
		symbol:        symbol,
		initialCash:   initialCash,
		books:         make(map[string]*book.Book),
		now:           time.Now,
	}
}

// bookFor returns the agent's book, restoring or creating it as needed.
// Caller must hold e.mu.
func (e *Executor) bookFor(ctx context.Context, agentID string) (*book.Book, error) {
	if b, ok := e.books[agentID]; ok {
		return b, nil
	}
	account, err := e.accounts.GetAccount(ctx, agentID, e.competitionID)
	switch {
	case err == nil:
		b := book.Restore(account)
		e.books[agentID] = b
		return b, nil
	case isNotFound(err):
		b := book.New(e.initialCash)
		e.books[agentID] = b
		return b, nil
	}
	return nil, fmt.Errorf("exec: load account for %s: %w", agentID, err)
}

// Execute applies one order for one agent and persists the resulting
// snapshot. Rejected orders (insufficient cash, oversized sell) are no-ops
// and reported via the return value, not as errors.
func (e *Executor) Execute(ctx context.Context, agentID string, action book.OrderAction, size, price float64) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.bookFor(ctx, agentID)
	if err != nil {
		return false, err
	}
	executed := b.ExecuteOrder(action, e.symbol, size, price)
	if executed {
		b.MarkToMarket(map[string]float64{e.symbol: price})
		if err := e.accounts.SaveAccount(ctx, b.Snapshot(agentID, e.competitionID, e.now().UTC())); err != nil {
			return true, fmt.Errorf("exec: persist account for %s: %w", agentID, err)
		}
	}
	return executed, nil
}

// HandleTick re-marks every active book at the tick price and persists the
// updated snapshots.
func (e *Executor) HandleTick(ctx context.Context, price float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	prices := map[string]float64{e.symbol: price}
	for agentID, b := range e.books {
		b.MarkToMarket(prices)
		if err := e.accounts.SaveAccount(ctx, b.Snapshot(agentID, e.competitionID, e.now().UTC())); err != nil {
			return fmt.Errorf("exec: persist account for %s: %w", agentID, err)
		}
	}
	return nil
}

// Equity returns the agent's last marked equity, ok=false when the agent
// has no book yet.
func (e *Executor) Equity(agentID string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.books[agentID]
	if !ok {
		return 0, false
	}
	return b.Equity(), true
}

// Run polls the oracle for the current price on the given interval and
// feeds each tick to the books until the context is cancelled.
func (e *Executor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("executor stopped", "competition", e.competitionID)
			return nil
		case <-ticker.C:
			price, err := e.oracle.CurrentPrice(ctx, e.symbol)
			if err != nil {
				slog.Warn("tick price fetch failed", "symbol", e.symbol, "err", err)
				continue
			}
			if err := e.HandleTick(ctx, price); err != nil {
				slog.Error("tick handling failed", "err", err)
			}
		}
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
