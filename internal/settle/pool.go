package settle

// pool.go — pool settlement: every participant is scored independently
// against a shared market outcome. Exactly one SETTLE event per submission,
// plus one FEE event where fees apply, plus one write-once Score.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/emarden/agentarena/internal/domain"
	"github.com/emarden/agentarena/internal/ledger"
	"github.com/emarden/agentarena/internal/ports"
)

// alphaAlertPnL is the net PnL above which a winner gets a public shoutout.
const alphaAlertPnL = 100.0

// Pool settles pnl- and accuracy-scored competitions.
type Pool struct {
	store     ports.Storage
	ledger    *ledger.Ledger
	announcer ports.Announcer
	now       func() time.Time
}

// NewPool creates a pool settlement engine.
func NewPool(store ports.Storage, led *ledger.Ledger, announcer ports.Announcer) *Pool {
	return &Pool{store: store, ledger: led, announcer: announcer, now: time.Now}
}

// Settle runs directional-PnL settlement for a locked competition.
// Each submission earns DirectionalPnL as a SETTLE event and pays
// stake×feeRate as a FEE event. Agents that never submitted get nothing.
func (p *Pool) Settle(ctx context.Context, competitionID string, priceStart, priceEnd float64) ([]domain.Score, error) {
	comp, subs, err := p.loadLocked(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if priceStart <= 0 {
		return nil, fmt.Errorf("settle.Pool.Settle: %s: invalid start price %.4f", comp.Slug, priceStart)
	}

	outcome := direction(priceStart, priceEnd)
	scores := make([]domain.Score, 0, len(subs))
	for _, sub := range subs {
		pnl := domain.DirectionalPnL(sub.Action, sub.Stake, priceStart, priceEnd)
		fee := domain.StakeFee(sub.Stake, comp.FeeRate)

		score := domain.Score{
			ID:            uuid.New().String(),
			CompetitionID: comp.ID,
			AgentID:       sub.AgentID,
			Value:         roi(pnl-fee, sub.Stake),
			PnL:           pnl,
			Fee:           fee,
			Action:        sub.Action,
			Confidence:    sub.Confidence,
			Outcome:       outcome,
			CreatedAt:     p.now().UTC(),
		}
		// Score before events: a run that dies partway always leaves a
		// score for the loadLocked guard, so a retry cannot re-credit.
		if err := p.store.SaveScore(ctx, score); err != nil {
			return nil, fmt.Errorf("settle.Pool.Settle: %s: score for %s: %w", comp.Slug, sub.AgentID, err)
		}

		if _, err := p.ledger.Append(ctx, sub.AgentID, comp.ID, domain.EventSettle, pnl); err != nil {
			return nil, fmt.Errorf("settle.Pool.Settle: %s: settle event for %s: %w", comp.Slug, sub.AgentID, err)
		}
		if fee > 0 {
			if _, err := p.ledger.Append(ctx, sub.AgentID, comp.ID, domain.EventFee, -fee); err != nil {
				return nil, fmt.Errorf("settle.Pool.Settle: %s: fee event for %s: %w", comp.Slug, sub.AgentID, err)
			}
		}
		scores = append(scores, score)

		if net := pnl - fee; net > alphaAlertPnL {
			p.announce(ctx, fmt.Sprintf("ALPHA ALERT: @%s secured a profit of $%.2f in %s", sub.AgentID, net, comp.Slug))
		}
	}

	p.announceLeaderboard(ctx, comp, scores)
	return scores, nil
}

// SettleAccuracy runs binary-correctness settlement for a locked competition.
// Correct decisions earn +basePayout×confidence, wrong ones the negative;
// no fees apply in accuracy mode.
func (p *Pool) SettleAccuracy(ctx context.Context, competitionID, outcome string) ([]domain.Score, error) {
	comp, subs, err := p.loadLocked(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	scores := make([]domain.Score, 0, len(subs))
	for _, sub := range subs {
		correctness := domain.AccuracyScore(sub.Action, outcome)
		pnl := domain.AccuracyPayoff(correctness == 1.0, comp.BasePayout, sub.Confidence)

		score := domain.Score{
			ID:            uuid.New().String(),
			CompetitionID: comp.ID,
			AgentID:       sub.AgentID,
			Value:         correctness,
			PnL:           pnl,
			Action:        sub.Action,
			Confidence:    sub.Confidence,
			Outcome:       outcome,
			CreatedAt:     p.now().UTC(),
		}
		// Score before the event, same ordering as Settle.
		if err := p.store.SaveScore(ctx, score); err != nil {
			return nil, fmt.Errorf("settle.Pool.SettleAccuracy: %s: score for %s: %w", comp.Slug, sub.AgentID, err)
		}

		if _, err := p.ledger.Append(ctx, sub.AgentID, comp.ID, domain.EventSettle, pnl); err != nil {
			return nil, fmt.Errorf("settle.Pool.SettleAccuracy: %s: settle event for %s: %w", comp.Slug, sub.AgentID, err)
		}
		scores = append(scores, score)
	}

	p.announceLeaderboard(ctx, comp, scores)
	return scores, nil
}

// loadLocked fetches the competition and its submissions, enforcing the
// settlement preconditions: the round must be locked and never settled
// before, and no partial score state may exist.
func (p *Pool) loadLocked(ctx context.Context, competitionID string) (domain.Competition, []domain.Submission, error) {
	comp, err := p.store.GetCompetition(ctx, competitionID)
	if err != nil {
		return domain.Competition{}, nil, fmt.Errorf("settle: load competition %s: %w", competitionID, err)
	}
	if comp.Status == domain.StatusSettled {
		return domain.Competition{}, nil, fmt.Errorf("settle: %s: %w", comp.Slug, domain.ErrAlreadySettled)
	}
	if comp.Status != domain.StatusLocked {
		return domain.Competition{}, nil, fmt.Errorf("settle: %s is %s: %w", comp.Slug, comp.Status, domain.ErrNotLocked)
	}

	existing, err := p.store.GetScores(ctx, comp.ID)
	if err != nil {
		return domain.Competition{}, nil, fmt.Errorf("settle: %s: check existing scores: %w", comp.Slug, err)
	}
	if len(existing) > 0 {
		// Scores without a settled status mean a previous attempt died
		// partway. Re-applying would double-credit; surface for audit.
		return domain.Competition{}, nil, fmt.Errorf("settle: %s has %d scores but is not settled: %w",
			comp.Slug, len(existing), domain.ErrLedgerIntegrity)
	}

	subs, err := p.store.GetSubmissions(ctx, comp.ID)
	if err != nil {
		return domain.Competition{}, nil, fmt.Errorf("settle: %s: load submissions: %w", comp.Slug, err)
	}
	return comp, subs, nil
}

func (p *Pool) announce(ctx context.Context, msg string) {
	if p.announcer == nil {
		return
	}
	if err := p.announcer.Announce(ctx, msg); err != nil {
		slog.Warn("announcer error", "err", err)
	}
}

func (p *Pool) announceLeaderboard(ctx context.Context, comp domain.Competition, scores []domain.Score) {
	if p.announcer == nil {
		return
	}
	if err := p.announcer.AnnounceLeaderboard(ctx, comp, scores); err != nil {
		slog.Warn("announcer error", "err", err, "competition", comp.Slug)
	}
}

// direction labels the market move between two prices.
func direction(priceStart, priceEnd float64) string {
	switch {
	case priceEnd > priceStart:
		return string(domain.ActionLong)
	case priceEnd < priceStart:
		return string(domain.ActionShort)
	}
	return string(domain.ActionHold)
}

// roi normalizes net PnL by stake; zero-stake decisions score zero.
func roi(netPnL, stake float64) float64 {
	if stake <= 0 {
		return 0
	}
	return netPnL / stake
}
