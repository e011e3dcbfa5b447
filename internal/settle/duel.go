package settle

// duel.go — duel settlement: a zero-sum head-to-head transfer layered on top
// of each agent's independent PnL. The winner takes a fraction of the PnL
// differential; exact ties transfer nothing.

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

// Duel trust nudges applied after a decisive result, from the social
// feedback loop: winners gain a little credibility, losers shed some.
const (
	winnerNudge = 0.05
	loserNudge  = -0.03
)

// Nudger adjusts an agent's trust score by a clamped delta.
type Nudger interface {
	Nudge(ctx context.Context, agentID string, delta float64) (float64, error)
}

// Duel settles adversarial competitions.
type Duel struct {
	store         ports.Storage
	ledger        *ledger.Ledger
	announcer     ports.Announcer
	nudger        Nudger
	bonusFraction float64
	grace         time.Duration
	now           func() time.Time
}

// NewDuel creates a duel settlement engine. bonusFraction is the share of
// the PnL differential transferred from loser to winner; grace is how long
// past settle_time the duel waits for a missing decision before forfeiture.
func NewDuel(store ports.Storage, led *ledger.Ledger, announcer ports.Announcer, nudger Nudger, bonusFraction float64, grace time.Duration) *Duel {
	if bonusFraction <= 0 {
		bonusFraction = 0.5
	}
	return &Duel{
		store:         store,
		ledger:        led,
		announcer:     announcer,
		nudger:        nudger,
		bonusFraction: bonusFraction,
		grace:         grace,
		now:           time.Now,
	}
}

// Settle resolves a locked duel at the given reference prices.
//
// Both decisions are required. With one missing, settlement is deferred
// (domain.ErrAwaitingDecision) until the grace window past settle_time
// elapses; after that the round forfeits to the agent who did submit, the
// absent side scored as zero PnL. With both missing at timeout nothing is
// transferred and the caller may close the round.
func (d *Duel) Settle(ctx context.Context, competitionID string, priceStart, priceEnd float64, now time.Time) (domain.DuelResult, error) {
	comp, err := d.store.GetCompetition(ctx, competitionID)
	if err != nil {
		return domain.DuelResult{}, fmt.Errorf("settle.Duel.Settle: load competition %s: %w", competitionID, err)
	}
	if comp.Status == domain.StatusSettled {
		return domain.DuelResult{}, fmt.Errorf("settle.Duel.Settle: %s: %w", comp.Slug, domain.ErrAlreadySettled)
	}
	if comp.Status != domain.StatusLocked {
		return domain.DuelResult{}, fmt.Errorf("settle.Duel.Settle: %s is %s: %w", comp.Slug, comp.Status, domain.ErrNotLocked)
	}

	if _, ok, err := d.store.GetDuelResult(ctx, comp.ID); err != nil {
		return domain.DuelResult{}, fmt.Errorf("settle.Duel.Settle: %s: check existing result: %w", comp.Slug, err)
	} else if ok {
		// A result without a settled status means a previous attempt died
		// partway. Re-applying would double the transfer; surface for audit.
		return domain.DuelResult{}, fmt.Errorf("settle.Duel.Settle: %s has a result but is not settled: %w",
			comp.Slug, domain.ErrLedgerIntegrity)
	}

	subs, err := d.store.GetSubmissions(ctx, comp.ID)
	if err != nil {
		return domain.DuelResult{}, fmt.Errorf("settle.Duel.Settle: %s: load submissions: %w", comp.Slug, err)
	}
	subA := findSubmission(subs, comp.DuelAgentA)
	subB := findSubmission(subs, comp.DuelAgentB)

	timedOut := now.After(comp.SettleTime.Add(d.grace))
	if (subA == nil || subB == nil) && !timedOut {
		return domain.DuelResult{}, fmt.Errorf("settle.Duel.Settle: %s: %w", comp.Slug, domain.ErrAwaitingDecision)
	}
	if subA == nil && subB == nil {
		// Neither agent showed up. Nothing to transfer, round just closes.
		slog.Info("duel timed out with no decisions", "competition", comp.Slug)
		return domain.DuelResult{}, nil
	}

	var pnlA, pnlB float64
	forfeit := subA == nil || subB == nil
	if subA != nil {
		pnlA = domain.DirectionalPnL(subA.Action, subA.Stake, priceStart, priceEnd)
	}
	if subB != nil {
		pnlB = domain.DirectionalPnL(subB.Action, subB.Stake, priceStart, priceEnd)
	}

	var winnerID, loserID string
	switch {
	case forfeit && subA != nil:
		winnerID, loserID = comp.DuelAgentA, comp.DuelAgentB
	case forfeit:
		winnerID, loserID = comp.DuelAgentB, comp.DuelAgentA
	case pnlA > pnlB:
		winnerID, loserID = comp.DuelAgentA, comp.DuelAgentB
	case pnlB > pnlA:
		winnerID, loserID = comp.DuelAgentB, comp.DuelAgentA
	default:
		// Exact tie: no transfer occurs.
		d.announce(ctx, fmt.Sprintf("DUEL DRAW: @%s and @%s finished %s dead even, no transfer",
			comp.DuelAgentA, comp.DuelAgentB, comp.Slug))
		return domain.DuelResult{}, nil
	}

	diff := pnlA - pnlB
	if diff < 0 {
		diff = -diff
	}
	bonus := d.bonusFraction * diff

	result := domain.DuelResult{
		ID:              uuid.New().String(),
		CompetitionID:   comp.ID,
		WinnerID:        winnerID,
		LoserID:         loserID,
		PnLDifferential: diff,
		Bonus:           bonus,
		Forfeit:         forfeit,
		CreatedAt:       d.now().UTC(),
	}
	// Result before the transfers: a run that dies between the appends
	// always leaves a result for the guard above, so a retry cannot
	// re-apply the bonus.
	if err := d.store.SaveDuelResult(ctx, result); err != nil {
		return domain.DuelResult{}, fmt.Errorf("settle.Duel.Settle: %s: save result: %w", comp.Slug, err)
	}

	if _, err := d.ledger.Append(ctx, winnerID, comp.ID, domain.EventSettle, bonus); err != nil {
		return domain.DuelResult{}, fmt.Errorf("settle.Duel.Settle: %s: credit winner %s: %w", comp.Slug, winnerID, err)
	}
	if _, err := d.ledger.Append(ctx, loserID, comp.ID, domain.EventSettle, -bonus); err != nil {
		return domain.DuelResult{}, fmt.Errorf("settle.Duel.Settle: %s: debit loser %s: %w", comp.Slug, loserID, err)
	}

	d.nudge(ctx, winnerID, winnerNudge)
	d.nudge(ctx, loserID, loserNudge)

	if forfeit {
		d.announce(ctx, fmt.Sprintf("DUEL FORFEIT: @%s never submitted, %s goes to @%s by default",
			loserID, comp.Slug, winnerID))
	} else {
		d.announce(ctx, fmt.Sprintf("DUEL RESOLVED: @%s took %s with a $%.2f alpha lead over @%s (bonus $%.2f)",
			winnerID, comp.Slug, diff, loserID, bonus))
	}
	return result, nil
}

func (d *Duel) nudge(ctx context.Context, agentID string, delta float64) {
	if d.nudger == nil {
		return
	}
	if _, err := d.nudger.Nudge(ctx, agentID, delta); err != nil {
		slog.Warn("trust nudge failed", "agent", agentID, "err", err)
	}
}

func (d *Duel) announce(ctx context.Context, msg string) {
	if d.announcer == nil {
		return
	}
	if err := d.announcer.Announce(ctx, msg); err != nil {
		slog.Warn("announcer error", "err", err)
	}
}

func findSubmission(subs []domain.Submission, agentID string) *domain.Submission {
	for i := range subs {
		if subs[i].AgentID == agentID {
			return &subs[i]
		}
	}
	return nil
}
