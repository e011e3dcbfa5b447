package reputation

// reputation.go — trust scores derived from settlement history.
//
// TrustScore = 0.4·volAdjPnL + 0.3·sharpe + 0.2·stability + 0.1·consistency,
// each component in [0,1], recomputed in full from the immutable ledger on
// every invocation. Incremental patching is deliberately not supported:
// recomputation from the event stream is the correctness guarantee.

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/emarden/agentarena/internal/domain"
	"github.com/emarden/agentarena/internal/ledger"
	"github.com/emarden/agentarena/internal/ports"
)

const (
	// epsilon keeps the volatility denominator away from zero.
	epsilon = 1e-4
	// singleSampleStdev stands in for the stdev of a one-entry window.
	singleSampleStdev = 0.01
	// neutralScore is the trust of an agent with no settlement history.
	neutralScore = 0.5
)

// Component weights.
const (
	weightVolAdjPnL   = 0.4
	weightSharpe      = 0.3
	weightStability   = 0.2
	weightConsistency = 0.1
)

// Engine computes and persists agent trust scores.
type Engine struct {
	ledger        *ledger.Ledger
	store         ports.Storage
	windowDays    int
	sharpeCeiling float64
	now           func() time.Time
}

// New creates a reputation engine. windowDays bounds the settlement history
// considered; sharpeCeiling is the sharpe value mapped to a perfect 1.0.
func New(led *ledger.Ledger, store ports.Storage, windowDays int, sharpeCeiling float64) *Engine {
	if windowDays <= 0 {
		windowDays = 30
	}
	if sharpeCeiling <= 0 {
		sharpeCeiling = 4.0
	}
	return &Engine{
		ledger:        led,
		store:         store,
		windowDays:    windowDays,
		sharpeCeiling: sharpeCeiling,
		now:           time.Now,
	}
}

// TrustScore computes the agent's trust from its SETTLE history in the
// rolling window. It has no side effects.
func (e *Engine) TrustScore(ctx context.Context, agentID string) (float64, error) {
	since := e.now().UTC().AddDate(0, 0, -e.windowDays)
	pnls, err := e.ledger.SettleWindow(ctx, agentID, since)
	if err != nil {
		return 0, fmt.Errorf("reputation.TrustScore: settle window for %s: %w", agentID, err)
	}
	return Compute(pnls, e.sharpeCeiling), nil
}

// Update recomputes the agent's trust score and persists it onto the record.
func (e *Engine) Update(ctx context.Context, agentID string) (float64, error) {
	score, err := e.TrustScore(ctx, agentID)
	if err != nil {
		return 0, err
	}
	if err := e.store.UpdateAgentTrust(ctx, agentID, score); err != nil {
		return 0, fmt.Errorf("reputation.Update: persist trust for %s: %w", agentID, err)
	}
	return score, nil
}

// Nudge shifts the agent's trust by delta, clamped to [0,1], and persists
// the result. This is the social-feedback path; the settlement-derived
// score overwrites nudges on the next Update.
func (e *Engine) Nudge(ctx context.Context, agentID string, delta float64) (float64, error) {
	agent, err := e.store.GetAgent(ctx, agentID)
	if err != nil {
		return 0, fmt.Errorf("reputation.Nudge: load agent %s: %w", agentID, err)
	}
	score := domain.ClampTrust(agent.TrustScore + delta)
	if err := e.store.UpdateAgentTrust(ctx, agentID, score); err != nil {
		return 0, fmt.Errorf("reputation.Nudge: persist trust for %s: %w", agentID, err)
	}
	return score, nil
}

// Compute derives a trust score in [0,1] from a chronological series of
// settlement PnLs. An empty series scores neutral (0.5): a new agent is
// neither trusted nor distrusted.
func Compute(pnls []float64, sharpeCeiling float64) float64 {
	if len(pnls) == 0 {
		return neutralScore
	}

	avg := mean(pnls)
	sd := stdevOrFloor(pnls)

	// Risk-adjusted return squashed to [0,1].
	volAdj := sigmoid(avg / (sd + epsilon))

	// Expanding-window sharpe per entry, averaged and scaled by the ceiling.
	sharpes := make([]float64, len(pnls))
	for i := range pnls {
		prefix := pnls[:i+1]
		sharpes[i] = mean(prefix) / (stdevOrFloor(prefix) + epsilon)
	}
	sharpe := clamp01(mean(sharpes) / sharpeCeiling)

	stability := 1.0 - clamp01(2*sd)

	positive := 0
	for _, p := range pnls {
		if p > 0 {
			positive++
		}
	}
	consistency := float64(positive) / float64(len(pnls))

	return weightVolAdjPnL*volAdj +
		weightSharpe*sharpe +
		weightStability*stability +
		weightConsistency*consistency
}

func mean(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total / float64(len(xs))
}

// stdevOrFloor is the population standard deviation, with a small floor for
// single-entry windows where deviation is undefined.
func stdevOrFloor(xs []float64) float64 {
	if len(xs) < 2 {
		return singleSampleStdev
	}
	avg := mean(xs)
	variance := 0.0
	for _, x := range xs {
		d := x - avg
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(xs)))
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
