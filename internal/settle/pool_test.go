package settle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emarden/agentarena/internal/domain"
	"github.com/emarden/agentarena/internal/ledger"
	"github.com/emarden/agentarena/internal/settle"
)

func TestPoolSettle_DirectionalPnLAndFee(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	led := ledger.New(store)
	pool := settle.NewPool(store, led, nil)

	createAgent(t, store, "a1", "momentum-max")
	comp := createLockedCompetition(t, store, domain.Competition{Scoring: domain.ScoringPnL, FeeRate: 0.001})
	submit(t, store, comp.ID, "a1", domain.ActionLong, 1000, 0.9)

	scores, err := pool.Settle(ctx, comp.ID, 50000, 51000)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	// 1000 staked LONG on a +2% move: SETTLE +20, FEE -1, net +19.
	events, err := led.History(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventSettle, events[0].Type)
	assert.InDelta(t, 20.0, events[0].Amount, 0.001)
	assert.Equal(t, domain.EventFee, events[1].Type)
	assert.InDelta(t, -1.0, events[1].Amount, 0.001)
	assert.InDelta(t, 19.0, agentBalance(t, led, "a1"), 0.001)

	assert.InDelta(t, 20.0, scores[0].PnL, 0.001)
	assert.InDelta(t, 1.0, scores[0].Fee, 0.001)
	assert.InDelta(t, 0.019, scores[0].Value, 0.0001)
	assert.Equal(t, "LONG", scores[0].Outcome)
}

func TestPoolSettle_NonSubmittersGetNothing(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	led := ledger.New(store)
	pool := settle.NewPool(store, led, nil)

	createAgent(t, store, "a1", "active-agent")
	createAgent(t, store, "a2", "silent-agent")
	comp := createLockedCompetition(t, store, domain.Competition{Scoring: domain.ScoringPnL, FeeRate: 0.001})
	submit(t, store, comp.ID, "a1", domain.ActionShort, 500, 0.5)

	scores, err := pool.Settle(ctx, comp.ID, 50000, 49000)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, "a1", scores[0].AgentID)

	events, err := led.History(ctx, "a2")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPoolSettle_WaitScoresZeroPnL(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	led := ledger.New(store)
	pool := settle.NewPool(store, led, nil)

	createAgent(t, store, "a1", "cautious")
	comp := createLockedCompetition(t, store, domain.Competition{Scoring: domain.ScoringPnL, FeeRate: 0.001})
	submit(t, store, comp.ID, "a1", domain.ActionWait, 1000, 0.3)

	scores, err := pool.Settle(ctx, comp.ID, 50000, 51000)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 0.0, scores[0].PnL)
	// Fees apply to the stake regardless of direction.
	assert.InDelta(t, -1.0, agentBalance(t, led, "a1"), 0.001)
}

func TestPoolSettle_RejectedWhenAlreadySettled(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	led := ledger.New(store)
	pool := settle.NewPool(store, led, nil)

	createAgent(t, store, "a1", "repeat-offender")
	comp := createLockedCompetition(t, store, domain.Competition{Scoring: domain.ScoringPnL, FeeRate: 0.001})
	submit(t, store, comp.ID, "a1", domain.ActionLong, 1000, 0.9)

	_, err := pool.Settle(ctx, comp.ID, 50000, 51000)
	require.NoError(t, err)
	require.NoError(t, store.TransitionCompetition(ctx, comp.ID, domain.StatusLocked, domain.StatusSettled))

	before := agentBalance(t, led, "a1")

	_, err = pool.Settle(ctx, comp.ID, 50000, 51000)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadySettled)

	// No double-crediting: ledger state is identical to the single run.
	assert.Equal(t, before, agentBalance(t, led, "a1"))
}

func TestPoolSettle_PartialScoresSurfaceForAudit(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	led := ledger.New(store)
	pool := settle.NewPool(store, led, nil)

	createAgent(t, store, "a1", "half-settled")
	comp := createLockedCompetition(t, store, domain.Competition{Scoring: domain.ScoringPnL, FeeRate: 0.001})
	submit(t, store, comp.ID, "a1", domain.ActionLong, 1000, 0.9)

	// First run wrote scores but the status flip never happened.
	_, err := pool.Settle(ctx, comp.ID, 50000, 51000)
	require.NoError(t, err)

	_, err = pool.Settle(ctx, comp.ID, 50000, 51000)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLedgerIntegrity)
}

func TestPoolSettle_RetryAfterFailedRunPaysOnce(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	led := ledger.New(store)
	flaky := &failingScoreStore{SQLiteStorage: store, failures: 1}
	pool := settle.NewPool(flaky, led, nil)

	createAgent(t, store, "a1", "crash-survivor")
	comp := createLockedCompetition(t, store, domain.Competition{Scoring: domain.ScoringPnL, FeeRate: 0.001})
	submit(t, store, comp.ID, "a1", domain.ActionLong, 1000, 0.9)

	// First run dies on the score write, before any ledger event lands.
	_, err := pool.Settle(ctx, comp.ID, 50000, 51000)
	require.Error(t, err)
	assert.InDelta(t, 0.0, agentBalance(t, led, "a1"), 1e-9)

	// Retry applies the full settlement exactly once.
	scores, err := pool.Settle(ctx, comp.ID, 50000, 51000)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.InDelta(t, 19.0, agentBalance(t, led, "a1"), 0.001)
}

func TestPoolSettle_HalfWrittenRunSurfacesOnRetry(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	flaky := &failingLedgerStore{SQLiteStorage: store, failures: 1}
	led := ledger.New(flaky)
	pool := settle.NewPool(store, led, nil)

	createAgent(t, store, "a1", "half-credited")
	comp := createLockedCompetition(t, store, domain.Competition{Scoring: domain.ScoringPnL, FeeRate: 0.001})
	submit(t, store, comp.ID, "a1", domain.ActionLong, 1000, 0.9)

	// First run saved the score but died on the settle event.
	_, err := pool.Settle(ctx, comp.ID, 50000, 51000)
	require.Error(t, err)

	// The stranded score blocks a blind retry from re-crediting.
	_, err = pool.Settle(ctx, comp.ID, 50000, 51000)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLedgerIntegrity)
	assert.InDelta(t, 0.0, agentBalance(t, led, "a1"), 1e-9)
}

func TestPoolSettle_RejectedWhenNotLocked(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	pool := settle.NewPool(store, ledger.New(store), nil)

	comp := createLockedCompetition(t, store, domain.Competition{
		Scoring: domain.ScoringPnL, Status: domain.StatusOpen, FeeRate: 0.001,
	})

	_, err := pool.Settle(ctx, comp.ID, 50000, 51000)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotLocked)
}

func TestPoolSettleAccuracy_ConfidenceWeightedPayoff(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	led := ledger.New(store)
	pool := settle.NewPool(store, led, nil)

	createAgent(t, store, "a1", "right")
	createAgent(t, store, "a2", "wrong")
	comp := createLockedCompetition(t, store, domain.Competition{Scoring: domain.ScoringAccuracy, BasePayout: 100})
	submit(t, store, comp.ID, "a1", domain.ActionLong, 0, 0.8)
	submit(t, store, comp.ID, "a2", domain.ActionShort, 0, 0.6)

	scores, err := pool.SettleAccuracy(ctx, comp.ID, "LONG")
	require.NoError(t, err)
	require.Len(t, scores, 2)

	byAgent := map[string]domain.Score{}
	for _, sc := range scores {
		byAgent[sc.AgentID] = sc
	}
	assert.Equal(t, 1.0, byAgent["a1"].Value)
	assert.InDelta(t, 80.0, byAgent["a1"].PnL, 0.001)
	assert.Equal(t, 0.0, byAgent["a2"].Value)
	assert.InDelta(t, -60.0, byAgent["a2"].PnL, 0.001)

	// No fees in accuracy mode: exactly one SETTLE event each.
	assert.InDelta(t, 80.0, agentBalance(t, led, "a1"), 0.001)
	assert.InDelta(t, -60.0, agentBalance(t, led, "a2"), 0.001)
}
