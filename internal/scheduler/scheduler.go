package scheduler

// scheduler.go — the competition lifecycle orchestrator.
//
// A single background loop polls on a fixed interval and is the only writer
// of competition status transitions: upcoming → open → locked → settled.
// Every transition is guarded by the stored status, so re-running a tick on
// unchanged state duplicates nothing and re-fires nothing. Out-of-order
// state is logged and skipped; it self-heals on a later tick.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emarden/agentarena/internal/domain"
	"github.com/emarden/agentarena/internal/ports"
	"github.com/emarden/agentarena/internal/reputation"
	"github.com/emarden/agentarena/internal/settle"
)

// Config holds the scheduler's lifecycle parameters.
type Config struct {
	PollInterval time.Duration
	Cooldown     time.Duration // between competition starts
	MinDuration  time.Duration // randomized round duration bounds
	MaxDuration  time.Duration
	LockFraction float64 // lock_time position within the round duration
	Market       string
	Scoring      domain.ScoringMode // mode for auto-created rounds
	FeeRate      float64
	BasePayout   float64
}

// DefaultConfig returns production-sensible lifecycle parameters.
func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
		Cooldown:     15 * time.Minute,
		MinDuration:  30 * time.Minute,
		MaxDuration:  60 * time.Minute,
		LockFraction: 0.9,
		Market:       "BTCUSDT",
		Scoring:      domain.ScoringPnL,
		FeeRate:      0.001,
		BasePayout:   100,
	}
}

// Scheduler drives competitions through their state machine.
type Scheduler struct {
	cfg    Config
	store  ports.Storage
	oracle ports.Oracle
	pool   *settle.Pool
	duel   *settle.Duel
	rep    *reputation.Engine
	now    func() time.Time
	rng    *rand.Rand
}

// New creates a Scheduler with all dependencies injected.
func New(cfg Config, store ports.Storage, oracle ports.Oracle, pool *settle.Pool, duel *settle.Duel, rep *reputation.Engine) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.LockFraction <= 0 || cfg.LockFraction >= 1 {
		cfg.LockFraction = 0.9
	}
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = 30 * time.Minute
	}
	if cfg.MaxDuration < cfg.MinDuration {
		cfg.MaxDuration = cfg.MinDuration
	}
	if cfg.Scoring == "" {
		cfg.Scoring = domain.ScoringPnL
	}
	return &Scheduler{
		cfg:    cfg,
		store:  store,
		oracle: oracle,
		pool:   pool,
		duel:   duel,
		rep:    rep,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithClock replaces the scheduler's clock. For tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Run polls the lifecycle until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler starting",
		"interval", s.cfg.PollInterval,
		"cooldown", s.cfg.Cooldown,
		"market", s.cfg.Market,
	)

	if err := s.Tick(ctx); err != nil {
		slog.Error("lifecycle tick failed", "err", err)
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				slog.Error("lifecycle tick failed", "err", err)
			}
		}
	}
}

// Tick runs one lifecycle pass: create a round if the creation policy calls
// for one, then advance every non-terminal competition whose boundary has
// passed. Idempotent on unchanged state.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.now().UTC()

	active, err := s.store.ListCompetitionsByStatus(ctx,
		domain.StatusUpcoming, domain.StatusOpen, domain.StatusLocked)
	if err != nil {
		return fmt.Errorf("scheduler.Tick: list active: %w", err)
	}

	if created, err := s.maybeCreate(ctx, now, len(active)); err != nil {
		slog.Error("competition creation failed", "err", err)
	} else if created != nil {
		active = append(active, *created)
	}

	for _, comp := range active {
		if err := s.advance(ctx, comp, now); err != nil {
			// State errors and oracle outages are not fatal: the round
			// stays where it is and the next tick retries.
			slog.Warn("competition not advanced",
				"competition", comp.Slug, "status", comp.Status, "err", err)
		}
	}
	return nil
}

// maybeCreate applies the creation policy: with zero non-terminal rounds a
// new one starts immediately; otherwise only once the cooldown since the
// last start has elapsed.
func (s *Scheduler) maybeCreate(ctx context.Context, now time.Time, activeCount int) (*domain.Competition, error) {
	if activeCount > 0 {
		last, ok, err := s.store.LatestStartTime(ctx)
		if err != nil {
			return nil, fmt.Errorf("latest start time: %w", err)
		}
		if ok && now.Sub(last) < s.cfg.Cooldown {
			return nil, nil
		}
	}

	comp := s.newCompetition(now)
	if err := comp.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateCompetition(ctx, comp); err != nil {
		return nil, fmt.Errorf("create competition %s: %w", comp.Slug, err)
	}
	slog.Info("competition created",
		"competition", comp.Slug,
		"lock", comp.LockTime,
		"settle", comp.SettleTime,
	)
	return &comp, nil
}

// newCompetition builds a round starting now with a randomized duration and
// a lock boundary at LockFraction of it, guaranteeing a non-empty decision
// window before lock.
func (s *Scheduler) newCompetition(now time.Time) domain.Competition {
	duration := s.cfg.MinDuration
	if spread := s.cfg.MaxDuration - s.cfg.MinDuration; spread > 0 {
		duration += time.Duration(s.rng.Int63n(int64(spread)))
	}
	lock := now.Add(time.Duration(float64(duration) * s.cfg.LockFraction))
	slug := fmt.Sprintf("%s-dir-%s-%s",
		strings.ToLower(s.cfg.Market), now.Format("20060102-1504"), uuid.New().String()[:8])

	return domain.Competition{
		ID:         uuid.New().String(),
		Slug:       slug,
		Title:      fmt.Sprintf("%s direction call, %s round", s.cfg.Market, duration.Round(time.Minute)),
		Market:     s.cfg.Market,
		Scoring:    s.cfg.Scoring,
		Status:     domain.StatusUpcoming,
		StartTime:  now,
		LockTime:   lock,
		SettleTime: now.Add(duration),
		FeeRate:    s.cfg.FeeRate,
		BasePayout: s.cfg.BasePayout,
	}
}

// advance applies at most one forward transition to the competition.
func (s *Scheduler) advance(ctx context.Context, comp domain.Competition, now time.Time) error {
	switch comp.Status {
	case domain.StatusUpcoming:
		if now.Before(comp.StartTime) {
			return nil
		}
		return s.transition(ctx, comp, domain.StatusUpcoming, domain.StatusOpen)

	case domain.StatusOpen:
		if now.Before(comp.LockTime) {
			return nil
		}
		return s.transition(ctx, comp, domain.StatusOpen, domain.StatusLocked)

	case domain.StatusLocked:
		if now.Before(comp.SettleTime) {
			return nil
		}
		return s.settleAndClose(ctx, comp, now)
	}
	return nil
}

func (s *Scheduler) transition(ctx context.Context, comp domain.Competition, from, to domain.Status) error {
	if err := s.store.TransitionCompetition(ctx, comp.ID, from, to); err != nil {
		return fmt.Errorf("scheduler: %s %s→%s: %w", comp.Slug, from, to, err)
	}
	slog.Info("competition transitioned", "competition", comp.Slug, "from", from, "to", to)
	return nil
}

// settleAndClose runs the appropriate settlement engine to completion and
// then flips the round to settled. Oracle outages and pending duel
// decisions leave the round locked for the next tick; PnL is never computed
// from partial or estimated data.
func (s *Scheduler) settleAndClose(ctx context.Context, comp domain.Competition, now time.Time) error {
	var (
		participants []string
		outcome      string
	)

	switch comp.Scoring {
	case domain.ScoringAccuracy:
		out, err := s.oracle.Outcome(ctx, comp)
		if err != nil {
			return fmt.Errorf("scheduler: %s: outcome: %w", comp.Slug, err)
		}
		scores, err := s.pool.SettleAccuracy(ctx, comp.ID, out)
		if err != nil {
			return fmt.Errorf("scheduler: %s: accuracy settlement: %w", comp.Slug, err)
		}
		outcome = out
		for _, sc := range scores {
			participants = append(participants, sc.AgentID)
		}

	case domain.ScoringAdversarial:
		priceStart, priceEnd, err := s.oracle.SettlementPrices(ctx, comp)
		if err != nil {
			return fmt.Errorf("scheduler: %s: settlement prices: %w", comp.Slug, err)
		}
		result, err := s.duel.Settle(ctx, comp.ID, priceStart, priceEnd, now)
		if err != nil {
			if errors.Is(err, domain.ErrAwaitingDecision) {
				slog.Info("duel deferred, awaiting decision", "competition", comp.Slug)
				return nil
			}
			return fmt.Errorf("scheduler: %s: duel settlement: %w", comp.Slug, err)
		}
		if result.ID != "" {
			outcome = result.WinnerID
			participants = append(participants, result.WinnerID, result.LoserID)
		}

	default: // pnl
		priceStart, priceEnd, err := s.oracle.SettlementPrices(ctx, comp)
		if err != nil {
			return fmt.Errorf("scheduler: %s: settlement prices: %w", comp.Slug, err)
		}
		scores, err := s.pool.Settle(ctx, comp.ID, priceStart, priceEnd)
		if err != nil {
			return fmt.Errorf("scheduler: %s: pool settlement: %w", comp.Slug, err)
		}
		if priceEnd > priceStart {
			outcome = string(domain.ActionLong)
		} else if priceEnd < priceStart {
			outcome = string(domain.ActionShort)
		} else {
			outcome = string(domain.ActionHold)
		}
		for _, sc := range scores {
			participants = append(participants, sc.AgentID)
		}
	}

	if outcome != "" {
		if err := s.store.SetCompetitionOutcome(ctx, comp.ID, outcome); err != nil {
			return fmt.Errorf("scheduler: %s: set outcome: %w", comp.Slug, err)
		}
	}
	if err := s.transition(ctx, comp, domain.StatusLocked, domain.StatusSettled); err != nil {
		return err
	}

	// Trust scores are recomputed in full from the updated ledger.
	for _, agentID := range participants {
		if _, err := s.rep.Update(ctx, agentID); err != nil {
			slog.Warn("trust update failed", "agent", agentID, "err", err)
		}
	}
	slog.Info("competition settled",
		"competition", comp.Slug, "outcome", outcome, "participants", len(participants))
	return nil
}
