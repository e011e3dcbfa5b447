package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emarden/agentarena/config"
	"github.com/emarden/agentarena/internal/adapters/oracle"
	"github.com/emarden/agentarena/internal/adapters/storage"
	"github.com/emarden/agentarena/internal/domain"
	"github.com/emarden/agentarena/internal/exec"
)

const liveInitialCash = 100000

// runLive opens a continuous round and marks every active agent's paper
// book against live ticks until interrupted. Agents place orders through
// the executor out of band; this loop only keeps their equity current.
func runLive(ctx context.Context, cfg *config.Config, store *storage.SQLiteStorage, prices *oracle.Client) {
	now := time.Now().UTC()
	comp := domain.Competition{
		ID:         uuid.New().String(),
		Slug:       fmt.Sprintf("%s-live-%s", strings.ToLower(cfg.Arena.Market), now.Format("20060102-1504")),
		Title:      fmt.Sprintf("%s live round", cfg.Arena.Market),
		Market:     cfg.Arena.Market,
		Scoring:    domain.ScoringPnL,
		Status:     domain.StatusOpen,
		StartTime:  now,
		LockTime:   now.Add(23 * time.Hour),
		SettleTime: now.Add(24 * time.Hour),
		FeeRate:    cfg.Arena.FeeRate,
		BasePayout: cfg.Arena.BasePayout,
	}
	if err := store.CreateCompetition(ctx, comp); err != nil {
		slog.Error("failed to create live round", "err", err)
		return
	}

	executor := exec.New(store, prices, comp.ID, comp.Market, liveInitialCash)

	agents, err := store.ListAgents(ctx, true)
	if err != nil {
		slog.Error("failed to list agents", "err", err)
		return
	}
	for _, agent := range agents {
		// Opening a zero-size HOLD registers the book so ticks mark it.
		if _, err := executor.Execute(ctx, agent.ID, "HOLD", 0, 0); err != nil {
			slog.Warn("failed to open book", "agent", agent.Name, "err", err)
		}
	}

	slog.Info("live round running",
		"competition", comp.Slug,
		"agents", len(agents),
		"interval", cfg.PollInterval(),
	)
	if err := executor.Run(ctx, cfg.PollInterval()); err != nil {
		slog.Error("executor exited with error", "err", err)
	}
}
