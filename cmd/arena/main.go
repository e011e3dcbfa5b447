package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/emarden/agentarena/config"
	"github.com/emarden/agentarena/internal/adapters/announce"
	"github.com/emarden/agentarena/internal/adapters/oracle"
	"github.com/emarden/agentarena/internal/adapters/storage"
	"github.com/emarden/agentarena/internal/domain"
	"github.com/emarden/agentarena/internal/ledger"
	"github.com/emarden/agentarena/internal/reputation"
	"github.com/emarden/agentarena/internal/scheduler"
	"github.com/emarden/agentarena/internal/settle"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one lifecycle tick and exit")
	live := flag.Bool("live", false, "run a live tick-execution round instead of the scheduler")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("arena starting",
		"config", *configPath,
		"interval", cfg.PollInterval(),
		"market", cfg.Arena.Market,
		"once", *once,
		"live", *live,
	)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	prices := oracle.NewClient(cfg.Oracle.BinanceBase)
	announcer := announce.NewConsole()

	led := ledger.New(store)
	rep := reputation.New(led, store, cfg.Arena.TrustWindowDays, cfg.Arena.SharpeCeiling)
	pool := settle.NewPool(store, led, announcer)
	duel := settle.NewDuel(store, led, announcer, rep, cfg.Arena.DuelBonusFraction, cfg.DuelGrace())

	minDur, maxDur := cfg.DurationRange()
	schedCfg := scheduler.Config{
		PollInterval: cfg.PollInterval(),
		Cooldown:     cfg.Cooldown(),
		MinDuration:  minDur,
		MaxDuration:  maxDur,
		LockFraction: cfg.Arena.LockFraction,
		Market:       cfg.Arena.Market,
		Scoring:      domain.ScoringPnL,
		FeeRate:      cfg.Arena.FeeRate,
		BasePayout:   cfg.Arena.BasePayout,
	}
	sched := scheduler.New(schedCfg, store, prices, pool, duel, rep)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *live {
		runLive(ctx, cfg, store, prices)
		return
	}

	if *once {
		if err := sched.Tick(ctx); err != nil {
			slog.Error("lifecycle tick failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := sched.Run(ctx); err != nil {
		slog.Error("scheduler exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("arena stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
