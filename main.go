package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"x-reply-bot/agent"
	"x-reply-bot/cache"
	"x-reply-bot/config"
	"x-reply-bot/generator"
	"x-reply-bot/learner"
	"x-reply-bot/nlp"
	"x-reply-bot/platform"
	"x-reply-bot/profile"
	"x-reply-bot/responder"
	"x-reply-bot/storage"
)

func main() {
	// Load configuration
	configPath := config.GetConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("starting reply agent", "config", configPath,
		"reference_accounts", len(cfg.ReferenceAccounts), "monitored_accounts", len(cfg.MonitoredAccounts))

	// Initialize database
	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database initialized", "path", cfg.DBPath)

	clock := clockwork.NewRealClock()

	// Initialize collaborators
	client := platform.NewClient(cfg.PlatformBearerToken,
		platform.WithTimeout(cfg.FetchTimeout()),
	)
	gen := generator.NewGenerator(cfg.GeminiAPIKey,
		generator.WithModel(cfg.GeminiModel),
	)
	analyzer := nlp.NewLexiconAnalyzer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load persisted state: profiles and the response dedup cache. Missing
	// or unreadable state starts empty instead of failing.
	profiles := profile.NewStore()
	if stored, err := db.LoadProfiles(ctx); err != nil {
		slog.Warn("failed to load profiles, starting empty", "error", err)
	} else {
		profiles.ReplaceAll(stored)
		slog.Info("profiles loaded", "accounts", len(stored))
	}

	dedup := cache.Load(ctx, db, cfg.CacheCapacity, cfg.CacheTTL(), clock)

	// Assemble the cycle drivers
	styleLearner := learner.New(client, analyzer, profiles, db, cfg.ReferenceAccounts,
		learner.WithFetchLimit(cfg.LearnFetchLimit),
	)
	dispatcher := responder.New(client, gen, profiles, dedup, clock,
		responder.WithFetchLimit(cfg.RespondFetchLimit),
		responder.WithPostMaxAge(cfg.PostMaxAge()),
		responder.WithThrottle(cfg.PostThrottle()),
		responder.WithStyle(cfg.ResponseStyle),
	)
	loop := agent.New(styleLearner, dispatcher, dedup, db, clock, cfg.MonitoredAccounts,
		agent.WithLearningInterval(cfg.LearningInterval()),
		agent.WithRoundCooldown(cfg.RoundCooldown()),
		agent.WithAccountThrottle(cfg.PostThrottle()),
	)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	loop.Run(ctx)
	slog.Info("agent stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
