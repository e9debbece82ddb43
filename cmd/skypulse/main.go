package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hmartens/skypulse/config"
	"github.com/hmartens/skypulse/internal/classify"
	"github.com/hmartens/skypulse/internal/clients"
	"github.com/hmartens/skypulse/internal/dedup"
	"github.com/hmartens/skypulse/internal/fetcher"
	"github.com/hmartens/skypulse/internal/logging"
	"github.com/hmartens/skypulse/internal/pipeline"
	"github.com/hmartens/skypulse/internal/retry"
	"github.com/hmartens/skypulse/internal/sink"
)

func main() {
	config.LoadEnv()

	cfgPath := os.Getenv("SKYPULSE_CONFIG")
	if cfgPath == "" {
		cfgPath = config.DefaultConfigFile
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("[Main] Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	closeLog, err := logging.Init(cfg.LogFile)
	if err != nil {
		slog.Error("[Main] Failed to initialize logging", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := retry.DefaultPolicy()

	bsky := clients.NewBlueskyClient(cfg.BlueskyHost)
	slog.Info("[Main] Logging in", slog.String("handle", cfg.BlueskyHandle))
	_, ok := retry.Do(ctx, policy, "create_session", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, bsky.CreateSession(ctx, cfg.BlueskyHandle, cfg.BlueskyPassword)
	})
	if !ok {
		// Login failure is the one fatal error: nothing is attempted without
		// a session.
		slog.Error("[Main] Login failed, aborting run")
		os.Exit(1)
	}

	openAIClient, err := clients.NewOpenAIClient(cfg.OpenAIAPIKey)
	if err != nil {
		slog.Error("[Main] Failed to create OpenAI client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	classifier := classify.New(openAIClient)

	sheetsService, err := clients.NewSheetsService(ctx, cfg.GoogleCredentialsFile)
	if err != nil {
		slog.Error("[Main] Failed to create Sheets service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sheetSink := sink.NewSheetsSink(sheetsService, cfg.SpreadsheetID, cfg.SheetName, policy)

	users, err := config.ReadUserList(cfg.UserListFile)
	if err != nil {
		slog.Error("[Main] Could not read user list", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if len(users) == 0 {
		slog.Warn("[Main] No users to scrape")
		return
	}

	store := dedup.NewStore(cfg.StateFile)
	posts := fetcher.New(bsky, classifier, cfg.PostLimit, policy)
	run := pipeline.New(posts, sheetSink, store, time.Duration(cfg.DelayBetweenUsers)*time.Second)

	run.Run(ctx, users)
}
