package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/thebeakers/spsdaily/internal/config"
	"github.com/thebeakers/spsdaily/internal/logging"
	"github.com/thebeakers/spsdaily/internal/metrics"
	"github.com/thebeakers/spsdaily/internal/publish"
	"github.com/thebeakers/spsdaily/internal/scheduler"
	"github.com/thebeakers/spsdaily/internal/scraper"
	"github.com/thebeakers/spsdaily/internal/store"
	"github.com/thebeakers/spsdaily/internal/telegram"
	"github.com/thebeakers/spsdaily/pkg/curate"
	"github.com/thebeakers/spsdaily/pkg/enrich"
	"github.com/thebeakers/spsdaily/pkg/feed"
	"github.com/thebeakers/spsdaily/pkg/pipeline"
	"github.com/thebeakers/spsdaily/pkg/server"

	"log/slog"
)

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logging.New(cfg.LogLevel), nil
}

// buildFeeds flattens the category config into the fetch list. An empty
// filter means all categories.
func buildFeeds(cfg *config.Config, categories []string) ([]feed.Feed, error) {
	wanted := make(map[string]bool)
	for _, c := range categories {
		name := strings.ToLower(strings.TrimSpace(c))
		if _, ok := cfg.Categories[name]; !ok {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		wanted[name] = true
	}

	var feeds []feed.Feed
	names := make([]string, 0, len(cfg.Categories))
	for name := range cfg.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if len(wanted) > 0 && !wanted[name] {
			continue
		}
		for _, f := range cfg.Categories[name].Feeds {
			feeds = append(feeds, feed.Feed{Name: f.Name, URL: f.URL, Category: name})
		}
	}
	return feeds, nil
}

func buildPipeline(cfg *config.Config, feeds []feed.Feed, db store.Store, counters *metrics.Counters, log *slog.Logger) *pipeline.Pipeline {
	blockedTopics := make(map[string][]string)
	categoryMinWords := make(map[string]int)
	for name, cat := range cfg.Categories {
		if len(cat.BlockedTopics) > 0 {
			blockedTopics[name] = cat.BlockedTopics
		}
		if cat.MinWords > 0 {
			categoryMinWords[name] = cat.MinWords
		}
	}

	sc := scraper.New(cfg.Depth.ParseFetchTimeout(), log)

	var rationale pipeline.RationaleSource
	if cfg.Rationale.Enabled && cfg.Rationale.APIKey != "" {
		rationale = enrich.NewRationaleGenerator(
			cfg.Rationale.Provider,
			cfg.Rationale.Model,
			cfg.Rationale.APIKey,
			cfg.Rationale.BaseURL,
			0, 0,
		)
		log.Info("rationale generator enabled",
			"provider", cfg.Rationale.Provider, "model", cfg.Rationale.Model)
	}
	var snapshots pipeline.SnapshotSource
	if cfg.Snapshot.Enabled {
		snapshots = enrich.NewSnapshotLookup(cfg.Snapshot.BaseURL)
	}

	return pipeline.New(
		pipeline.Config{
			Feeds:          feeds,
			TeaserMaxChars: cfg.Staging.TeaserMaxChars,
			Gates: pipeline.GateConfig{
				BlockedDomains:    cfg.Gates.BlockedDomains,
				ClickbaitPatterns: cfg.Gates.ClickbaitPatterns,
				BlockedTopics:     blockedTopics,
				MaxAge:            cfg.Gates.MaxAge(),
			},
			Scoring: pipeline.ScoreConfig{
				DomainWeights:      cfg.Scoring.DomainWeights,
				SourceWeights:      cfg.Scoring.SourceWeights,
				MinTeaserChars:     cfg.Scoring.MinTeaserChars,
				ShortTeaserPenalty: cfg.Scoring.ShortTeaserPenalty,
			},
			Depth: pipeline.DepthConfig{
				CategoryMinWords: categoryMinWords,
				DomainMinWords:   cfg.Depth.DomainMinWords,
				DefaultMinWords:  cfg.Depth.DefaultMinWords,
			},
			SelectPerCategory: cfg.Staging.SelectPerCategory,
			OverfetchFactor:   cfg.Staging.OverfetchFactor,
			PendingPath:       cfg.Site.PendingPath,
		},
		pipeline.Deps{
			Source:    feed.NewFetcher(30*time.Second, cfg.Staging.PerFeedLimit, log),
			Ledger:    db,
			Words:     sc,
			Rationale: rationale,
			Snapshots: snapshots,
			Images:    sc,
			Counters:  counters,
			Log:       log,
		},
	)
}

func buildBot(cfg *config.Config) (*telegram.Client, error) {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == "" {
		return nil, errors.New("telegram not configured (set SPSDAILY_BOT_TOKEN and SPSDAILY_CHAT_ID)")
	}
	return telegram.New(cfg.Telegram.Token, cfg.Telegram.ChatID, ""), nil
}

func buildStateMachine(cfg *config.Config, db store.Store, log *slog.Logger) *curate.StateMachine {
	var publisher curate.Publisher
	if cfg.Site.RepoDir != "" {
		publisher = publish.NewGit(cfg.Site.RepoDir, log)
	}
	return curate.NewStateMachine(
		db,
		cfg.Site.FeedPath,
		cfg.Site.ArchivePath,
		cfg.Curation.LiveCap,
		cfg.Curation.MaxLiveAge(),
		publisher,
		log,
	)
}

func runCollect(ctx context.Context, categories []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	feeds, err := buildFeeds(cfg, categories)
	if err != nil {
		return err
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	counters := metrics.NewCounters()
	pipe := buildPipeline(cfg, feeds, db, counters, log)

	pending, err := pipe.Run(ctx)
	if err != nil {
		return fmt.Errorf("collection run: %w", err)
	}

	total := 0
	for category, list := range pending {
		fmt.Fprintf(os.Stderr, "  %s: %d pending\n", category, len(list))
		total += len(list)
	}
	fmt.Fprintf(os.Stderr, "total: %d pending in %s\n", total, cfg.Site.PendingPath)

	if total > 0 {
		if bot, err := buildBot(cfg); err == nil {
			text := fmt.Sprintf("%d article(s) pending review. Send /review to see them.", total)
			if err := bot.SendMessage(ctx, text); err != nil {
				log.Warn("pending notification failed", "error", err)
			}
		}
	}
	return nil
}

func runReview(ctx context.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	bot, err := buildBot(cfg)
	if err != nil {
		return err
	}

	pending, err := pipeline.LoadPending(cfg.Site.PendingPath)
	if err != nil {
		return fmt.Errorf("load pending: %w", err)
	}
	total := 0
	for _, list := range pending {
		total += len(list)
	}
	if total == 0 {
		fmt.Fprintln(os.Stderr, "nothing pending; run: spsdaily collect")
		return nil
	}

	if err := bot.SendMessage(ctx, fmt.Sprintf("%d article(s) pending review:", total)); err != nil {
		return fmt.Errorf("send summary: %w", err)
	}
	for category, list := range pending {
		for i := range list {
			if err := bot.SendReview(ctx, &list[i], i); err != nil {
				log.Warn("send review card failed", "category", category, "index", i, "error", err)
			}
		}
	}
	fmt.Fprintf(os.Stderr, "sent %d review card(s)\n", total)
	return nil
}

func runCurate() error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	bot, err := buildBot(cfg)
	if err != nil {
		return err
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sm := buildStateMachine(cfg, db, log)
	curator := curate.NewCurator(bot, sm, cfg.Site.PendingPath, log)
	if err := curator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runStatus(ctx context.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	pending, err := pipeline.LoadPending(cfg.Site.PendingPath)
	if err != nil {
		return fmt.Errorf("load pending: %w", err)
	}
	total := 0
	for _, list := range pending {
		total += len(list)
	}

	sm := buildStateMachine(cfg, db, log)
	status, err := sm.Status(total)
	if err != nil {
		return err
	}
	fmt.Println(status)

	seen, err := db.CountSeen(ctx)
	if err == nil {
		fmt.Printf("Seen URLs: %d\n", seen)
	}
	return nil
}

func runServe(port int) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	srv := server.New(db, metrics.NewCounters(), cfg.Site.FeedPath, cfg.Site.PendingPath, port)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	feeds, err := buildFeeds(cfg, nil)
	if err != nil {
		return err
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	counters := metrics.NewCounters()
	pipe := buildPipeline(cfg, feeds, db, counters, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var notifier scheduler.Notifier
	bot, botErr := buildBot(cfg)
	if botErr == nil {
		notifier = bot
		sm := buildStateMachine(cfg, db, log)
		curator := curate.NewCurator(bot, sm, cfg.Site.PendingPath, log)
		go func() {
			if err := curator.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("curator stopped", "error", err)
			}
		}()
	} else {
		log.Warn("review bot disabled", "reason", botErr)
	}

	sched := scheduler.New(pipe, notifier, cfg.Schedule.ParseCollectInterval(), log)
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("scheduler stopped", "error", err)
		}
	}()

	srv := server.New(db, counters, cfg.Site.FeedPath, cfg.Site.PendingPath, port)
	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	return srv.ListenAndServe()
}
