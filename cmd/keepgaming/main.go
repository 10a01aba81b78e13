package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Vodeneev/keepgaming/internal/parser/parsers"
	_ "github.com/Vodeneev/keepgaming/internal/parser/parsers/all"
	"github.com/Vodeneev/keepgaming/internal/parser/parsers/kenpom"
	"github.com/Vodeneev/keepgaming/internal/pkg/config"
	"github.com/Vodeneev/keepgaming/internal/pkg/gsheets"
	"github.com/Vodeneev/keepgaming/internal/pkg/health"
	"github.com/Vodeneev/keepgaming/internal/pkg/logging"
	"github.com/Vodeneev/keepgaming/internal/pkg/models"
	"github.com/Vodeneev/keepgaming/internal/pkg/notify"
	"github.com/Vodeneev/keepgaming/internal/pkg/parserutil"
	"github.com/Vodeneev/keepgaming/internal/pkg/storage"
	"github.com/Vodeneev/keepgaming/internal/pkg/teams"
	"github.com/Vodeneev/keepgaming/internal/poller"
	"github.com/Vodeneev/keepgaming/internal/sheetsync"
	"github.com/Vodeneev/keepgaming/internal/tracker"
)

const defaultConfigPath = "configs/config.yaml"

type flags struct {
	configPath       string
	newSheet         bool
	updateID         string
	dryRun           bool
	sources          string
	requireMoneyline bool
	watch            bool
	outcome          string
	healthAddr       string
	strict           bool
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("keepgaming: %v", err)
	}
}

func run() error {
	f := parseFlags()
	if err := f.validate(); err != nil {
		flag.Usage()
		return err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	_, logCloser, err := logging.SetupLogger(&cfg.Logging, "keepgaming")
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, f.dryRun)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close event store", "error", err)
		}
	}()

	tr, err := buildTracker(cfg, store, f.requireMoneyline)
	if err != nil {
		return err
	}

	if f.outcome != "" {
		return recordOutcome(ctx, tr, f.outcome)
	}

	backend, sheetURL, err := openBackend(ctx, cfg, f)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	syncer := sheetsync.NewSyncer(backend, sheetsync.DefaultLayout(), sheetsync.ApplierOptions{
		EventBaseURL: cfg.Sheets.EventBaseURL,
		Policy:       sheetsync.ObsoletePolicy(cfg.Sheets.ObsoletePolicy),
		WriteDelay:   cfg.Sheets.WriteDelay,
		MaxAttempts:  cfg.Sheets.MaxAttempts,
		Location:     loc,
	})

	sources, err := parsers.Build(cfg, splitList(f.sources))
	if err != nil {
		return fmt.Errorf("failed to build sources: %w", err)
	}
	if f.newSheet {
		for _, src := range sources {
			if _, err := syncer.Init(ctx, src.Sheet()); err != nil {
				return fmt.Errorf("failed to create sheet %q: %w", src.Sheet(), err)
			}
		}
		fmt.Printf("Created spreadsheet: %s\n", sheetURL)
	}

	opts := poller.Options{
		SourceTimeout: 2 * time.Minute,
		Location:      loc,
	}
	if cfg.KenPom.Enabled {
		kp, err := kenpom.NewSource(cfg.KenPom)
		if err != nil {
			return err
		}
		opts.Predictions = kp
	}
	if cfg.Redis.Addr != "" {
		cache, err := storage.NewPredictionCache(&cfg.Redis)
		if err != nil {
			// predictions are scraped each run instead
			slog.Warn("Prediction cache unavailable", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer cache.Close()
			opts.Cache = cache
		}
	}
	notifier, err := notify.NewTelegramNotifier(cfg.Telegram)
	if err != nil {
		return err
	}
	if notifier != nil {
		opts.Notifier = notifier
	}

	p := poller.New(tr, syncer, sources, opts)
	slog.Info("Starting keepgaming", "sources", len(sources), "sheet", sheetURL, "dry_run", f.dryRun, "watch", f.watch)

	if !f.watch {
		summary, err := p.RunCycle(ctx)
		logSummary(summary)
		if f.dryRun {
			if mem, ok := backend.(*sheetsync.MemoryBackend); ok {
				slog.Info("Dry run finished", "sheets", mem.Titles(), "backend_calls", mem.Calls())
			}
		}
		return cycleError(err, f.strict)
	}

	interval := cfg.Poll.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	status := health.NewStatus(3 * interval)
	if f.healthAddr != "" {
		health.Run(ctx, f.healthAddr, "keepgaming", status, 5*time.Second)
	}
	parserutil.RunLoop(ctx, interval, "keepgaming", func(ctx context.Context, cycleID int64) {
		summary, err := p.RunCycle(ctx)
		logSummary(summary)
		status.Record(summary.Started, time.Since(summary.Started), summary.Predictions, summary.Reports)
		if err != nil {
			slog.Error("Cycle finished with errors", "cycle_id", cycleID, "error", err)
		}
	})
	slog.Info("Stopped")
	return nil
}

func parseFlags() flags {
	var f flags
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&f.configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.BoolVar(&f.newSheet, "new", false, "Create a new spreadsheet and sync into it")
	flag.StringVar(&f.updateID, "update", "", "Sync into an existing spreadsheet by id")
	flag.BoolVar(&f.dryRun, "dry-run", false, "Sync into an in-memory spreadsheet and an in-memory store")
	flag.StringVar(&f.sources, "sources", "", "Comma-separated source names to run (default: all enabled)")
	flag.BoolVar(&f.requireMoneyline, "require-moneyline", false, "Skip games without a moneyline market")
	flag.BoolVar(&f.watch, "watch", false, "Poll every poll.interval until interrupted")
	flag.StringVar(&f.healthAddr, "health-addr", "", "Health server listen address in watch mode (e.g. :8080)")
	flag.BoolVar(&f.strict, "strict", false, "Exit non-zero when any source fails in a single run")
	flag.StringVar(&f.outcome, "record-outcome", "", "Record a final score: event_id,winner,winner_score,loser,loser_score")
	flag.Parse()
	return f
}

func (f flags) validate() error {
	if f.outcome != "" {
		return nil
	}
	modes := 0
	for _, set := range []bool{f.newSheet, f.updateID != "", f.dryRun} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return errors.New("exactly one of -new, -update or -dry-run is required")
	}
	return nil
}

// cycleError decides the exit status of a single run. Failed sources were already
// logged and skipped, so they only fail the run in strict mode.
func cycleError(err error, strict bool) error {
	if err == nil || !strict {
		return nil
	}
	return fmt.Errorf("sources failed: %w", err)
}

func openStore(cfg *config.Config, dryRun bool) (storage.EventStore, error) {
	if dryRun || cfg.Postgres.DSN == "" {
		slog.Info("Using in-memory event store")
		return storage.NewMemoryEventStore(), nil
	}
	store, err := storage.NewPostgresEventStore(&cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}
	return store, nil
}

func buildTracker(cfg *config.Config, store storage.EventStore, requireMoneyline bool) (*tracker.Tracker, error) {
	table := teams.DefaultAliasTable()
	if cfg.Teams.AliasFile != "" {
		t, err := teams.LoadAliasTable(cfg.Teams.AliasFile)
		if err != nil {
			return nil, err
		}
		table = t
	}

	cutoff, err := config.ParseClock(cfg.Poll.DateCutoff)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return tracker.New(store, teams.NewNormalizer(table), tracker.NewDateResolver(cutoff, loc), tracker.Options{
		RequireMoneyline: requireMoneyline || cfg.Poll.RequireMoneyline,
	}), nil
}

// openBackend picks the spreadsheet for the run mode and returns its URL for the operator.
func openBackend(ctx context.Context, cfg *config.Config, f flags) (sheetsync.Backend, string, error) {
	if f.dryRun {
		return sheetsync.NewMemoryBackend(), "memory", nil
	}

	svc, err := gsheets.NewService(ctx, &cfg.Sheets)
	if err != nil {
		return nil, "", err
	}
	if f.newSheet {
		title := fmt.Sprintf("%s %s", cfg.Sheets.Title, time.Now().Format("2006-01-02"))
		client, err := gsheets.Create(ctx, svc, title)
		if err != nil {
			return nil, "", err
		}
		return client, gsheets.URL(client.ID()), nil
	}
	client := gsheets.Open(svc, f.updateID)
	return client, gsheets.URL(client.ID()), nil
}

func recordOutcome(ctx context.Context, tr *tracker.Tracker, arg string) error {
	eventID, outcome, err := parseOutcome(arg)
	if err != nil {
		return err
	}
	return tr.RecordOutcome(ctx, eventID, outcome)
}

func parseOutcome(arg string) (string, models.Outcome, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 5 {
		return "", models.Outcome{}, fmt.Errorf("invalid outcome %q: want event_id,winner,winner_score,loser,loser_score", arg)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	winScore, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", models.Outcome{}, fmt.Errorf("invalid winner score %q", parts[2])
	}
	loseScore, err := strconv.Atoi(parts[4])
	if err != nil {
		return "", models.Outcome{}, fmt.Errorf("invalid loser score %q", parts[4])
	}
	if parts[0] == "" || parts[1] == "" || parts[3] == "" {
		return "", models.Outcome{}, fmt.Errorf("invalid outcome %q: empty field", arg)
	}
	return parts[0], models.Outcome{
		WinningTeam:  parts[1],
		WinningScore: winScore,
		LosingTeam:   parts[3],
		LosingScore:  loseScore,
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func logSummary(s poller.Summary) {
	for _, r := range s.Reports {
		if r.Err != nil {
			slog.Error("Source failed", "source", r.Source, "error", r.Err)
			continue
		}
		slog.Info("Source synced",
			"source", r.Source,
			"sheet", r.Sheet,
			"live", r.Live,
			"created", r.Created,
			"updated", r.Updated,
			"frozen", r.Frozen,
			"appended", r.Appended,
			"obsolete", r.Obsolete,
			"mismatches", len(r.Mismatches),
		)
	}
	slog.Info("Cycle complete", "predictions", s.Predictions, "sources", len(s.Reports), "took", time.Since(s.Started).Round(time.Millisecond))
}
