package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/keepgaming/internal/parser/parsers"
	"github.com/Vodeneev/keepgaming/internal/pkg/models"
	"github.com/Vodeneev/keepgaming/internal/pkg/notify"
	"github.com/Vodeneev/keepgaming/internal/pkg/parserutil"
	"github.com/Vodeneev/keepgaming/internal/sheetsync"
	"github.com/Vodeneev/keepgaming/internal/tracker"
)

// PredictionCache keeps one scrape of a prediction feed per day.
type PredictionCache interface {
	Get(ctx context.Context, source string, day time.Time) ([]models.Prediction, bool, error)
	Put(ctx context.Context, source string, day time.Time, preds []models.Prediction) error
}

// Notifier receives cycle reports. *notify.TelegramNotifier implements it.
type Notifier interface {
	SendCycleSummary(ctx context.Context, started time.Time, reports []notify.SourceReport) error
	SendMismatches(ctx context.Context, source string, mismatches []tracker.Mismatch) error
}

type Options struct {
	// Predictions is optional; without it no Kelly values are computed.
	Predictions parsers.PredictionSource
	// Cache is optional.
	Cache    PredictionCache
	Notifier Notifier
	// SourceTimeout bounds fetch, reconcile and sync of one source.
	SourceTimeout time.Duration
	Location      *time.Location
	Now           func() time.Time
}

// Summary is the outcome of one cycle over all sources.
type Summary struct {
	Started     time.Time
	Predictions int
	Reports     []notify.SourceReport
}

// Poller runs cycles: predictions once, then every source in turn.
type Poller struct {
	tracker *tracker.Tracker
	syncer  *sheetsync.Syncer
	sources []parsers.Source
	opts    Options

	// mismatches already sent in this process, by source
	notified map[string]map[tracker.Mismatch]bool
}

func New(tr *tracker.Tracker, syncer *sheetsync.Syncer, sources []parsers.Source, opts Options) *Poller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Poller{
		tracker:  tr,
		syncer:   syncer,
		sources:  sources,
		opts:     opts,
		notified: make(map[string]map[tracker.Mismatch]bool),
	}
}

// RunCycle polls every source once. A failing source is reported and skipped; the
// returned error joins all source failures.
func (p *Poller) RunCycle(ctx context.Context) (Summary, error) {
	summary := Summary{Started: p.opts.Now()}

	preds, err := p.loadPredictions(ctx, summary.Started)
	if err != nil {
		// lines are still tracked without predictions
		slog.Error("Failed to load predictions", "error", err)
	}
	summary.Predictions = len(preds)

	runErr := parserutil.RunSources(ctx, p.sources, func(ctx context.Context, src parsers.Source) error {
		report := notify.SourceReport{Source: src.Name(), Sheet: src.Sheet()}
		report.Err = p.runSource(ctx, src, preds, &report)
		summary.Reports = append(summary.Reports, report)
		return report.Err
	}, parserutil.RunOptions{LogStart: true, SourceTimeout: p.opts.SourceTimeout})

	p.notify(ctx, summary)
	return summary, runErr
}

// notify sends the cycle summary and any mismatches not sent before.
func (p *Poller) notify(ctx context.Context, summary Summary) {
	if p.opts.Notifier == nil {
		return
	}
	for _, r := range summary.Reports {
		fresh := p.unsentMismatches(r.Source, r.Mismatches)
		if len(fresh) == 0 {
			continue
		}
		if err := p.opts.Notifier.SendMismatches(ctx, r.Source, fresh); err != nil {
			slog.Warn("Failed to send mismatches", "source", r.Source, "error", err)
			continue
		}
		sent := p.notified[r.Source]
		if sent == nil {
			sent = make(map[tracker.Mismatch]bool)
			p.notified[r.Source] = sent
		}
		for _, m := range fresh {
			sent[mismatchKey(m)] = true
		}
	}
	if err := p.opts.Notifier.SendCycleSummary(ctx, summary.Started, summary.Reports); err != nil {
		slog.Warn("Failed to send cycle summary", "error", err)
	}
}

func (p *Poller) unsentMismatches(source string, mismatches []tracker.Mismatch) []tracker.Mismatch {
	sent := p.notified[source]
	var fresh []tracker.Mismatch
	seen := make(map[tracker.Mismatch]bool, len(mismatches))
	for _, m := range mismatches {
		key := mismatchKey(m)
		if sent[key] || seen[key] {
			continue
		}
		seen[key] = true
		fresh = append(fresh, m)
	}
	return fresh
}

// mismatchKey identifies a mismatch by the name pair only; event ids change daily.
func mismatchKey(m tracker.Mismatch) tracker.Mismatch {
	return tracker.Mismatch{Predicted: m.Predicted, Event: m.Event}
}

func (p *Poller) runSource(ctx context.Context, src parsers.Source, preds []models.Prediction, report *notify.SourceReport) error {
	raws, err := src.FetchEvents(ctx)
	if err != nil {
		return err
	}

	res, err := p.tracker.Reconcile(ctx, src.Name(), raws, preds)
	if err != nil {
		return err
	}
	report.Live = len(res.Live)
	report.Created = res.Created
	report.Updated = res.Updated
	report.Frozen = res.Frozen
	report.Mismatches = res.Mismatches

	synced, err := p.syncer.Sync(ctx, src.Sheet(), res.Live)
	if err != nil {
		return err
	}
	report.Appended = synced.Applied.Appended
	report.Obsolete = synced.Applied.Obsolete

	written, err := p.tracker.SyncChoices(ctx, res.Live, synced.Choices)
	if err != nil {
		return err
	}
	if written > 0 {
		slog.Info("Saved betting choices from sheet", "source", src.Name(), "events", written)
	}
	return nil
}

func (p *Poller) loadPredictions(ctx context.Context, now time.Time) ([]models.Prediction, error) {
	src := p.opts.Predictions
	if src == nil {
		return nil, nil
	}
	day := now.In(p.opts.Location)

	if p.opts.Cache != nil {
		preds, ok, err := p.opts.Cache.Get(ctx, src.Name(), day)
		if err != nil {
			slog.Warn("Prediction cache read failed", "source", src.Name(), "error", err)
		} else if ok {
			slog.Debug("Using cached predictions", "source", src.Name(), "predictions", len(preds))
			return preds, nil
		}
	}

	raws, err := src.FetchPredictions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch predictions from %s: %w", src.Name(), err)
	}
	preds := p.tracker.Predictions(raws)

	if p.opts.Cache != nil {
		if err := p.opts.Cache.Put(ctx, src.Name(), day, preds); err != nil {
			slog.Warn("Prediction cache write failed", "source", src.Name(), "error", err)
		}
	}
	return preds, nil
}
