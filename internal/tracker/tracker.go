package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/keepgaming/internal/pkg/models"
	"github.com/Vodeneev/keepgaming/internal/pkg/storage"
	"github.com/Vodeneev/keepgaming/internal/pkg/teams"
)

// ErrOutcomeAlreadySet is returned by RecordOutcome when the game already has a result.
var ErrOutcomeAlreadySet = storage.ErrOutcomeAlreadySet

type Options struct {
	// RequireMoneyline drops rows where neither side has a moneyline (props, exhibitions).
	RequireMoneyline bool
	// Now is the poll clock; defaults to time.Now.
	Now func() time.Time
}

// Tracker reconciles scraped rows with stored events, one poll cycle at a time.
type Tracker struct {
	store      storage.EventStore
	normalizer *teams.Normalizer
	dates      DateResolver
	opts       Options
}

func New(store storage.EventStore, normalizer *teams.Normalizer, dates DateResolver, opts Options) *Tracker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		store:      store,
		normalizer: normalizer,
		dates:      dates,
		opts:       opts,
	}
}

// CycleResult is what one source's poll produced.
type CycleResult struct {
	Source string
	// Live holds the qualifying events in scrape order, as stored after this cycle.
	Live       []*models.Event
	Mismatches []Mismatch

	Created  int
	Updated  int
	Frozen   int
	Skipped  int // first seen while already in progress
	Filtered int // unresolved date, missing moneyline, missing id
}

// LiveIDs returns the event ids of Live in order.
func (r *CycleResult) LiveIDs() []string {
	ids := make([]string, 0, len(r.Live))
	for _, ev := range r.Live {
		ids = append(ids, ev.EventID)
	}
	return ids
}

// Reconcile applies one poll of source to the store:
// unseen events are created with a first snapshot, known events get a snapshot appended,
// and events in progress are frozen. Predictions are linked to the new snapshots.
func (t *Tracker) Reconcile(ctx context.Context, source string, raws []models.RawEvent, predictions []models.Prediction) (*CycleResult, error) {
	now := t.opts.Now()
	result := &CycleResult{Source: source}

	drafts := t.qualify(raws, now, result)

	var candidates []*models.Event
	for _, d := range drafts {
		if !d.InProgress {
			candidates = append(candidates, d.Event)
		}
	}
	links, mismatches := LinkPredictions(predictions, candidates)
	result.Mismatches = mismatches
	for _, m := range mismatches {
		slog.Warn("Team name mismatch", "source", source, "event_id", m.EventID, "predicted", m.Predicted, "event", m.Event)
	}

	for _, d := range drafts {
		snap := models.SnapshotFromRaw(d.raw, now)
		snap.Prediction = links[d.EventID]

		ev, err := t.reconcileOne(ctx, d, snap, result)
		if err != nil {
			return result, fmt.Errorf("failed to reconcile event %s: %w", d.EventID, err)
		}
		if ev != nil {
			result.Live = append(result.Live, ev)
		}
	}

	slog.Info("Reconciled events",
		"source", source,
		"live", len(result.Live),
		"created", result.Created,
		"updated", result.Updated,
		"frozen", result.Frozen,
		"skipped", result.Skipped,
		"filtered", result.Filtered,
		"mismatches", len(result.Mismatches))
	return result, nil
}

// draft is a scraped row after normalization and date resolution.
type draft struct {
	*models.Event
	raw models.RawEvent
}

func (t *Tracker) qualify(raws []models.RawEvent, now time.Time, result *CycleResult) []draft {
	seen := make(map[string]bool, len(raws))
	drafts := make([]draft, 0, len(raws))
	for _, raw := range raws {
		if raw.EventID == "" || seen[raw.EventID] {
			result.Filtered++
			continue
		}
		date := t.dates.Resolve(raw.DateToken, now)
		if date == "" {
			slog.Debug("Skipping event without a date", "event_id", raw.EventID, "token", raw.DateToken)
			result.Filtered++
			continue
		}
		if t.opts.RequireMoneyline && raw.AwayMoneyline == 0 && raw.HomeMoneyline == 0 {
			slog.Debug("Skipping event without a moneyline", "event_id", raw.EventID)
			result.Filtered++
			continue
		}
		seen[raw.EventID] = true

		drafts = append(drafts, draft{
			Event: &models.Event{
				Identity: models.Identity{
					EventID:  raw.EventID,
					GameDate: date,
					GameTime: raw.TimeToken,
					AwayTeam: t.normalizer.Normalize(raw.AwayTeam),
					HomeTeam: t.normalizer.Normalize(raw.HomeTeam),
				},
				InProgress: raw.InProgress,
			},
			raw: raw,
		})
	}
	return drafts
}

// reconcileOne returns the event as it stands after this poll, or nil if it is not tracked.
func (t *Tracker) reconcileOne(ctx context.Context, d draft, snap models.LineSnapshot, result *CycleResult) (*models.Event, error) {
	existing, err := t.store.FindEvent(ctx, d.EventID)
	if errors.Is(err, storage.ErrEventNotFound) {
		return t.create(ctx, d, snap, result)
	}
	if err != nil {
		return nil, err
	}

	if d.InProgress || existing.Frozen {
		if !existing.Frozen {
			if err := t.store.FreezeEvent(ctx, d.EventID); err != nil {
				return nil, err
			}
			existing.Frozen = true
			slog.Info("Closing line recorded", "event_id", d.EventID, "matchup", existing.Matchup(), "snapshots", len(existing.LineHistory))
		}
		existing.InProgress = d.InProgress
		result.Frozen++
		return existing, nil
	}

	if merged, changed := existing.Identity.Merge(d.Identity); changed {
		if err := t.store.SetIdentity(ctx, merged); err != nil {
			if errors.Is(err, storage.ErrEventNotFound) {
				return t.create(ctx, d, snap, result)
			}
			return nil, err
		}
		existing.Identity = merged
	}

	if err := t.store.AppendSnapshot(ctx, d.EventID, snap); err != nil {
		if errors.Is(err, storage.ErrEventNotFound) {
			return t.create(ctx, d, snap, result)
		}
		return nil, err
	}
	existing.AddSnapshot(snap)
	result.Updated++
	return existing, nil
}

func (t *Tracker) create(ctx context.Context, d draft, snap models.LineSnapshot, result *CycleResult) (*models.Event, error) {
	if d.InProgress {
		// never track a game first seen after tip-off
		result.Skipped++
		return nil, nil
	}

	ev := &models.Event{Identity: d.Identity, LastUpdated: snap.CapturedAt}
	inserted, err := t.store.InsertEvent(ctx, ev)
	if err != nil {
		return nil, err
	}
	if !inserted {
		slog.Warn("Event appeared between lookup and insert", "event_id", d.EventID)
	}
	if err := t.store.AppendSnapshot(ctx, d.EventID, snap); err != nil {
		return nil, err
	}
	ev.AddSnapshot(snap)
	result.Created++
	slog.Debug("Added new event", "event_id", d.EventID, "matchup", ev.Matchup())
	return ev, nil
}

// SyncChoices persists operator bet decisions read back from the view.
// Only events whose choices differ from the stored ones are written. Returns the number written.
func (t *Tracker) SyncChoices(ctx context.Context, events []*models.Event, choices map[string]models.BettingChoices) (int, error) {
	written := 0
	for _, ev := range events {
		c, ok := choices[ev.EventID]
		if !ok || c == ev.Choices {
			continue
		}
		if err := t.store.SetBettingChoices(ctx, ev.EventID, c); err != nil {
			if errors.Is(err, storage.ErrEventNotFound) {
				slog.Warn("Betting choices for unknown event", "event_id", ev.EventID)
				continue
			}
			return written, fmt.Errorf("failed to save betting choices: %w", err)
		}
		ev.Choices = c
		written++
	}
	return written, nil
}

// RecordOutcome stores the final result of a game once.
func (t *Tracker) RecordOutcome(ctx context.Context, eventID string, outcome models.Outcome) error {
	if err := t.store.SetOutcome(ctx, eventID, outcome); err != nil {
		return fmt.Errorf("failed to record outcome for %s: %w", eventID, err)
	}
	slog.Info("Recorded outcome", "event_id", eventID, "winner", outcome.WinningTeam,
		"score", fmt.Sprintf("%d-%d", outcome.WinningScore, outcome.LosingScore))
	return nil
}
