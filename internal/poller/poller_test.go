package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/Vodeneev/keepgaming/internal/parser/parsers"
	"github.com/Vodeneev/keepgaming/internal/pkg/config"
	"github.com/Vodeneev/keepgaming/internal/pkg/models"
	"github.com/Vodeneev/keepgaming/internal/pkg/notify"
	"github.com/Vodeneev/keepgaming/internal/pkg/storage"
	"github.com/Vodeneev/keepgaming/internal/pkg/teams"
	"github.com/Vodeneev/keepgaming/internal/sheetsync"
	"github.com/Vodeneev/keepgaming/internal/tracker"
)

var pollTime = time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)

type fakeSource struct {
	name   string
	events []models.RawEvent
	err    error
}

func (f *fakeSource) Name() string  { return f.name }
func (f *fakeSource) Sheet() string { return f.name + " sheet" }
func (f *fakeSource) FetchEvents(context.Context) ([]models.RawEvent, error) {
	return f.events, f.err
}

type fakePredictions struct {
	calls int
	preds []models.RawPrediction
}

func (f *fakePredictions) Name() string { return "kenpom" }
func (f *fakePredictions) FetchPredictions(context.Context) ([]models.RawPrediction, error) {
	f.calls++
	return f.preds, nil
}

func game(id, away, home string) models.RawEvent {
	return models.RawEvent{
		EventID: id, AwayTeam: away, HomeTeam: home,
		DateToken: "Today", TimeToken: "7:00PM",
		AwaySpread: 3.5, HomeSpread: -3.5, OverUnder: 145.5,
		AwayMoneyline: 150, HomeMoneyline: -180,
	}
}

type fakeNotifier struct {
	summaries  int
	mismatches [][]tracker.Mismatch
	failNext   bool
}

func (n *fakeNotifier) SendCycleSummary(context.Context, time.Time, []notify.SourceReport) error {
	n.summaries++
	return nil
}

func (n *fakeNotifier) SendMismatches(_ context.Context, _ string, ms []tracker.Mismatch) error {
	if n.failNext {
		n.failNext = false
		return errors.New("telegram unavailable")
	}
	n.mismatches = append(n.mismatches, ms)
	return nil
}

type fixture struct {
	store   *storage.MemoryEventStore
	backend *sheetsync.MemoryBackend
	preds   *fakePredictions
	poller  *Poller
}

func newFixture(t *testing.T, sources ...parsers.Source) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mr.Close)
	cache, err := storage.NewPredictionCache(&config.RedisConfig{Addr: mr.Addr(), PredictionsTTL: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cache.Close() })

	now := func() time.Time { return pollTime }
	f := &fixture{
		store:   storage.NewMemoryEventStore(),
		backend: sheetsync.NewMemoryBackend(),
		preds: &fakePredictions{preds: []models.RawPrediction{
			{AwayTeam: "Duke", HomeTeam: "North Carolina", Winner: "Duke", Score: "78-70", ConfidencePercent: 60},
		}},
	}
	tr := tracker.New(f.store, teams.NewNormalizer(teams.DefaultAliasTable()),
		tracker.NewDateResolver(19*time.Hour, time.UTC), tracker.Options{Now: now})
	syncer := sheetsync.NewSyncer(f.backend, sheetsync.DefaultLayout(), sheetsync.ApplierOptions{
		EventBaseURL: "https://dk.test/event",
		RetryBackoff: time.Millisecond,
		Location:     time.UTC,
	})
	f.poller = New(tr, syncer, sources, Options{
		Predictions: f.preds,
		Cache:       cache,
		Location:    time.UTC,
		Now:         now,
	})
	return f
}

func TestRunCycle(t *testing.T) {
	ctx := context.Background()
	ncaam := &fakeSource{name: "NCAAM", events: []models.RawEvent{game("1", "Duke", "North Carolina"), game("2", "Kansas", "Baylor")}}
	broken := &fakeSource{name: "CFB", err: errors.New("status 503")}
	f := newFixture(t, broken, ncaam)

	summary, err := f.poller.RunCycle(ctx)
	if err == nil {
		t.Error("expected the failing source to be reported")
	}
	if len(summary.Reports) != 2 {
		t.Fatalf("reports = %d, want 2", len(summary.Reports))
	}
	if summary.Reports[0].Err == nil || summary.Reports[1].Err != nil {
		t.Errorf("reports = %+v", summary.Reports)
	}
	r := summary.Reports[1]
	if r.Live != 2 || r.Created != 2 || r.Appended != 2 {
		t.Errorf("NCAAM report = %+v", r)
	}
	if summary.Predictions != 1 {
		t.Errorf("predictions = %d, want 1", summary.Predictions)
	}

	ev, err := f.store.FindEvent(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	latest, _ := ev.Latest()
	if latest.Prediction == nil || latest.AwayKelly(ev.AwayTeam) != 0.73 {
		t.Errorf("latest snapshot prediction = %+v", latest.Prediction)
	}
	if got := f.backend.Cell("NCAAM sheet", 3, "U"); got != "0.73" {
		t.Errorf("Kelly cell = %q, want 0.73", got)
	}
}

func TestRunCycle_PredictionsCachedAndChoicesSaved(t *testing.T) {
	ctx := context.Background()
	ncaam := &fakeSource{name: "NCAAM", events: []models.RawEvent{game("1", "Duke", "North Carolina")}}
	f := newFixture(t, ncaam)

	if _, err := f.poller.RunCycle(ctx); err != nil {
		t.Fatal(err)
	}
	// operator ticks the home moneyline box
	if err := f.backend.WriteRange(ctx, "'NCAAM sheet'!M4", [][]interface{}{{true}}, sheetsync.InputUserEntered); err != nil {
		t.Fatal(err)
	}
	summary, err := f.poller.RunCycle(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if f.preds.calls != 1 {
		t.Errorf("prediction feed fetched %d times, want 1", f.preds.calls)
	}
	if summary.Reports[0].Updated != 1 {
		t.Errorf("report = %+v", summary.Reports[0])
	}

	ev, err := f.store.FindEvent(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if !ev.Choices.BetHomeMoneyline {
		t.Errorf("choices = %+v, want home moneyline saved", ev.Choices)
	}
	if len(ev.LineHistory) != 2 {
		t.Errorf("history = %d snapshots, want 2", len(ev.LineHistory))
	}
}

func TestRunCycle_MismatchesSentOnce(t *testing.T) {
	ctx := context.Background()
	ncaam := &fakeSource{name: "NCAAM", events: []models.RawEvent{game("1", "Duke", "UNC Tar Heels")}}
	f := newFixture(t, ncaam)
	n := &fakeNotifier{failNext: true}
	f.poller.opts.Notifier = n

	for i := 0; i < 3; i++ {
		if _, err := f.poller.RunCycle(ctx); err != nil {
			t.Fatal(err)
		}
	}

	if n.summaries != 3 {
		t.Errorf("summaries = %d, want 3", n.summaries)
	}
	// first send fails, second goes out, third has nothing new
	if len(n.mismatches) != 1 {
		t.Fatalf("mismatch messages = %d, want 1", len(n.mismatches))
	}
	want := tracker.Mismatch{EventID: "1", Predicted: "North Carolina", Event: "UNC Tar Heels"}
	if got := n.mismatches[0]; len(got) != 1 || got[0] != want {
		t.Errorf("mismatches = %+v, want [%+v]", got, want)
	}
}
