package sheetsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Vodeneev/keepgaming/internal/pkg/models"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"
)

// ObsoletePolicy says what happens to blocks of events that are no longer live.
type ObsoletePolicy string

const (
	// ObsoleteMark greys the block out and disables its key so it is not read back as live.
	ObsoleteMark ObsoletePolicy = "mark"
	// ObsoleteDelete removes the block's rows.
	ObsoleteDelete ObsoletePolicy = "delete"
)

type ApplierOptions struct {
	EventBaseURL string
	Policy       ObsoletePolicy
	// WriteDelay is the pause between backend calls; the API enforces a request quota.
	WriteDelay   time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
	Location     *time.Location // timestamps in the "Updated" column
}

// ApplyResult counts what a plan did to the view.
type ApplyResult struct {
	Updated  int
	Appended int
	Obsolete int
}

// Applier executes plans against a backend. Each backend call is paced, retried on
// transient errors and guarded by a circuit breaker.
type Applier struct {
	backend Backend
	layout  Layout
	opts    ApplierOptions
	render  renderer
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func NewApplier(backend Backend, layout Layout, opts ApplierOptions) *Applier {
	if opts.Policy == "" {
		opts.Policy = ObsoleteMark
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 3 * time.Second
	}

	limit := rate.Inf
	if opts.WriteDelay > 0 {
		limit = rate.Every(opts.WriteDelay)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sheets",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "circuit", name, "from", from.String(), "to", to.String())
		},
	})

	return &Applier{
		backend: backend,
		layout:  layout,
		opts:    opts,
		render:  renderer{baseURL: opts.EventBaseURL, location: opts.Location},
		limiter: rate.NewLimiter(limit, 1),
		breaker: breaker,
	}
}

// Apply runs updates, then appends, then obsolete handling in the plan's order.
// Every operation is an overwrite, so re-running a partially applied plan is safe.
func (a *Applier) Apply(ctx context.Context, sheet string, sheetID int64, plan Plan, events []*models.Event) (ApplyResult, error) {
	var res ApplyResult
	byID := make(map[string]*models.Event, len(events))
	for _, ev := range events {
		byID[ev.EventID] = ev
	}

	for _, op := range plan.Updates {
		ev, ok := byID[op.EventID]
		if !ok {
			slog.Warn("No event for planned update", "sheet", sheet, "event_id", op.EventID)
			continue
		}
		rng := a1(sheet, colUpdated, op.Row, colKellyLatest, op.Row+1)
		values := a.render.latestValues(ev, op.Row)
		if err := a.call(ctx, "update "+op.EventID, func(ctx context.Context) error {
			return a.backend.WriteRange(ctx, rng, values, InputUserEntered)
		}); err != nil {
			return res, err
		}
		res.Updated++
		slog.Debug("Updated event rows", "sheet", sheet, "event_id", op.EventID, "row", op.Row, "matchup", ev.Matchup())
	}

	for _, op := range plan.Appends {
		ev, ok := byID[op.EventID]
		if !ok {
			slog.Warn("No event for planned append", "sheet", sheet, "event_id", op.EventID)
			continue
		}
		rng := a1(sheet, colGameLink, op.Row, colKellyLatest, op.Row+1)
		values := a.render.blockValues(ev, op.Row)
		if err := a.call(ctx, "append "+op.EventID, func(ctx context.Context) error {
			return a.backend.WriteRange(ctx, rng, values, InputUserEntered)
		}); err != nil {
			return res, err
		}
		reqs := blockRequests(sheetID, op.Row, models.EventURL(a.opts.EventBaseURL, ev.EventID))
		if err := a.call(ctx, "format "+op.EventID, func(ctx context.Context) error {
			return a.backend.BatchFormat(ctx, reqs)
		}); err != nil {
			return res, err
		}
		res.Appended++
		slog.Info("Added new entry", "sheet", sheet, "event_id", op.EventID, "row", op.Row, "matchup", ev.Matchup())
	}

	for _, op := range plan.Deletions {
		if err := a.retire(ctx, sheet, sheetID, op); err != nil {
			return res, err
		}
		res.Obsolete++
	}
	return res, nil
}

func (a *Applier) retire(ctx context.Context, sheet string, sheetID int64, op Op) error {
	if a.opts.Policy == ObsoleteDelete {
		req := deleteBlockRequest(sheetID, op.Row, a.layout.BlockSize)
		if err := a.call(ctx, "delete "+op.EventID, func(ctx context.Context) error {
			return a.backend.BatchFormat(ctx, []*sheets.Request{req})
		}); err != nil {
			return err
		}
		slog.Info("Deleted obsolete event rows", "sheet", sheet, "event_id", op.EventID, "row", op.Row)
		return nil
	}

	reqs := obsoleteRequests(sheetID, op.Row)
	if err := a.call(ctx, "mark "+op.EventID, func(ctx context.Context) error {
		return a.backend.BatchFormat(ctx, reqs)
	}); err != nil {
		return err
	}
	key := [][]interface{}{{ObsoleteMarker + models.EventURL(a.opts.EventBaseURL, op.EventID)}}
	if err := a.call(ctx, "disable key "+op.EventID, func(ctx context.Context) error {
		return a.backend.WriteRange(ctx, a1(sheet, colGameLink, op.Row, colGameLink, op.Row), key, InputRaw)
	}); err != nil {
		return err
	}
	slog.Info("Marked obsolete event", "sheet", sheet, "event_id", op.EventID, "row", op.Row)
	return nil
}

// read fetches a range with the same pacing and retries as writes.
func (a *Applier) read(ctx context.Context, rng string) ([][]string, error) {
	var values [][]string
	err := a.call(ctx, "read "+rng, func(ctx context.Context) error {
		v, err := a.backend.ReadRange(ctx, rng)
		values = v
		return err
	})
	return values, err
}

// call runs one backend call through the breaker; transient failures are retried inside it.
func (a *Applier) call(ctx context.Context, what string, fn func(context.Context) error) error {
	_, err := a.breaker.Execute(func() (interface{}, error) {
		return nil, a.retry(ctx, what, fn)
	})
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	return nil
}

func (a *Applier) retry(ctx context.Context, what string, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= a.opts.MaxAttempts; attempt++ {
		if err = a.limiter.Wait(ctx); err != nil {
			return err
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if !IsTransient(err) || attempt == a.opts.MaxAttempts {
			return err
		}
		slog.Warn("Transient spreadsheet error, retrying", "op", what, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.opts.RetryBackoff * time.Duration(attempt)):
		}
	}
	return err
}

// IsTransient reports whether err is worth retrying: quota (429), server errors and timeouts.
func IsTransient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
