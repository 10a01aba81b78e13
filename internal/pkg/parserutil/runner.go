package parserutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/keepgaming/internal/parser/parsers"
)

// SourceFunc runs one cycle step for a source.
type SourceFunc func(ctx context.Context, src parsers.Source) error

// RunOptions configures how sources are run.
type RunOptions struct {
	// LogStart logs when each source starts.
	LogStart bool
	// OnError is called when a source fails. If nil, errors are logged.
	OnError func(src parsers.Source, err error)
	// SourceTimeout bounds each source; zero means no limit beyond ctx.
	SourceTimeout time.Duration
}

// RunSources runs sources one after another. A failing source does not stop the others;
// all failures are returned joined.
func RunSources(ctx context.Context, sources []parsers.Source, fn SourceFunc, opts RunOptions) error {
	onError := opts.OnError
	if onError == nil {
		onError = func(src parsers.Source, err error) {
			slog.Error("Source failed", "source", src.Name(), "error", err)
		}
	}

	var errs []error
	for _, src := range sources {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if opts.LogStart {
			slog.Info("Starting source", "source", src.Name(), "sheet", src.Sheet())
		}

		srcCtx, cancel := CreateCycleContext(ctx, opts.SourceTimeout)
		err := fn(srcCtx, src)
		cancel()
		if err != nil {
			onError(src, err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// CreateCycleContext creates a context for a cycle with optional timeout.
func CreateCycleContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

// RunLoop runs cycle immediately and then every interval until ctx is done.
// A cycle that overruns the interval delays the next one; ticks are not queued.
func RunLoop(ctx context.Context, interval time.Duration, name string, cycle func(ctx context.Context, cycleID int64)) {
	slog.Info("Polling loop started", "loop", name, "interval", interval)
	var cycleID int64

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		cycleID++
		start := time.Now()
		slog.Info("Starting cycle", "loop", name, "cycle_id", cycleID)
		cycle(ctx, cycleID)
		duration := time.Since(start)
		slog.Info("Cycle finished", "loop", name, "cycle_id", cycleID, "duration", duration, "duration_sec", duration.Seconds())

		if ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case <-ticker.C:
				continue
			}
		}
		slog.Info("Polling loop stopped", "loop", name, "total_cycles", cycleID)
		return
	}
}
