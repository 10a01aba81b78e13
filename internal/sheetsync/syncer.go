package sheetsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/keepgaming/internal/pkg/models"
	"google.golang.org/api/sheets/v4"
)

// SyncResult reports one pass over a sheet.
type SyncResult struct {
	Plan    Plan
	Applied ApplyResult
	// Choices are the bet checkboxes found on the sheet before the pass, by event id.
	Choices map[string]models.BettingChoices
}

// Syncer keeps one sheet per source in line with the source's live events.
type Syncer struct {
	backend Backend
	applier *Applier
	layout  Layout
	now     func() time.Time
	loc     *time.Location
}

func NewSyncer(backend Backend, layout Layout, opts ApplierOptions) *Syncer {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Syncer{
		backend: backend,
		applier: NewApplier(backend, layout, opts),
		layout:  layout,
		now:     time.Now,
		loc:     loc,
	}
}

// Init creates the sheet if needed and writes the header rows.
func (s *Syncer) Init(ctx context.Context, sheet string) (int64, error) {
	var sheetID int64
	err := s.applier.call(ctx, "ensure sheet "+sheet, func(ctx context.Context) error {
		id, _, err := s.backend.EnsureSheet(ctx, sheet)
		sheetID = id
		return err
	})
	if err != nil {
		return 0, err
	}
	return sheetID, s.writeHeader(ctx, sheet, sheetID)
}

func (s *Syncer) writeHeader(ctx context.Context, sheet string, sheetID int64) error {
	row := make([]interface{}, 0, columnCount)
	for _, h := range headers {
		row = append(row, h)
	}
	built := "Built: " + s.now().In(s.loc).Format("2006-01-02 15:04")
	values := [][]interface{}{row, {built}}

	if err := s.applier.call(ctx, "write header", func(ctx context.Context) error {
		if err := s.backend.WriteRange(ctx, a1(sheet, colGameLink, 1, colKellyLatest, 1), values[:1], InputRaw); err != nil {
			return err
		}
		return s.backend.WriteRange(ctx, a1(sheet, colGameLink, 2, colGameLink, 2), values[1:], InputRaw)
	}); err != nil {
		return err
	}
	if err := s.applier.call(ctx, "format header", func(ctx context.Context) error {
		return s.backend.BatchFormat(ctx, headerRequests(sheetID))
	}); err != nil {
		return err
	}
	slog.Info("Initialized sheet", "sheet", sheet)
	return nil
}

// Sync reads the sheet's key column, plans the difference against events and applies it.
// events are the live events in display order.
func (s *Syncer) Sync(ctx context.Context, sheet string, events []*models.Event) (SyncResult, error) {
	var res SyncResult

	var sheetID int64
	var created bool
	if err := s.applier.call(ctx, "ensure sheet "+sheet, func(ctx context.Context) error {
		id, c, err := s.backend.EnsureSheet(ctx, sheet)
		sheetID, created = id, c
		return err
	}); err != nil {
		return res, err
	}
	if created {
		if err := s.writeHeader(ctx, sheet, sheetID); err != nil {
			return res, err
		}
	}

	keys, err := s.applier.read(ctx, a1Column(sheet, colGameLink))
	if err != nil {
		return res, err
	}
	index := ParseKeyColumn(keys, s.layout)

	res.Choices, err = s.applier.ReadChoices(ctx, sheet, index)
	if err != nil {
		return res, err
	}

	live := make([]string, 0, len(events))
	for _, ev := range events {
		live = append(live, ev.EventID)
	}
	res.Plan = Reconcile(live, index, s.layout)
	slog.Debug("Planned sheet sync", "sheet", sheet,
		"updates", len(res.Plan.Updates), "appends", len(res.Plan.Appends), "obsolete", len(res.Plan.Deletions))

	res.Applied, err = s.applier.Apply(ctx, sheet, sheetID, res.Plan, events)
	if err != nil {
		return res, fmt.Errorf("failed to sync sheet %q: %w", sheet, err)
	}

	if !res.Plan.Empty() {
		if err := s.applier.call(ctx, "resize columns", func(ctx context.Context) error {
			return s.backend.BatchFormat(ctx, []*sheets.Request{autoResizeRequest(sheetID)})
		}); err != nil {
			// cosmetic only
			slog.Warn("Failed to resize columns", "sheet", sheet, "error", err)
		}
	}

	slog.Info("Synced sheet", "sheet", sheet,
		"updated", res.Applied.Updated, "appended", res.Applied.Appended, "obsolete", res.Applied.Obsolete)
	return res, nil
}
