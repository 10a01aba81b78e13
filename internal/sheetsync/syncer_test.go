package sheetsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Vodeneev/keepgaming/internal/pkg/models"
	"google.golang.org/api/googleapi"
)

const testSheet = "NCAAB"

func newTestSyncer(policy ObsoletePolicy) (*Syncer, *MemoryBackend) {
	backend := NewMemoryBackend()
	s := NewSyncer(backend, DefaultLayout(), ApplierOptions{
		EventBaseURL: "https://dk.test/event",
		Policy:       policy,
		RetryBackoff: time.Millisecond,
		Location:     time.UTC,
	})
	s.now = func() time.Time { return testTime }
	return s, backend
}

func events(ids ...string) []*models.Event {
	out := make([]*models.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, testEvent(id, -3.5))
	}
	return out
}

func TestSync_NewSheet(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestSyncer(ObsoleteMark)

	res, err := s.Sync(ctx, testSheet, events("A", "B", "C"))
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if res.Applied.Appended != 3 || res.Applied.Updated != 0 {
		t.Errorf("applied = %+v, want 3 appends", res.Applied)
	}
	if got := backend.Cell(testSheet, 1, "A"); got != "Game Link" {
		t.Errorf("A1 = %q", got)
	}
	if got := backend.Cell(testSheet, 2, "A"); got != "Built: 2026-10-15 10:00" {
		t.Errorf("A2 = %q", got)
	}
	for row, id := range map[int]string{3: "A", 6: "B", 9: "C"} {
		if got := backend.Cell(testSheet, row, "A"); got != "https://dk.test/event/"+id {
			t.Errorf("key at row %d = %q", row, got)
		}
	}
	if got := backend.Cell(testSheet, 4, "D"); got != "North Carolina" {
		t.Errorf("D4 = %q", got)
	}
	if got := backend.Cell(testSheet, 3, "E"); got != "-3.5" {
		t.Errorf("E3 = %q", got)
	}
	if got := backend.Cell(testSheet, 3, "P"); got != "=MINUS(E3,O3)" {
		t.Errorf("P3 = %q", got)
	}
}

func TestSync_RetiresGoneEvents(t *testing.T) {
	tests := []struct {
		policy  ObsoletePolicy
		cRow    int
		bKeyRow int
		bKey    string
	}{
		{policy: ObsoleteMark, cRow: 9, bKeyRow: 6, bKey: "#https://dk.test/event/B"},
		{policy: ObsoleteDelete, cRow: 6, bKeyRow: 9, bKey: ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			ctx := context.Background()
			s, backend := newTestSyncer(tt.policy)
			if _, err := s.Sync(ctx, testSheet, events("A", "B", "C")); err != nil {
				t.Fatal(err)
			}

			res, err := s.Sync(ctx, testSheet, events("A", "C"))
			if err != nil {
				t.Fatal(err)
			}
			wantDeletion := []Op{{"B", 6}}
			if len(res.Plan.Deletions) != 1 || res.Plan.Deletions[0] != wantDeletion[0] {
				t.Errorf("deletions = %+v, want %+v", res.Plan.Deletions, wantDeletion)
			}
			if len(res.Plan.Updates) != 2 || len(res.Plan.Appends) != 0 {
				t.Errorf("plan = %+v", res.Plan)
			}
			if got := backend.Cell(testSheet, tt.cRow, "A"); got != "https://dk.test/event/C" {
				t.Errorf("C key at row %d = %q", tt.cRow, got)
			}
			if got := backend.Cell(testSheet, tt.bKeyRow, "A"); got != tt.bKey {
				t.Errorf("row %d key = %q, want %q", tt.bKeyRow, got, tt.bKey)
			}

			// a second pass with the same live set changes nothing structurally
			again, err := s.Sync(ctx, testSheet, events("A", "C"))
			if err != nil {
				t.Fatal(err)
			}
			if len(again.Plan.Deletions) != 0 || len(again.Plan.Appends) != 0 || len(again.Plan.Updates) != 2 {
				t.Errorf("rerun plan = %+v, want updates only", again.Plan)
			}
		})
	}
}

func TestApply_DeletesBottomUp(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestSyncer(ObsoleteDelete)
	if _, err := s.Sync(ctx, testSheet, events("A", "B", "C", "D")); err != nil {
		t.Fatal(err)
	}
	res, err := s.Sync(ctx, testSheet, events("A"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Applied.Obsolete != 3 {
		t.Errorf("obsolete = %d, want 3", res.Applied.Obsolete)
	}
	if got := backend.Cell(testSheet, 3, "A"); got != "https://dk.test/event/A" {
		t.Errorf("A3 = %q", got)
	}
	for _, row := range []int{6, 9, 12} {
		if got := backend.Cell(testSheet, row, "A"); got != "" {
			t.Errorf("row %d still holds %q", row, got)
		}
	}
}

func TestSync_ReadsChoices(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestSyncer(ObsoleteMark)
	if _, err := s.Sync(ctx, testSheet, events("A", "B")); err != nil {
		t.Fatal(err)
	}
	// operator ticks boxes
	if err := backend.WriteRange(ctx, "'NCAAB'!F3", [][]interface{}{{true}}, InputUserEntered); err != nil {
		t.Fatal(err)
	}
	if err := backend.WriteRange(ctx, "'NCAAB'!J7:M7", [][]interface{}{{"true", "", "", "TRUE"}}, InputUserEntered); err != nil {
		t.Fatal(err)
	}

	res, err := s.Sync(ctx, testSheet, events("A", "B"))
	if err != nil {
		t.Fatal(err)
	}
	wantA := models.BettingChoices{BetAwaySpread: true}
	wantB := models.BettingChoices{BetUnder: true, BetHomeMoneyline: true}
	if res.Choices["A"] != wantA {
		t.Errorf("choices A = %+v, want %+v", res.Choices["A"], wantA)
	}
	if res.Choices["B"] != wantB {
		t.Errorf("choices B = %+v, want %+v", res.Choices["B"], wantB)
	}
	// updates leave the checkboxes alone
	if got := backend.Cell(testSheet, 3, "F"); got != "TRUE" {
		t.Errorf("F3 = %q after update", got)
	}
}

func TestSync_RetriesTransientErrors(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestSyncer(ObsoleteMark)
	backend.FailNext(&googleapi.Error{Code: 503}, &googleapi.Error{Code: 429})

	res, err := s.Sync(ctx, testSheet, events("A"))
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if res.Applied.Appended != 1 {
		t.Errorf("appended = %d, want 1", res.Applied.Appended)
	}
}

func TestSync_PermanentErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestSyncer(ObsoleteMark)
	backend.FailNext(&googleapi.Error{Code: 400})

	_, err := s.Sync(ctx, testSheet, events("A"))
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != 400 {
		t.Fatalf("Sync() error = %v, want googleapi 400", err)
	}
	if backend.Calls() != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", backend.Calls())
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&googleapi.Error{Code: 429}, true},
		{&googleapi.Error{Code: 500}, true},
		{&googleapi.Error{Code: 404}, false},
		{errors.New("boom"), false},
		{context.DeadlineExceeded, true},
	}
	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
