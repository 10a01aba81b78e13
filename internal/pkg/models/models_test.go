package models

import (
	"math"
	"testing"
	"time"
)

func TestKelly(t *testing.T) {
	tests := []struct {
		name      string
		moneyline float64
		p         float64
		want      float64
	}{
		{"underdog favorable", 150, 0.60, 0.73},
		{"favorite favorable", -200, 0.80, 2.0},
		{"unfavorable", 150, 0.20, 0},
		{"unknown moneyline", 0, 0.90, 0},
		{"even money coin flip", 100, 0.50, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Kelly(tt.moneyline, tt.p)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Kelly(%v, %v) = %v, want %v", tt.moneyline, tt.p, got, tt.want)
			}
		})
	}
}

func TestDecimalOdds(t *testing.T) {
	tests := []struct {
		moneyline float64
		want      float64
	}{
		{150, 2.5},
		{-200, 1.5},
		{100, 2},
		{0, 1},
	}
	for _, tt := range tests {
		if got := DecimalOdds(tt.moneyline); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("DecimalOdds(%v) = %v, want %v", tt.moneyline, got, tt.want)
		}
	}
}

func TestSnapshotKellyUsesPrediction(t *testing.T) {
	s := LineSnapshot{
		AwayMoneyline: 150,
		HomeMoneyline: -400,
		Prediction: &Prediction{
			AwayTeam:   "Duke",
			HomeTeam:   "UNC",
			Winner:     "Duke",
			Confidence: 0.60,
		},
	}
	if got := s.AwayKelly("Duke"); got != 0.73 {
		t.Errorf("AwayKelly = %v, want 0.73", got)
	}
	if got := s.HomeKelly("UNC"); got != 0 {
		t.Errorf("HomeKelly = %v, want 0 (UNC at 40%% is unfavorable at -400)", got)
	}
	if got := (LineSnapshot{AwayMoneyline: 150}).AwayKelly("Duke"); got != 0 {
		t.Errorf("AwayKelly without prediction = %v, want 0", got)
	}
}

func TestSnapshotKellyWithoutForecast(t *testing.T) {
	tests := []struct {
		name string
		pred Prediction
	}{
		{"no winner", Prediction{AwayTeam: "Duke", HomeTeam: "UNC"}},
		{"winner without confidence", Prediction{AwayTeam: "Duke", HomeTeam: "UNC", Winner: "Duke"}},
		{"winner not in game", Prediction{AwayTeam: "Duke", HomeTeam: "UNC", Winner: "Kansas", Confidence: 0.7}},
		{"confidence above one", Prediction{AwayTeam: "Duke", HomeTeam: "UNC", Winner: "Duke", Confidence: 58}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred := tt.pred
			s := LineSnapshot{AwayMoneyline: -160, HomeMoneyline: 135, Prediction: &pred}
			if got := s.AwayKelly("Duke"); got != 0 {
				t.Errorf("AwayKelly = %v, want 0", got)
			}
			if got := s.HomeKelly("UNC"); got != 0 {
				t.Errorf("HomeKelly = %v, want 0", got)
			}
		})
	}
}

func TestWinProbability(t *testing.T) {
	p := Prediction{AwayTeam: "Duke", HomeTeam: "UNC", Winner: "UNC", Confidence: 0.64}
	tests := []struct {
		team string
		want float64
	}{
		{"UNC", 0.64},
		{"Duke", 0.36},
		{"Kansas", 0},
	}
	for _, tt := range tests {
		if got := p.WinProbability(tt.team); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("WinProbability(%q) = %v, want %v", tt.team, got, tt.want)
		}
	}
}

func TestIdentityMerge_FillsOnlyBlanks(t *testing.T) {
	id := Identity{EventID: "1", AwayTeam: "Duke", GameDate: "SAT SEP 4"}
	merged, changed := id.Merge(Identity{EventID: "2", AwayTeam: "Du", HomeTeam: "UNC", GameDate: "SUN SEP 5", GameTime: "7:00PM"})
	if !changed {
		t.Fatal("Merge should report a change when blanks are filled")
	}
	want := Identity{EventID: "1", AwayTeam: "Duke", HomeTeam: "UNC", GameDate: "SAT SEP 4", GameTime: "7:00PM"}
	if merged != want {
		t.Errorf("Merge = %+v, want %+v", merged, want)
	}
	if _, changed := merged.Merge(Identity{AwayTeam: "X", HomeTeam: "Y"}); changed {
		t.Error("Merge of a complete identity must not change anything")
	}
}

func TestEventHistoryAccessors(t *testing.T) {
	e := &Event{Identity: Identity{EventID: "1"}}
	if _, ok := e.Latest(); ok {
		t.Error("Latest on empty history should report false")
	}
	t0 := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	e.AddSnapshot(LineSnapshot{CapturedAt: t0, AwaySpread: -3})
	e.AddSnapshot(LineSnapshot{CapturedAt: t0.Add(time.Hour), AwaySpread: -4.5})

	open, _ := e.Opening()
	last, _ := e.Latest()
	if open.AwaySpread != -3 || last.AwaySpread != -4.5 {
		t.Errorf("opening=%v latest=%v", open.AwaySpread, last.AwaySpread)
	}
	if !e.LastUpdated.Equal(t0.Add(time.Hour)) {
		t.Errorf("LastUpdated = %v", e.LastUpdated)
	}

	c := e.Clone()
	c.AddSnapshot(LineSnapshot{})
	if len(e.LineHistory) != 2 {
		t.Errorf("Clone shares history with original: len=%d", len(e.LineHistory))
	}
}

func TestEventURL(t *testing.T) {
	if got := EventURL("https://sportsbook.draftkings.com/event/", "180123"); got != "https://sportsbook.draftkings.com/event/180123" {
		t.Errorf("EventURL = %q", got)
	}
	if got := EventURL("https://x", ""); got != "" {
		t.Errorf("EventURL with empty id = %q, want empty", got)
	}
}
