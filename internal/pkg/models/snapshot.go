package models

import "time"

// LineSnapshot is one observation of a game's lines. Zero in any numeric field means
// the market was not on the board when the snapshot was taken.
type LineSnapshot struct {
	CapturedAt time.Time `json:"captured_at"`

	AwaySpread    float64 `json:"away_team_spread"`
	AwayOdds      float64 `json:"away_team_odds"`
	AwayMoneyline float64 `json:"away_team_moneyline"`
	HomeSpread    float64 `json:"home_team_spread"`
	HomeOdds      float64 `json:"home_team_odds"`
	HomeMoneyline float64 `json:"home_team_moneyline"`
	OverUnder     float64 `json:"over_under"`
	OverOdds      float64 `json:"over_odds"`
	UnderOdds     float64 `json:"under_odds"`

	// Prediction valid at capture time, if one was matched.
	Prediction *Prediction `json:"prediction,omitempty"`
}

// SnapshotFromRaw copies the line fields of a scraped record.
func SnapshotFromRaw(r RawEvent, capturedAt time.Time) LineSnapshot {
	return LineSnapshot{
		CapturedAt:    capturedAt,
		AwaySpread:    r.AwaySpread,
		AwayOdds:      r.AwayOdds,
		AwayMoneyline: r.AwayMoneyline,
		HomeSpread:    r.HomeSpread,
		HomeOdds:      r.HomeOdds,
		HomeMoneyline: r.HomeMoneyline,
		OverUnder:     r.OverUnder,
		OverOdds:      r.OverOdds,
		UnderOdds:     r.UnderOdds,
	}
}

// HasMoneyline reports whether at least one side has a real moneyline.
func (s LineSnapshot) HasMoneyline() bool {
	return s.AwayMoneyline != 0 || s.HomeMoneyline != 0
}

// AwayKelly returns the Kelly stake for the away side given the linked prediction.
func (s LineSnapshot) AwayKelly(awayTeam string) float64 {
	if s.Prediction == nil {
		return 0
	}
	return Kelly(s.AwayMoneyline, s.Prediction.WinProbability(awayTeam))
}

// HomeKelly returns the Kelly stake for the home side given the linked prediction.
func (s LineSnapshot) HomeKelly(homeTeam string) float64 {
	if s.Prediction == nil {
		return 0
	}
	return Kelly(s.HomeMoneyline, s.Prediction.WinProbability(homeTeam))
}
