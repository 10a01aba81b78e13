package models

import "time"

// Prediction is a win-probability forecast for one game, with names already normalized.
type Prediction struct {
	AwayTeam   string    `json:"away_team"`
	HomeTeam   string    `json:"home_team"`
	Winner     string    `json:"winning_team"`
	Score      string    `json:"score"`
	Confidence float64   `json:"confidence"` // 0.0-1.0, for Winner
	CapturedAt time.Time `json:"last_updated"`
}

func (p *Prediction) ContainsTeam(team string) bool {
	return team != "" && (team == p.HomeTeam || team == p.AwayTeam)
}

// HasForecast reports whether the prediction names one of its teams as winner
// with a usable confidence.
func (p *Prediction) HasForecast() bool {
	return p.ContainsTeam(p.Winner) && p.Confidence > 0 && p.Confidence <= 1
}

// WinProbability returns the model probability that team wins, or 0 when the
// prediction has no forecast or team is not in the game.
func (p *Prediction) WinProbability(team string) float64 {
	if !p.HasForecast() || !p.ContainsTeam(team) {
		return 0
	}
	if p.Winner == team {
		return p.Confidence
	}
	return 1 - p.Confidence
}
