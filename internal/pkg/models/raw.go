package models

// RawEvent is one game row as scraped from a sportsbook page, before any reconciliation.
type RawEvent struct {
	EventID    string
	AwayTeam   string
	HomeTeam   string
	DateToken  string // "Today", "Tomorrow", "Sat Sep 4th"
	TimeToken  string
	InProgress bool

	AwaySpread    float64
	AwayOdds      float64
	AwayMoneyline float64
	HomeSpread    float64
	HomeOdds      float64
	HomeMoneyline float64
	OverUnder     float64
	OverOdds      float64
	UnderOdds     float64
}

// RawPrediction is one forecast row as scraped from the prediction feed.
type RawPrediction struct {
	AwayTeam          string
	HomeTeam          string
	Winner            string
	Score             string
	ConfidencePercent float64
}
