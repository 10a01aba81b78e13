package models

import (
	"strings"
	"time"
)

// Identity holds the descriptive fields of an event. Each field is written once:
// after it becomes non-empty it never changes, so a partial scrape cannot clobber it.
type Identity struct {
	EventID  string `json:"event_id"`
	GameDate string `json:"game_date"`
	GameTime string `json:"game_time"`
	AwayTeam string `json:"away_team"`
	HomeTeam string `json:"home_team"`
}

// Merge fills blank fields from draft and reports whether anything changed.
// EventID is never taken from draft.
func (id Identity) Merge(draft Identity) (Identity, bool) {
	changed := false
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	fill(&id.GameDate, draft.GameDate)
	fill(&id.GameTime, draft.GameTime)
	fill(&id.AwayTeam, draft.AwayTeam)
	fill(&id.HomeTeam, draft.HomeTeam)
	return id, changed
}

// Matchup renders "Away @ Home" for logs and notifications.
func (id Identity) Matchup() string {
	return id.AwayTeam + " @ " + id.HomeTeam
}

// BettingChoices are the operator's bet decisions, one checkbox per market and side.
type BettingChoices struct {
	BetAwaySpread    bool `json:"bet_away_spread"`
	BetAwayMoneyline bool `json:"bet_away_moneyline"`
	BetHomeSpread    bool `json:"bet_home_spread"`
	BetHomeMoneyline bool `json:"bet_home_moneyline"`
	BetOver          bool `json:"bet_over"`
	BetUnder         bool `json:"bet_under"`
}

// Outcome is the final result of a game.
type Outcome struct {
	WinningTeam  string `json:"winning_team"`
	WinningScore int    `json:"winning_team_score"`
	LosingTeam   string `json:"losing_team"`
	LosingScore  int    `json:"losing_team_score"`
}

// Event is one game tracked across polls.
type Event struct {
	Identity
	LineHistory []LineSnapshot `json:"betting_lines"`
	Choices     BettingChoices `json:"betting_choices"`
	Outcome     *Outcome       `json:"outcome,omitempty"`
	LastUpdated time.Time      `json:"last_updated"`

	// Frozen is set the first time the game is seen in progress; the history is closed after that.
	Frozen bool `json:"frozen"`

	// InProgress is the flag from the current poll only; it is not persisted.
	InProgress bool `json:"-"`
}

// Opening returns the first recorded snapshot.
func (e *Event) Opening() (LineSnapshot, bool) {
	if len(e.LineHistory) == 0 {
		return LineSnapshot{}, false
	}
	return e.LineHistory[0], true
}

// Latest returns the most recent snapshot; for an in-progress game this is the closing line.
func (e *Event) Latest() (LineSnapshot, bool) {
	if len(e.LineHistory) == 0 {
		return LineSnapshot{}, false
	}
	return e.LineHistory[len(e.LineHistory)-1], true
}

// AddSnapshot appends to the history; snapshots are never edited or reordered.
func (e *Event) AddSnapshot(s LineSnapshot) {
	e.LineHistory = append(e.LineHistory, s)
	e.LastUpdated = s.CapturedAt
}

// Clone returns a copy that shares no slices with e.
func (e *Event) Clone() *Event {
	c := *e
	c.LineHistory = append([]LineSnapshot(nil), e.LineHistory...)
	if e.Outcome != nil {
		o := *e.Outcome
		c.Outcome = &o
	}
	return &c
}

// EventURL builds the stable per-event link.
func EventURL(baseURL, eventID string) string {
	if eventID == "" {
		return ""
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + eventID
}
