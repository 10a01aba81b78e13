package tracker

import "github.com/Vodeneev/keepgaming/internal/pkg/models"

// Mismatch is a prediction that agrees with an event on one team but not the other.
// It usually means one of the names needs an alias.
type Mismatch struct {
	EventID   string
	Predicted string // prediction-side name that did not match
	Event     string // event-side name it most likely refers to
}

func eventHasTeam(ev *models.Event, team string) bool {
	return team != "" && (team == ev.HomeTeam || team == ev.AwayTeam)
}

// Match returns the first event whose two teams are exactly the prediction's two teams,
// in either order.
func Match(p *models.Prediction, events []*models.Event) (string, bool) {
	for _, ev := range events {
		if eventHasTeam(ev, p.HomeTeam) && eventHasTeam(ev, p.AwayTeam) {
			return ev.EventID, true
		}
	}
	return "", false
}

// DetectMismatches reports events that share exactly one team with the prediction.
func DetectMismatches(p *models.Prediction, events []*models.Event) []Mismatch {
	var out []Mismatch
	for _, ev := range events {
		homeIn := eventHasTeam(ev, p.HomeTeam)
		awayIn := eventHasTeam(ev, p.AwayTeam)
		if homeIn == awayIn {
			continue
		}

		matched, predicted := p.HomeTeam, p.AwayTeam
		if awayIn {
			matched, predicted = p.AwayTeam, p.HomeTeam
		}
		other := ev.HomeTeam
		if other == matched {
			other = ev.AwayTeam
		}
		out = append(out, Mismatch{EventID: ev.EventID, Predicted: predicted, Event: other})
	}
	return out
}

// LinkPredictions matches every prediction against events. An event keeps the first
// prediction linked to it. Mismatches are collected only for predictions that matched nothing.
func LinkPredictions(predictions []models.Prediction, events []*models.Event) (map[string]*models.Prediction, []Mismatch) {
	links := make(map[string]*models.Prediction)
	var mismatches []Mismatch
	for i := range predictions {
		p := &predictions[i]
		id, ok := Match(p, events)
		if !ok {
			mismatches = append(mismatches, DetectMismatches(p, events)...)
			continue
		}
		if _, taken := links[id]; !taken {
			links[id] = p
		}
	}
	return links, mismatches
}

// Predictions normalizes scraped forecasts. Rows missing a team are dropped.
func (t *Tracker) Predictions(raws []models.RawPrediction) []models.Prediction {
	now := t.opts.Now()
	out := make([]models.Prediction, 0, len(raws))
	for _, r := range raws {
		p := models.Prediction{
			AwayTeam:   t.normalizer.Normalize(r.AwayTeam),
			HomeTeam:   t.normalizer.Normalize(r.HomeTeam),
			Winner:     t.normalizer.Normalize(r.Winner),
			Score:      r.Score,
			Confidence: r.ConfidencePercent / 100,
			CapturedAt: now,
		}
		if p.AwayTeam == "" || p.HomeTeam == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
