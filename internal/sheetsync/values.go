package sheetsync

import (
	"fmt"
	"time"

	"github.com/Vodeneev/keepgaming/internal/pkg/models"
)

const timestampLayout = "2006-01-02 15:04:05"

// renderer turns events into cell values.
type renderer struct {
	baseURL  string
	location *time.Location
}

func (r renderer) timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if r.location != nil {
		t = t.In(r.location)
	}
	return t.Format(timestampLayout)
}

// blockValues renders columns A..U of both team rows for a new block at row.
// The A..C cells of the home row stay blank; they are merged into the away row.
func (r renderer) blockValues(ev *models.Event, row int) [][]interface{} {
	open, _ := ev.Opening()
	url := models.EventURL(r.baseURL, ev.EventID)

	away := []interface{}{
		url, ev.GameDate, ev.GameTime, ev.AwayTeam,
		open.AwaySpread, ev.Choices.BetAwaySpread, "",
		"O", open.OverUnder, ev.Choices.BetOver, "",
		open.AwayMoneyline, ev.Choices.BetAwayMoneyline,
	}
	home := []interface{}{
		"", "", "", ev.HomeTeam,
		open.HomeSpread, ev.Choices.BetHomeSpread, "",
		"U", open.OverUnder, ev.Choices.BetUnder, "",
		open.HomeMoneyline, ev.Choices.BetHomeMoneyline,
	}
	latest := r.latestValues(ev, row)
	return [][]interface{}{
		append(away, latest[0]...),
		append(home, latest[1]...),
	}
}

// latestValues renders columns N..U (last update, latest lines, movement, Kelly) of both rows.
// Writing them again with the same event gives the same cells.
func (r renderer) latestValues(ev *models.Event, row int) [][]interface{} {
	latest, _ := ev.Latest()
	updated := r.timestamp(latest.CapturedAt)
	return [][]interface{}{
		{
			updated,
			latest.AwaySpread, movement(colSpread, colSpreadLatest, row),
			latest.OverUnder, movement(colOverUnder, colOverUnderLatest, row),
			latest.AwayMoneyline, movement(colMoneyline, colMoneylineLatest, row),
			latest.AwayKelly(ev.AwayTeam),
		},
		{
			updated,
			latest.HomeSpread, movement(colSpread, colSpreadLatest, row+1),
			latest.OverUnder, movement(colOverUnder, colOverUnderLatest, row+1),
			latest.HomeMoneyline, movement(colMoneyline, colMoneylineLatest, row+1),
			latest.HomeKelly(ev.HomeTeam),
		},
	}
}

// movement is the opening value minus the latest one.
func movement(openCol, latestCol, row int) string {
	return fmt.Sprintf("=MINUS(%s%d,%s%d)", columnLetter(openCol), row, columnLetter(latestCol), row)
}
