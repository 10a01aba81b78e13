package draftkings

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/Vodeneev/keepgaming/internal/pkg/models"
)

// Page selectors. A league page holds one card per day; each game is two table rows,
// away team first.
const (
	selDailyCard   = "div.parlay-card-10-a"
	selCardDate    = "div.sportsbook-table-header__title"
	selGameTable   = "tbody.sportsbook-table__body"
	selTeamName    = "div.event-cell__name-text"
	selColumn      = "div.sportsbook-outcome-body-wrapper, div.sportsbook-empty-cell"
	selSpread      = "div.sportsbook-outcome-cell__label-line-container"
	selOdds        = "span.sportsbook-odds"
	selTotal       = "span.sportsbook-outcome-cell__line"
	selStartTime   = "span.event-cell__start-time"
	selStatus      = "div.event-cell__status"
	selStatusClock = "span.event-cell__time"
	selPeriod      = "span.event-cell__period"
	selEventLink   = "a.event-cell-link"
)

// ParseLeaguePage extracts every game of a league page. Rows without teams or an event
// link are skipped.
func ParseLeaguePage(r io.Reader) ([]models.RawEvent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var events []models.RawEvent
	doc.Find(selDailyCard).Each(func(_ int, card *goquery.Selection) {
		date := strings.TrimSpace(card.Find(selCardDate).First().Text())
		if date == "" {
			return
		}
		rows := card.Find(selGameTable).First().Find("tr")
		for i := 0; i+1 < rows.Length(); i += 2 {
			ev, ok := parseGame(rows.Eq(i), rows.Eq(i+1))
			if !ok {
				continue
			}
			ev.DateToken = date
			events = append(events, ev)
		}
	})
	return events, nil
}

func parseGame(top, bottom *goquery.Selection) (models.RawEvent, bool) {
	ev := models.RawEvent{
		AwayTeam: strings.TrimSpace(top.Find(selTeamName).First().Text()),
		HomeTeam: strings.TrimSpace(bottom.Find(selTeamName).First().Text()),
		EventID:  eventIDFromHref(top.Find(selEventLink).First().AttrOr("href", "")),
	}
	if ev.AwayTeam == "" || ev.HomeTeam == "" || ev.EventID == "" {
		return ev, false
	}

	if start := top.Find(selStartTime).First(); start.Length() > 0 {
		ev.TimeToken = strings.TrimSpace(start.Text())
	} else if status := top.Find(selStatus).First(); status.Length() > 0 {
		ev.InProgress = true
		ev.TimeToken = fmt.Sprintf("In progress (%s | %s)",
			strings.TrimSpace(status.Find(selStatusClock).Text()),
			strings.TrimSpace(status.Find(selPeriod).Text()))
	}

	topCols := top.Find(selColumn)
	bottomCols := bottom.Find(selColumn)

	if c := topCols.Eq(0); c.Length() > 0 {
		ev.AwaySpread = parseSpread(c.Find(selSpread).First().Text())
		ev.AwayOdds = parseOdds(c.Find(selOdds).First().Text())
	}
	if c := bottomCols.Eq(0); c.Length() > 0 {
		ev.HomeSpread = parseSpread(c.Find(selSpread).First().Text())
		ev.HomeOdds = parseOdds(c.Find(selOdds).First().Text())
	}
	if c := topCols.Eq(1); c.Length() > 0 {
		ev.OverUnder = parseOdds(c.Find(selTotal).First().Text())
		ev.OverOdds = parseOdds(c.Find(selOdds).First().Text())
	}
	if c := bottomCols.Eq(1); c.Length() > 0 {
		ev.UnderOdds = parseOdds(c.Find(selOdds).First().Text())
	}
	if c := topCols.Eq(2); c.Length() > 0 {
		ev.AwayMoneyline = parseOdds(c.Text())
	}
	if c := bottomCols.Eq(2); c.Length() > 0 {
		ev.HomeMoneyline = parseOdds(c.Text())
	}
	return ev, true
}

// eventIDFromHref takes the last path segment: "/event/duke-%40-unc/180123" -> "180123".
func eventIDFromHref(href string) string {
	href = strings.TrimSpace(href)
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	href = strings.TrimSuffix(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		href = href[i+1:]
	}
	return href
}

// parseSpread treats "pk" (pick'em) as zero.
func parseSpread(s string) float64 {
	if strings.EqualFold(strings.TrimSpace(s), "pk") {
		return 0
	}
	return parseOdds(s)
}

// parseOdds reads "+150", "-110", "−110" (unicode minus), "145.5" or "O 145.5".
// Anything unparsable is 0, the "market not available" value.
func parseOdds(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "OUou ")
	if s == "" {
		return 0
	}

	isMinus := strings.HasPrefix(s, "-") || strings.HasPrefix(s, "−")
	s = strings.TrimPrefix(s, "+")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "−")

	val, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	if isMinus {
		return -val
	}
	return val
}
