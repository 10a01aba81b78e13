package kenpom

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/Vodeneev/keepgaming/internal/pkg/models"
)

const selFanMatchRows = "table#fanmatch-table tr"

var (
	// "12 Duke", "NR Bellarmine"
	rankPrefixRegex = regexp.MustCompile(`^(?:NR|\d+)\s+`)
	scoreRegex      = regexp.MustCompile(`\d+-\d+`)
	percentRegex    = regexp.MustCompile(`\((\d+(?:\.\d+)?)%`)
)

// ParseFanMatch extracts the predictions of a FanMatch page. Rows that are not
// games (headers, notes) are skipped.
func ParseFanMatch(r io.Reader) ([]models.RawPrediction, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var out []models.RawPrediction
	doc.Find(selFanMatchRows).Each(func(_ int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 2 {
			return
		}
		p, ok := parseRow(cols.Eq(0).Text(), cols.Eq(1).Text())
		if ok {
			out = append(out, p)
		}
	})
	return out, nil
}

// parseRow reads a game cell ("12 Duke at 25 North Carolina", "NR Bellarmine vs. 3 Kentucky")
// and a prediction cell ("Duke 78-70 (64%)"). The away team comes first. A game whose
// prediction cell is unreadable still yields its teams with no forecast.
func parseRow(game, prediction string) (models.RawPrediction, bool) {
	game = strings.Join(strings.Fields(game), " ")
	sep := " at "
	if strings.Contains(game, " vs. ") {
		sep = " vs. "
	}
	away, home, found := strings.Cut(game, sep)
	if !found {
		return models.RawPrediction{}, false
	}
	p := models.RawPrediction{
		AwayTeam: stripRank(away),
		HomeTeam: stripRank(home),
	}
	if p.AwayTeam == "" || p.HomeTeam == "" {
		return models.RawPrediction{}, false
	}

	prediction = strings.TrimSpace(prediction)
	score := scoreRegex.FindString(prediction)
	percent := percentRegex.FindStringSubmatch(prediction)
	winner := strings.TrimSpace(prediction[:strings.IndexFunc(prediction+"0", isDigit)])
	if score == "" || percent == nil || winner == "" {
		return p, true
	}
	confidence, err := strconv.ParseFloat(percent[1], 64)
	if err != nil {
		return p, true
	}
	p.Winner = winner
	p.Score = score
	p.ConfidencePercent = confidence
	return p, true
}

func stripRank(team string) string {
	return strings.TrimSpace(rankPrefixRegex.ReplaceAllString(strings.TrimSpace(team), ""))
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
