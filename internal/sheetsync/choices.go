package sheetsync

import (
	"context"
	"strings"

	"github.com/Vodeneev/keepgaming/internal/pkg/models"
)

// ReadChoices reads the bet checkboxes of every indexed block. The away row holds the
// away spread, over and away moneyline boxes; the home row holds the home side and under.
func (a *Applier) ReadChoices(ctx context.Context, sheet string, index ViewIndex) (map[string]models.BettingChoices, error) {
	out := make(map[string]models.BettingChoices, len(index.Rows))
	if len(index.Rows) == 0 {
		return out, nil
	}
	first, last := 0, 0
	for _, row := range index.Rows {
		if first == 0 || row < first {
			first = row
		}
		if row+1 > last {
			last = row + 1
		}
	}

	values, err := a.read(ctx, a1(sheet, colBetSpread, first, colBetMoneyline, last))
	if err != nil {
		return nil, err
	}
	box := func(row, col int) bool {
		i := row - first
		j := col - colBetSpread
		if i < 0 || i >= len(values) || j >= len(values[i]) {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(values[i][j]), "TRUE")
	}

	for id, row := range index.Rows {
		out[id] = models.BettingChoices{
			BetAwaySpread:    box(row, colBetSpread),
			BetOver:          box(row, colBetOverUnder),
			BetAwayMoneyline: box(row, colBetMoneyline),
			BetHomeSpread:    box(row+1, colBetSpread),
			BetUnder:         box(row+1, colBetOverUnder),
			BetHomeMoneyline: box(row+1, colBetMoneyline),
		}
	}
	return out, nil
}
