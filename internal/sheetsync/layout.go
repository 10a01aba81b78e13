package sheetsync

import (
	"fmt"
	"strings"
)

// Layout describes where event blocks live in a sheet. Rows are 1-based.
type Layout struct {
	HeaderRows   int
	FirstDataRow int
	BlockSize    int // away row, home row, spacer
}

func DefaultLayout() Layout {
	return Layout{HeaderRows: 2, FirstDataRow: 3, BlockSize: 3}
}

// ObsoleteMarker prefixes the key cell of a row block that was marked obsolete,
// so later passes no longer read it as a live key.
const ObsoleteMarker = "#"

// Column headers, in sheet order starting at column A.
const (
	colGameLink = iota
	colDate
	colStartTime
	colMatchup
	colSpread
	colBetSpread
	colLastBetSpread
	colOverUnderLabel
	colOverUnder
	colBetOverUnder
	colLastBetOverUnder
	colMoneyline
	colBetMoneyline
	colUpdated
	colSpreadLatest
	colSpreadMovement
	colOverUnderLatest
	colOverUnderMovement
	colMoneylineLatest
	colMoneylineMovement
	colKellyLatest
	columnCount
)

var headers = [columnCount]string{
	colGameLink:          "Game Link",
	colDate:              "Date",
	colStartTime:         "Start Time",
	colMatchup:           "Matchup",
	colSpread:            "Spread",
	colBetSpread:         "Bet Spread?",
	colLastBetSpread:     "LAST BET (Spread)",
	colOverUnderLabel:    "O/U",
	colOverUnder:         "",
	colBetOverUnder:      "Bet O/U?",
	colLastBetOverUnder:  "LAST BET (O/U)",
	colMoneyline:         "Moneyline",
	colBetMoneyline:      "Bet Moneyline?",
	colUpdated:           "Updated ->",
	colSpreadLatest:      "Spread (Latest)",
	colSpreadMovement:    "Spread Movement",
	colOverUnderLatest:   "O/U (Latest)",
	colOverUnderMovement: "O/U Movement",
	colMoneylineLatest:   "Moneyline (Latest)",
	colMoneylineMovement: "Moneyline Movement",
	colKellyLatest:       "Kelly (Latest)",
}

// Headers returns the header row text.
func Headers() []string {
	return append([]string(nil), headers[:]...)
}

// columnLetter returns the A1 letter for a 0-based column index.
func columnLetter(col int) string {
	s := ""
	for col >= 0 {
		s = string(rune('A'+col%26)) + s
		col = col/26 - 1
	}
	return s
}

// a1 formats "Sheet!A3:U4". Sheet titles are always quoted.
func a1(sheet string, fromCol, fromRow, toCol, toRow int) string {
	return fmt.Sprintf("%s!%s%d:%s%d", quoteSheet(sheet), columnLetter(fromCol), fromRow, columnLetter(toCol), toRow)
}

// a1Column formats "Sheet!A:A".
func a1Column(sheet string, col int) string {
	l := columnLetter(col)
	return fmt.Sprintf("%s!%s:%s", quoteSheet(sheet), l, l)
}

func quoteSheet(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}
