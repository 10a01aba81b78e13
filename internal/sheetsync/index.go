package sheetsync

import "strings"

// ViewIndex maps event ids to the first row of their block, as found in the key column.
type ViewIndex struct {
	Rows        map[string]int
	NextFreeRow int
}

// KeyFromCell extracts the event id from a key cell ("https://.../event/180123" -> "180123").
// Obsolete-marked and empty cells yield "".
func KeyFromCell(cell string) string {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.HasPrefix(cell, ObsoleteMarker) {
		return ""
	}
	if i := strings.LastIndex(cell, "/"); i >= 0 {
		cell = cell[i+1:]
	}
	return strings.TrimSpace(cell)
}

// ParseKeyColumn builds the index from the key column as read back from the sheet,
// values[0] being row 1. Header rows are skipped. If a key appears more than once
// the first row wins. Marked rows are not keys but still occupy space.
func ParseKeyColumn(values [][]string, layout Layout) ViewIndex {
	idx := ViewIndex{Rows: make(map[string]int), NextFreeRow: layout.FirstDataRow}
	lastUsed := 0
	for i, row := range values {
		rowNum := i + 1
		if rowNum < layout.FirstDataRow || len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" {
			continue
		}
		lastUsed = rowNum
		key := KeyFromCell(cell)
		if key == "" {
			continue
		}
		if _, dup := idx.Rows[key]; !dup {
			idx.Rows[key] = rowNum
		}
	}
	if lastUsed > 0 && lastUsed+layout.BlockSize > idx.NextFreeRow {
		idx.NextFreeRow = lastUsed + layout.BlockSize
	}
	return idx
}
