package sheetsync

import "sort"

// Op targets one event's row block by its first row.
type Op struct {
	EventID string
	Row     int
}

// Plan is the full set of changes that brings a view in line with the live events.
type Plan struct {
	Updates   []Op // existing blocks, live order
	Appends   []Op // new blocks, live order
	Deletions []Op // blocks of events no longer live, highest row first
}

func (p Plan) Empty() bool {
	return len(p.Updates) == 0 && len(p.Appends) == 0 && len(p.Deletions) == 0
}

// Reconcile plans updates for live ids already in the view, appends for the rest
// starting at the next free block, and deletions for view keys that are no longer live.
// Deletions are ordered by row descending so physical row removal never shifts a later target.
func Reconcile(liveIDs []string, index ViewIndex, layout Layout) Plan {
	remaining := make(map[string]int, len(index.Rows))
	for id, row := range index.Rows {
		remaining[id] = row
	}

	var plan Plan
	next := index.NextFreeRow
	if next < layout.FirstDataRow {
		next = layout.FirstDataRow
	}
	done := make(map[string]bool, len(liveIDs))
	for _, id := range liveIDs {
		if id == "" || done[id] {
			continue
		}
		done[id] = true

		if row, ok := remaining[id]; ok {
			plan.Updates = append(plan.Updates, Op{EventID: id, Row: row})
			delete(remaining, id)
			continue
		}
		plan.Appends = append(plan.Appends, Op{EventID: id, Row: next})
		next += layout.BlockSize
	}

	for id, row := range remaining {
		plan.Deletions = append(plan.Deletions, Op{EventID: id, Row: row})
	}
	sort.Slice(plan.Deletions, func(i, j int) bool {
		if plan.Deletions[i].Row != plan.Deletions[j].Row {
			return plan.Deletions[i].Row > plan.Deletions[j].Row
		}
		return plan.Deletions[i].EventID < plan.Deletions[j].EventID
	})
	return plan
}
