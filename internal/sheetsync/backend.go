package sheetsync

import (
	"context"

	"google.golang.org/api/sheets/v4"
)

// ValueInputMode controls how the backend interprets written values.
type ValueInputMode string

const (
	InputRaw         ValueInputMode = "RAW"
	InputUserEntered ValueInputMode = "USER_ENTERED" // formulas are evaluated
)

// Backend is the spreadsheet a view is rendered into. Ranges are A1 notation with a sheet title.
type Backend interface {
	// ReadRange returns formatted cell values row by row; trailing empty cells and rows may be omitted.
	ReadRange(ctx context.Context, a1 string) ([][]string, error)
	WriteRange(ctx context.Context, a1 string, values [][]interface{}, mode ValueInputMode) error
	BatchFormat(ctx context.Context, requests []*sheets.Request) error
	// EnsureSheet returns the id of the sheet with title, creating it if needed.
	EnsureSheet(ctx context.Context, title string) (sheetID int64, created bool, err error)
}
