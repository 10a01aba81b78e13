package sheetsync

import "google.golang.org/api/sheets/v4"

// Row and column indexes in requests are 0-based with exclusive ends.

var obsoleteGrey = &sheets.Color{Red: 136.0 / 255, Green: 136.0 / 255, Blue: 136.0 / 255}

func gridRange(sheetID int64, row, rows, col, cols int) *sheets.GridRange {
	return &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    int64(row - 1),
		EndRowIndex:      int64(row - 1 + rows),
		StartColumnIndex: int64(col),
		EndColumnIndex:   int64(col + cols),
	}
}

func centered(bold bool) *sheets.CellFormat {
	return &sheets.CellFormat{
		HorizontalAlignment: "CENTER",
		VerticalAlignment:   "MIDDLE",
		WrapStrategy:        "WRAP",
		TextFormat:          &sheets.TextFormat{Bold: bold},
	}
}

func rowHeight(sheetID int64, row, rows int, px int64) *sheets.Request {
	return &sheets.Request{
		UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
			Range: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "ROWS",
				StartIndex: int64(row - 1),
				EndIndex:   int64(row - 1 + rows),
			},
			Properties: &sheets.DimensionProperties{PixelSize: px},
			Fields:     "pixelSize",
		},
	}
}

// headerRequests formats the two header rows and freezes them with the identity columns.
func headerRequests(sheetID int64) []*sheets.Request {
	return []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range:  gridRange(sheetID, 1, 1, 0, columnCount),
				Cell:   &sheets.CellData{UserEnteredFormat: centered(true)},
				Fields: "userEnteredFormat(horizontalAlignment,verticalAlignment,wrapStrategy,textFormat)",
			},
		},
		rowHeight(sheetID, 1, 1, 80),
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount:    2,
						FrozenColumnCount: 4,
					},
				},
				Fields: "gridProperties(frozenRowCount,frozenColumnCount)",
			},
		},
		{
			MergeCells: &sheets.MergeCellsRequest{
				Range:     gridRange(sheetID, 1, 1, colOverUnderLabel, 2),
				MergeType: "MERGE_ROWS",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range:  gridRange(sheetID, 2, 1, 0, 1),
				Cell:   &sheets.CellData{UserEnteredFormat: centered(true)},
				Fields: "userEnteredFormat(horizontalAlignment,verticalAlignment,wrapStrategy,textFormat)",
			},
		},
		{
			MergeCells: &sheets.MergeCellsRequest{
				Range:     gridRange(sheetID, 2, 1, 0, colMatchup+1),
				MergeType: "MERGE_ROWS",
			},
		},
	}
}

// blockRequests formats a freshly appended block: merged link/date/time cells,
// bet checkboxes and centered values.
func blockRequests(sheetID int64, row int, url string) []*sheets.Request {
	reqs := []*sheets.Request{
		{
			MergeCells: &sheets.MergeCellsRequest{
				Range:     gridRange(sheetID, row, 2, colGameLink, colStartTime+1),
				MergeType: "MERGE_COLUMNS",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range:  gridRange(sheetID, row, 2, 0, columnCount),
				Cell:   &sheets.CellData{UserEnteredFormat: centered(false)},
				Fields: "userEnteredFormat(horizontalAlignment,verticalAlignment,wrapStrategy)",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range:  gridRange(sheetID, row, 2, colGameLink, colStartTime+1),
				Cell:   &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true}}},
				Fields: "userEnteredFormat.textFormat.bold",
			},
		},
	}
	if url != "" {
		reqs = append(reqs, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: gridRange(sheetID, row, 1, colGameLink, 1),
				Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
					TextFormat:           &sheets.TextFormat{Link: &sheets.Link{Uri: url}},
					HyperlinkDisplayType: "LINKED",
				}},
				Fields: "userEnteredFormat(hyperlinkDisplayType,textFormat.link)",
			},
		})
	}
	for _, col := range []int{colBetSpread, colBetOverUnder, colBetMoneyline} {
		reqs = append(reqs, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: gridRange(sheetID, row, 2, col, 1),
				Cell: &sheets.CellData{DataValidation: &sheets.DataValidationRule{
					Condition: &sheets.BooleanCondition{Type: "BOOLEAN"},
				}},
				Fields: "dataValidation",
			},
		})
	}
	return append(reqs, rowHeight(sheetID, row, 2, 50))
}

// obsoleteRequests greys out and strikes through a block.
func obsoleteRequests(sheetID int64, row int) []*sheets.Request {
	return []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: gridRange(sheetID, row, 2, 0, columnCount),
				Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
					BackgroundColor: obsoleteGrey,
					TextFormat:      &sheets.TextFormat{Strikethrough: true},
				}},
				Fields: "userEnteredFormat(backgroundColor,textFormat.strikethrough)",
			},
		},
	}
}

// deleteBlockRequest physically removes a block's rows.
func deleteBlockRequest(sheetID int64, row, blockSize int) *sheets.Request {
	return &sheets.Request{
		DeleteDimension: &sheets.DeleteDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "ROWS",
				StartIndex: int64(row - 1),
				EndIndex:   int64(row - 1 + blockSize),
			},
		},
	}
}

func autoResizeRequest(sheetID int64) *sheets.Request {
	return &sheets.Request{
		AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   columnCount,
			},
		},
	}
}
