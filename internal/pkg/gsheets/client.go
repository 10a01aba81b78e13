package gsheets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Vodeneev/keepgaming/internal/pkg/config"
	"github.com/Vodeneev/keepgaming/internal/sheetsync"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var _ sheetsync.Backend = (*Client)(nil)

// Client is one Google spreadsheet used as a sync backend.
type Client struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewService authenticates with the credentials file from cfg.
func NewService(ctx context.Context, cfg *config.SheetsConfig) (*sheets.Service, error) {
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("sheets.credentials_file is not set")
	}
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: creds.TokenSource,
			Base:   http.DefaultTransport,
		},
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return svc, nil
}

// Create makes a new spreadsheet and returns a client bound to it.
func Create(ctx context.Context, svc *sheets.Service, title string) (*Client, error) {
	resp, err := svc.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create spreadsheet: %w", err)
	}
	slog.Info("Created spreadsheet", "title", title, "id", resp.SpreadsheetId, "url", URL(resp.SpreadsheetId))
	return Open(svc, resp.SpreadsheetId), nil
}

// Open binds an existing spreadsheet.
func Open(svc *sheets.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID}
}

func (c *Client) ID() string { return c.spreadsheetID }

func URL(spreadsheetID string) string {
	return "https://docs.google.com/spreadsheets/d/" + spreadsheetID
}

func (c *Client) ReadRange(ctx context.Context, a1 string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, a1).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = fmt.Sprint(v)
		}
	}
	return out, nil
}

func (c *Client) WriteRange(ctx context.Context, a1 string, values [][]interface{}, mode sheetsync.ValueInputMode) error {
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1, &sheets.ValueRange{Values: values}).
		ValueInputOption(string(mode)).
		Context(ctx).
		Do()
	return err
}

func (c *Client) BatchFormat(ctx context.Context, requests []*sheets.Request) error {
	if len(requests) == 0 {
		return nil
	}
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

func (c *Client) EnsureSheet(ctx context.Context, title string) (int64, bool, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, false, err
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, false, nil
		}
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, false, err
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return 0, false, fmt.Errorf("no reply for added sheet %q", title)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, true, nil
}
