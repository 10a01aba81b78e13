package draftkings

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/Vodeneev/keepgaming/internal/parser/parsers"
	"github.com/Vodeneev/keepgaming/internal/pkg/config"
	"github.com/Vodeneev/keepgaming/internal/pkg/models"
)

const kind = "draftkings"

func init() {
	parsers.Register(kind, func(cfg *config.Config, src config.SourceConfig) (parsers.Source, error) {
		if src.URL == "" {
			return nil, fmt.Errorf("draftkings: source %q has no url", src.Name)
		}
		params := src.Params
		if params == nil {
			params = map[string]string{"category": "game-lines", "subcategory": "game"}
		}
		client := NewClient(cfg.Poll.UserAgent, src.Params["client_date_offset"], cfg.Poll.Timeout)
		return NewSource(src.Name, src.Sheet, src.URL, params, client), nil
	})
}

// Source is one DraftKings league page.
type Source struct {
	name   string
	sheet  string
	url    string
	params map[string]string
	client *Client
}

func NewSource(name, sheet, url string, params map[string]string, client *Client) *Source {
	query := make(map[string]string, len(params))
	for k, v := range params {
		if k != "client_date_offset" {
			query[k] = v
		}
	}
	return &Source{name: name, sheet: sheet, url: url, params: query, client: client}
}

func (s *Source) Name() string  { return s.name }
func (s *Source) Sheet() string { return s.sheet }

func (s *Source) FetchEvents(ctx context.Context) ([]models.RawEvent, error) {
	body, err := s.client.Get(ctx, s.url, s.params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.name, err)
	}
	events, err := ParseLeaguePage(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.name, err)
	}
	slog.Info("Retrieved events", "source", s.name, "url", s.url, "events", len(events))
	return events, nil
}
