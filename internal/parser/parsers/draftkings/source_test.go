package draftkings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vodeneev/keepgaming/internal/parser/parsers"
	"github.com/Vodeneev/keepgaming/internal/pkg/config"
)

func TestRegisteredSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("subcategory") != "game" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		w.Write([]byte(leaguePage))
	}))
	defer srv.Close()

	disabled := false
	cfg := &config.Config{
		Poll: config.PollConfig{Timeout: time.Second},
		Sources: []config.SourceConfig{
			{Name: "NCAAM", Kind: "draftkings", Sheet: "NCAAM: DraftKings (Full Game)", URL: srv.URL},
			{Name: "NBA", Kind: "draftkings", Sheet: "NBA", URL: srv.URL, Enabled: &disabled},
		},
	}

	sources, err := parsers.Build(cfg, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(sources) != 1 || sources[0].Name() != "NCAAM" || sources[0].Sheet() != "NCAAM: DraftKings (Full Game)" {
		t.Fatalf("sources = %+v", sources)
	}

	events, err := sources[0].FetchEvents(context.Background())
	if err != nil {
		t.Fatalf("FetchEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Errorf("events = %d, want 2", len(events))
	}

	// an explicit selection overrides the enabled flag
	sources, err = parsers.Build(cfg, []string{"nba"})
	if err != nil || len(sources) != 1 || sources[0].Name() != "NBA" {
		t.Errorf("Build(nba) = %v, %v", sources, err)
	}
	if _, err := parsers.Build(cfg, []string{"nfl"}); err == nil {
		t.Error("expected error for an unknown source")
	}
}
