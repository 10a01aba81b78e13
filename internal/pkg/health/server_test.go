package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Vodeneev/keepgaming/internal/pkg/notify"
)

func TestPing(t *testing.T) {
	srv := httptest.NewServer(Handler(NewStatus(0)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ping")
	if err != nil {
		t.Fatalf("GET /ping: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		started time.Time
		want    int
	}{
		{"no cycle yet", time.Time{}, http.StatusOK},
		{"recent cycle", time.Now(), http.StatusOK},
		{"stale cycle", time.Now().Add(-time.Hour), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := NewStatus(10 * time.Minute)
			if !tt.started.IsZero() {
				status.Record(tt.started, time.Second, 0, nil)
			}
			rec := httptest.NewRecorder()
			Handler(status).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	status := NewStatus(0)
	started := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	status.Record(started, 1500*time.Millisecond, 12, []notify.SourceReport{
		{Source: "NCAAM", Sheet: "NCAAM", Live: 3, Appended: 1, Updated: 2},
		{Source: "NBA", Err: errors.New("fetch failed")},
	})

	rec := httptest.NewRecorder()
	Handler(status).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	var got CycleStatus
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Cycles != 1 || got.Predictions != 12 || got.LastTook != "1.5s" {
		t.Errorf("status = %+v", got)
	}
	if len(got.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(got.Sources))
	}
	if got.Sources[0].Appended != 1 || got.Sources[0].Error != "" {
		t.Errorf("NCAAM = %+v", got.Sources[0])
	}
	if got.Sources[1].Error != "fetch failed" {
		t.Errorf("NBA error = %q, want %q", got.Sources[1].Error, "fetch failed")
	}
}
