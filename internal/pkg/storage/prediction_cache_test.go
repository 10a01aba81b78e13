package storage

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/Vodeneev/keepgaming/internal/pkg/config"
	"github.com/Vodeneev/keepgaming/internal/pkg/models"
)

func newTestCache(t *testing.T) (*PredictionCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	cache, err := NewPredictionCache(&config.RedisConfig{Addr: mr.Addr(), PredictionsTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewPredictionCache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestPredictionCache_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	cache, mr := newTestCache(t)
	day := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	if _, ok, err := cache.Get(ctx, "kenpom", day); err != nil || ok {
		t.Fatalf("Get on empty cache = ok %v, err %v; want miss", ok, err)
	}

	preds := []models.Prediction{{AwayTeam: "Duke", HomeTeam: "UNC", Winner: "Duke", Score: "78-70", Confidence: 0.64}}
	if err := cache.Put(ctx, "kenpom", day, preds); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := cache.Get(ctx, "kenpom", day)
	if err != nil || !ok {
		t.Fatalf("Get = ok %v, err %v; want hit", ok, err)
	}
	if len(got) != 1 || got[0].Winner != "Duke" || got[0].Confidence != 0.64 {
		t.Errorf("Get = %+v, want %+v", got, preds)
	}

	if _, ok, _ := cache.Get(ctx, "kenpom", day.AddDate(0, 0, 1)); ok {
		t.Error("next day should be a miss")
	}

	mr.FastForward(2 * time.Hour)
	if _, ok, _ := cache.Get(ctx, "kenpom", day); ok {
		t.Error("entry should expire after the TTL")
	}
}

func TestNewPredictionCache_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	if _, err := NewPredictionCache(&config.RedisConfig{Addr: addr}); err == nil {
		t.Error("expected error for unreachable redis")
	}
}
