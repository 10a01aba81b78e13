package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Vodeneev/keepgaming/internal/pkg/config"
	"github.com/Vodeneev/keepgaming/internal/pkg/models"
	"github.com/redis/go-redis/v9"
)

// PredictionCache keeps one scrape of a prediction feed per day so repeated polls
// do not log in to the feed again.
type PredictionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPredictionCache(cfg *config.RedisConfig) (*PredictionCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Check connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &PredictionCache{client: client, ttl: cfg.PredictionsTTL}, nil
}

func predictionsKey(source string, day time.Time) string {
	return fmt.Sprintf("predictions:%s:%s", source, day.Format("2006-01-02"))
}

// Get returns the cached predictions for source on day. ok is false on a miss.
func (c *PredictionCache) Get(ctx context.Context, source string, day time.Time) ([]models.Prediction, bool, error) {
	data, err := c.client.Get(ctx, predictionsKey(source, day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get predictions: %w", err)
	}

	var preds []models.Prediction
	if err := json.Unmarshal(data, &preds); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal predictions: %w", err)
	}
	return preds, true, nil
}

// Put stores predictions for source on day with the configured TTL.
func (c *PredictionCache) Put(ctx context.Context, source string, day time.Time, preds []models.Prediction) error {
	data, err := json.Marshal(preds)
	if err != nil {
		return fmt.Errorf("failed to marshal predictions: %w", err)
	}
	return c.client.Set(ctx, predictionsKey(source, day), data, c.ttl).Err()
}

func (c *PredictionCache) Close() error {
	return c.client.Close()
}
