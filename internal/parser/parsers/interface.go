package parsers

import (
	"context"

	"github.com/Vodeneev/keepgaming/internal/pkg/models"
)

// Source scrapes one sportsbook league page. Each source owns one sheet of the view.
type Source interface {
	Name() string
	Sheet() string
	FetchEvents(ctx context.Context) ([]models.RawEvent, error)
}

// PredictionSource scrapes a forecast feed shared by all sources.
type PredictionSource interface {
	Name() string
	FetchPredictions(ctx context.Context) ([]models.RawPrediction, error)
}
