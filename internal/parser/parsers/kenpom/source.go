package kenpom

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Vodeneev/keepgaming/internal/parser/parsers"
	"github.com/Vodeneev/keepgaming/internal/pkg/config"
	"github.com/Vodeneev/keepgaming/internal/pkg/models"
	"github.com/chromedp/chromedp"
)

const name = "kenpom"

var _ parsers.PredictionSource = (*Source)(nil)

// Source logs in to KenPom with a headless browser and reads today's FanMatch table.
type Source struct {
	url      string
	email    string
	password string
	timeout  time.Duration
}

func NewSource(cfg config.KenPomConfig) (*Source, error) {
	if cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("kenpom: email and password are required")
	}
	return &Source{url: cfg.URL, email: cfg.Email, password: cfg.Password, timeout: cfg.Timeout}, nil
}

func (s *Source) Name() string { return name }

func (s *Source) FetchPredictions(ctx context.Context) ([]models.RawPrediction, error) {
	page, err := s.fetchPage(ctx)
	if err != nil {
		return nil, err
	}
	preds, err := ParseFanMatch(strings.NewReader(page))
	if err != nil {
		return nil, err
	}
	slog.Info("Retrieved predictions", "source", name, "predictions", len(preds))
	return preds, nil
}

func (s *Source) fetchPage(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	ctx, cancel = chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		if os.Getenv("KENPOM_DEBUG") == "1" {
			slog.Debug(fmt.Sprintf("chromedp: "+format, v...))
		}
	}))
	defer cancel()

	var html string
	err := chromedp.Run(ctx,
		chromedp.Navigate(s.url),
		chromedp.WaitVisible(`input[name="email"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="email"]`, s.email, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="password"]`, s.password, chromedp.ByQuery),
		chromedp.Click(`[name="submit"]`, chromedp.ByQuery),
		chromedp.WaitReady(`#fanmatch-table`, chromedp.ByQuery),
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("kenpom: chromedp: %w", err)
	}
	return html, nil
}
