package draftkings

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (X11; CrOS x86_64 12871.102.0) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/81.0.4044.141 Safari/537.36"

// clientDateOffset is the sportsbook's UTC offset cookie in minutes; it decides which
// calendar day a game is listed under ("300" for US Eastern standard time).
const defaultDateOffset = "300"

// minDelay is the minimum spacing between requests.
const minDelay = 500 * time.Millisecond

// rateLimitBackoff is the pause forced after a 429.
const rateLimitBackoff = 3 * time.Second

// Client fetches DraftKings league pages.
type Client struct {
	userAgent   string
	dateOffset  string
	maxAttempts int
	backoff     time.Duration
	client      *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a DraftKings HTTP client with a fixed request timeout.
func NewClient(userAgent, dateOffset string, timeout time.Duration) *Client {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if dateOffset == "" {
		dateOffset = defaultDateOffset
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyFromEnvironment

	return &Client{
		userAgent:   userAgent,
		dateOffset:  dateOffset,
		maxAttempts: 3,
		backoff:     rateLimitBackoff,
		client:      &http.Client{Timeout: timeout, Transport: transport},
		limiter:     rate.NewLimiter(rate.Every(minDelay), 1),
	}
}

// Get fetches pageURL with query params and returns the body.
// 429 and 5xx responses and network errors are retried with a growing pause.
func (c *Client) Get(ctx context.Context, pageURL string, params map[string]string) ([]byte, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", pageURL, err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retry, err := c.do(ctx, u.String())
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || attempt == c.maxAttempts {
			break
		}
		wait := c.backoff * time.Duration(attempt)
		slog.Warn("DraftKings: request failed, backing off", "url", u.String(), "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, pageURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, false, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("draftkings: GET %s: status %d", pageURL, resp.StatusCode)
	default:
		preview := string(body)
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		slog.Warn("DraftKings: HTTP error response", "url", pageURL, "status", resp.StatusCode, "body_preview", preview)
		return nil, false, fmt.Errorf("draftkings: GET %s: status %d", pageURL, resp.StatusCode)
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.AddCookie(&http.Cookie{Name: "clientDateOffset", Value: c.dateOffset})
}
