// Package fetch implements the bounded HTTP fetching used by the URL
// extractor: page bodies and favicons, with a response size cap and a
// redirect limit.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config configures the fetcher.
type Config struct {
	Timeout   time.Duration `yaml:"timeout"`    // per-request. Default: 30s.
	MaxBytes  int64         `yaml:"max_bytes"`  // response body cap. Default: 10MB.
	UserAgent string        `yaml:"user_agent"` // sent with every request.
}

// Defaults fills zero fields with production defaults.
func (c *Config) Defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
}

// Result is a completed fetch.
type Result struct {
	Body        []byte
	StatusCode  int
	ContentType string
}

// Fetcher performs bounded HTTP GETs.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher with a capped redirect chain.
func New(cfg Config) *Fetcher {
	cfg.Defaults()
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Get retrieves a URL. Non-2xx/3xx statuses are errors; the body is read up
// to the configured byte cap.
func (f *Fetcher) Get(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return &Result{StatusCode: resp.StatusCode}, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Result{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
