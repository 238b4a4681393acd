// Package portal implements the Integra portal HTTP client: sequential
// listing pagination and a bounded-concurrency detail fetcher pool.
package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/integralabs/integra-harvester/internal/config"
)

// Client talks to one or more Integra portals. It is safe for concurrent use.
type Client struct {
	http          *http.Client
	userAgent     string
	pageSize      int
	maxConcurrent int
	pageDelay     time.Duration
	logger        *zap.Logger
}

// NewClient builds a Client from service configuration.
func NewClient(cfg config.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:          &http.Client{Timeout: cfg.HTTPTimeout()},
		userAgent:     cfg.HTTP.UserAgent,
		pageSize:      cfg.Crawler.PageSize,
		maxConcurrent: cfg.Crawler.MaxConcurrent,
		pageDelay:     cfg.PageDelay(),
		logger:        logger,
	}
}

// getJSON issues a GET request and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func baseURL(inst config.Institution) string {
	return strings.TrimRight(inst.BaseURL, "/")
}
