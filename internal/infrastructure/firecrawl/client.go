package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"GrantChecker/internal/config"
	"GrantChecker/internal/domain"
	"GrantChecker/internal/ports"
)

const serviceName = "firecrawl"

// Client talks to the Firecrawl scrape API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.WebExtractor = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.FirecrawlConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
	} `json:"data"`
}

// Scrape requests markdown and HTML renderings of the main content of url.
func (c *Client) Scrape(ctx context.Context, url string) (ports.WebPage, error) {
	if c == nil || c.apiKey == "" {
		return ports.WebPage{}, domain.MissingCredential(serviceName)
	}

	payload := scrapeRequest{
		URL:             url,
		Formats:         []string{"markdown", "html"},
		OnlyMainContent: true,
	}

	var resp scrapeResponse
	if err := c.post(ctx, "/v1/scrape", payload, &resp); err != nil {
		return ports.WebPage{}, err
	}
	if !resp.Success && resp.Error != "" {
		return ports.WebPage{}, &domain.RemoteError{Service: serviceName, Status: http.StatusOK, Message: resp.Error}
	}

	return ports.WebPage{Markdown: resp.Data.Markdown, HTML: resp.Data.HTML}, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w: %w", domain.ErrRemoteService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &domain.RemoteError{Service: serviceName, Status: resp.StatusCode, Message: strings.TrimSpace(string(slurp))}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w: %w", domain.ErrRemoteService, err)
	}
	return nil
}
