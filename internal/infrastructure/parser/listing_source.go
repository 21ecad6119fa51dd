package parser

import (
	"context"
	"fmt"
	"strings"

	"GrantChecker/internal/domain"
	"GrantChecker/internal/ports"
	"GrantChecker/internal/source"
)

// ListingSource renders a public opportunity listing through the web-extraction service.
type ListingSource struct {
	extractor ports.WebExtractor
}

var _ source.Source = (*ListingSource)(nil)

// NewListingSource wires a web extractor; a nil extractor reports a missing credential.
func NewListingSource(extractor ports.WebExtractor) *ListingSource {
	return &ListingSource{extractor: extractor}
}

// Name identifies the strategy inside the registry.
func (l *ListingSource) Name() string {
	return source.Listing
}

// Fetch prefers the service's markdown rendering and falls back to text
// extracted from its HTML rendering.
func (l *ListingSource) Fetch(ctx context.Context, req source.Request) (source.Content, error) {
	if l.extractor == nil {
		return source.Content{}, domain.MissingCredential("web extraction")
	}
	if strings.TrimSpace(req.URL) == "" {
		return source.Content{}, fmt.Errorf("listing source: empty url")
	}

	page, err := l.extractor.Scrape(ctx, req.URL)
	if err != nil {
		return source.Content{}, fmt.Errorf("scrape %s: %w", req.URL, err)
	}

	if strings.TrimSpace(page.Markdown) != "" {
		return source.Content{Text: page.Markdown, Origin: req.URL}, nil
	}
	if strings.TrimSpace(page.HTML) == "" {
		return source.Content{Origin: req.URL}, nil
	}

	text, err := ExtractTextString(page.HTML)
	if err != nil {
		return source.Content{}, fmt.Errorf("listing %s: %w", req.URL, err)
	}
	return source.Content{Text: text, Origin: req.URL}, nil
}
