package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"GrantChecker/internal/ports"
	"GrantChecker/internal/source"
)

// StrategySource implements RequirementSource via registered source strategies.
type StrategySource struct {
	registry *source.Registry
	logger   *slog.Logger
}

var _ ports.RequirementSource = (*StrategySource)(nil)

// NewStrategySource wires the source registry.
func NewStrategySource(reg *source.Registry, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		logger:   log,
	}
}

// Resolve tries the listing strategy when a URL is known, then the document
// strategy when a document was supplied. The first strategy that succeeds
// wins; if all fail their errors are joined.
func (s *StrategySource) Resolve(ctx context.Context, req source.Request) (source.Content, error) {
	if s.registry == nil {
		return source.Content{}, fmt.Errorf("source registry is not configured")
	}

	var names []string
	if strings.TrimSpace(req.URL) != "" {
		names = append(names, source.Listing)
	}
	if req.Document != nil {
		names = append(names, source.Document)
	}
	if len(names) == 0 {
		return source.Content{}, fmt.Errorf("no url or document to resolve")
	}

	var errs []error
	for _, name := range names {
		content, err := s.fetch(ctx, name, req)
		if err == nil {
			return content, nil
		}
		if ctx.Err() != nil {
			return source.Content{}, err
		}
		s.debug("requirement source failed", "strategy", name, "error", err)
		errs = append(errs, err)
	}
	return source.Content{}, errors.Join(errs...)
}

func (s *StrategySource) fetch(ctx context.Context, name string, req source.Request) (source.Content, error) {
	strategy, err := s.registry.Resolve(name)
	if err != nil {
		return source.Content{}, err
	}

	s.debug("resolve requirement source", "strategy", name, "url", req.URL)
	content, err := strategy.Fetch(ctx, req)
	if err != nil {
		return source.Content{}, fmt.Errorf("%s source: %w", name, err)
	}
	s.debug("requirement source resolved", "strategy", name, "chars", len(content.Text))
	return content, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
