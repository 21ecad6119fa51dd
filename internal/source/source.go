package source

import (
	"context"
	"fmt"

	"GrantChecker/internal/domain"
)

// Strategy names registered by the application.
const (
	Listing  = "listing"
	Document = "document"
)

// Request describes where a funding opportunity's text can be found.
type Request struct {
	URL      string
	Document *domain.DocumentRef
}

// Content is the text a strategy retrieved.
type Content struct {
	Text   string
	Origin string
}

// Source captures a single retrieval strategy (public listing, uploaded document).
type Source interface {
	Name() string
	Fetch(ctx context.Context, req Request) (Content, error)
}

// Registry keeps a mapping from strategy names to their implementations.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]Source{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(source Source) {
	if r.sources == nil {
		r.sources = map[string]Source{}
	}
	r.sources[source.Name()] = source
}

// Resolve returns a strategy by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Source, error) {
	if source, ok := r.sources[name]; ok {
		return source, nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}
