package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"GrantChecker/internal/catalog"
	"GrantChecker/internal/domain"
	"GrantChecker/internal/ports"
	"GrantChecker/internal/source"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return cat
}

type sourceFunc func(ctx context.Context, req source.Request) (source.Content, error)

func (f sourceFunc) Resolve(ctx context.Context, req source.Request) (source.Content, error) {
	return f(ctx, req)
}

type parserFunc func(ctx context.Context, doc domain.DocumentRef) (domain.ParsedDocument, error)

func (f parserFunc) Parse(ctx context.Context, doc domain.DocumentRef) (domain.ParsedDocument, error) {
	return f(ctx, doc)
}

// fakeChat returns canned replies and records every request.
type fakeChat struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []ports.ChatRequest
}

func (f *fakeChat) Complete(_ context.Context, req ports.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeChat) last() ports.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return ports.ChatRequest{}
	}
	return f.requests[len(f.requests)-1]
}
