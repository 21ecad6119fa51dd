package reducto

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrantChecker/internal/config"
	"GrantChecker/internal/domain"
)

func writeDoc(t *testing.T, name string, size int) domain.DocumentRef {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o600))
	return domain.DocumentRef{Name: name, Path: path, Size: int64(size)}
}

func TestParseUploadThenParse(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer rd-key", r.Header.Get("Authorization"))
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		assert.Equal(t, "Research_Strategy.pdf", header.Filename)
		assert.Len(t, body, 10)
		_, _ = w.Write([]byte(`{"file_id":"reducto://abc"}`))
	})
	mux.HandleFunc("/parse", func(w http.ResponseWriter, r *http.Request) {
		var req parseRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "reducto://abc", req.Input)
		_, _ = w.Write([]byte(`{
			"usage": {"num_pages": 7},
			"result": {"type": "full", "chunks": [
				{"content": "SPECIFIC AIMS", "blocks": [{"type": "Title", "content": "Specific Aims"}]},
				{"content": "Significance text", "blocks": [{"type": "Text", "content": "Significance"}]}
			]}
		}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(config.ReductoConfig{Endpoint: server.URL, APIKey: "rd-key"}, 1024)
	parsed, err := client.Parse(context.Background(), writeDoc(t, "Research_Strategy.pdf", 10))
	require.NoError(t, err)

	assert.Equal(t, "Research_Strategy.pdf", parsed.Name)
	assert.Equal(t, 7, parsed.PageCount)
	assert.False(t, parsed.Estimated)
	assert.Equal(t, "SPECIFIC AIMS\n\nSignificance text", parsed.Text)
	assert.Equal(t, []domain.ContentBlock{
		{Type: "Title", Content: "Specific Aims"},
		{Type: "Text", Content: "Significance"},
	}, parsed.Blocks)
}

func TestParseFollowsURLResult(t *testing.T) {
	t.Parallel()

	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("only one auth mechanism allowed"))
			return
		}
		assert.Equal(t, "/results/f1", r.URL.Path)
		assert.Equal(t, "sig", r.URL.Query().Get("X-Amz-Signature"))
		_, _ = w.Write([]byte(`{"chunks":[{"content":"large result"}]}`))
	}))
	defer storage.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"file_id":"f1"}`))
	})
	mux.HandleFunc("/parse", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"result":{"type":"url","url":"` + storage.URL + `/results/f1?X-Amz-Signature=sig"}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(config.ReductoConfig{Endpoint: server.URL, APIKey: "k"}, 100)
	parsed, err := client.Parse(context.Background(), writeDoc(t, "budget.pdf", 250))
	require.NoError(t, err)

	assert.Equal(t, "large result", parsed.Text)
	assert.Equal(t, 3, parsed.PageCount)
	assert.True(t, parsed.Estimated)
}

func TestParseFailures(t *testing.T) {
	t.Parallel()

	_, err := NewClient(config.ReductoConfig{Endpoint: "http://unused"}, 1).Parse(context.Background(), domain.DocumentRef{Name: "a.pdf"})
	require.ErrorIs(t, err, domain.ErrMissingCredential)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad key"))
	}))
	defer server.Close()

	client := NewClient(config.ReductoConfig{Endpoint: server.URL, APIKey: "k"}, 1)
	_, err = client.Parse(context.Background(), writeDoc(t, "a.pdf", 5))
	require.ErrorIs(t, err, domain.ErrRemoteService)

	var remote *domain.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusUnauthorized, remote.Status)

	noID := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer noID.Close()

	_, err = NewClient(config.ReductoConfig{Endpoint: noID.URL, APIKey: "k"}, 1).Parse(context.Background(), writeDoc(t, "a.pdf", 5))
	require.ErrorIs(t, err, domain.ErrRemoteService)
}
