package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrantChecker/internal/config"
	"GrantChecker/internal/domain"
)

type runnerFunc func(ctx context.Context, req domain.CheckRequest) domain.CheckResult

func (f runnerFunc) Run(ctx context.Context, req domain.CheckRequest) domain.CheckResult {
	return f(ctx, req)
}

type part struct {
	field    string
	filename string
	content  string
}

func multipartBody(t *testing.T, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.filename == "" {
			require.NoError(t, mw.WriteField(p.field, p.content))
			continue
		}
		w, err := mw.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = w.Write([]byte(p.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func testServer(t *testing.T, runner Runner) *Server {
	t.Helper()
	return NewServer(runner, config.ServerConfig{
		MaxFiles:     2,
		MaxFileBytes: 64,
		UploadDir:    t.TempDir(),
	}, nil)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	testServer(t, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","message":"Server is running"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUploadRunsPipeline(t *testing.T) {
	t.Parallel()

	var got domain.CheckRequest
	var paths []string
	runner := runnerFunc(func(_ context.Context, req domain.CheckRequest) domain.CheckResult {
		got = req
		for _, doc := range req.Proposal {
			paths = append(paths, doc.Path)
			raw, err := os.ReadFile(doc.Path)
			assert.NoError(t, err)
			assert.NotEmpty(t, raw)
		}
		return domain.CheckResult{
			RunID: "run-1",
			Requirements: domain.Ok(domain.RequirementResult{
				Number: "PA-25-301",
				Requirements: domain.RequirementSet{
					RequiredDocuments: []domain.RequiredDocument{{Name: "Specific Aims"}, {Name: "Budget"}},
				},
			}),
			Analysis: domain.Fallback(domain.ProposalAnalysis{
				TotalPages: 4,
				Sections:   []domain.DetectedSection{{Name: "Budget", Detected: true}},
			}, nil),
			Report: domain.ComplianceReport{OverallScore: 50, ReadyToSubmit: domain.ReadyNo},
		}
	})

	body, contentType := multipartBody(t,
		part{field: "foaUrl", content: " https://grants.nih.gov/grants/guide/pa-files/PA-25-301.html "},
		part{field: "proposalPackages", filename: "Aims.PDF", content: "aims"},
		part{field: "grantPackages", filename: "budget.pdf", content: "budget"},
		part{field: "requirementDocument", filename: "foa.html", content: "<p>FOA</p>"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	testServer(t, runner).Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "https://grants.nih.gov/grants/guide/pa-files/PA-25-301.html", got.Locator)
	require.Len(t, got.Proposal, 2)
	assert.Equal(t, "Aims.PDF", got.Proposal[0].Name)
	assert.Equal(t, int64(4), got.Proposal[0].Size)
	require.NotNil(t, got.RequirementDocument)
	assert.Equal(t, "foa.html", got.RequirementDocument.Name)

	for _, p := range paths {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "upload %s should be removed after the response", p)
	}

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			RunID               string    `json:"runId"`
			RequirementDocument *fileInfo `json:"requirementDocument"`
			RequirementURL      string    `json:"requirementUrl"`
			RequirementNumber   string    `json:"requirementNumber"`
			ProposalPackages    []fileInfo
			AgentResults        agentResults            `json:"agentResults"`
			ComplianceReport    domain.ComplianceReport `json:"complianceReport"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, "Compliance check completed", resp.Message)
	assert.Equal(t, "run-1", resp.Data.RunID)
	assert.Equal(t, "PA-25-301", resp.Data.RequirementNumber)
	require.Len(t, resp.Data.ProposalPackages, 2)
	assert.Equal(t, "Aims.PDF", resp.Data.ProposalPackages[0].OriginalName)
	assert.True(t, strings.HasPrefix(resp.Data.ProposalPackages[0].Filename, "proposalPackages-"))
	assert.True(t, strings.HasSuffix(resp.Data.ProposalPackages[0].Filename, ".pdf"))
	assert.True(t, strings.HasPrefix(resp.Data.ProposalPackages[1].Filename, "grantPackages-"))
	require.NotNil(t, resp.Data.RequirementDocument)
	assert.Equal(t, int64(len("<p>FOA</p>")), resp.Data.RequirementDocument.Size)

	assert.Equal(t, extractorResult{Success: true, RequirementsFound: 2, Kind: "ok"}, resp.Data.AgentResults.Extractor)
	assert.Equal(t, analyzerResult{Success: false, SectionsFound: 1, TotalPages: 4, Kind: "fallback"}, resp.Data.AgentResults.Analyzer)
	assert.Equal(t, 50, resp.Data.ComplianceReport.OverallScore)
}

func TestUploadEnvelopeNulls(t *testing.T) {
	t.Parallel()

	runner := runnerFunc(func(context.Context, domain.CheckRequest) domain.CheckResult {
		return domain.CheckResult{}
	})
	body, contentType := multipartBody(t, part{field: "proposalPackages", filename: "a.pdf", content: "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	testServer(t, runner).Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "null", string(raw["data"]["requirementDocument"]))
	assert.Equal(t, "null", string(raw["data"]["requirementUrl"]))
	assert.Equal(t, "null", string(raw["data"]["requirementNumber"]))
}

func TestUploadRejectsBadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		parts  []part
		status int
		errMsg string
	}{
		{
			name: "too many proposal files",
			parts: []part{
				{field: "proposalPackages", filename: "a.pdf", content: "a"},
				{field: "proposalPackages", filename: "b.pdf", content: "b"},
				{field: "grantPackages", filename: "c.pdf", content: "c"},
			},
			status: http.StatusBadRequest,
			errMsg: "at most 2 proposal files",
		},
		{
			name: "two requirement documents",
			parts: []part{
				{field: "requirementDocument", filename: "a.pdf", content: "a"},
				{field: "foaDocument", filename: "b.pdf", content: "b"},
			},
			status: http.StatusBadRequest,
			errMsg: "at most one requirement document",
		},
		{
			name:   "unexpected field",
			parts:  []part{{field: "avatar", filename: "me.png", content: "x"}},
			status: http.StatusBadRequest,
			errMsg: `unexpected file field "avatar"`,
		},
		{
			name:   "file too large",
			parts:  []part{{field: "proposalPackages", filename: "big.pdf", content: strings.Repeat("x", 65)}},
			status: http.StatusRequestEntityTooLarge,
			errMsg: "big.pdf exceeds the 64 byte limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := runnerFunc(func(context.Context, domain.CheckRequest) domain.CheckResult {
				t.Error("pipeline must not run for a rejected request")
				return domain.CheckResult{}
			})
			srv := testServer(t, runner)
			body, contentType := multipartBody(t, tt.parts...)
			req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var resp envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Error, tt.errMsg)

			entries, err := os.ReadDir(srv.cfg.UploadDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "rejected uploads must not leave files behind")
		})
	}
}

func TestUploadBodyOverTotalLimit(t *testing.T) {
	t.Parallel()

	runner := runnerFunc(func(context.Context, domain.CheckRequest) domain.CheckResult {
		t.Error("pipeline must not run for a rejected request")
		return domain.CheckResult{}
	})
	srv := testServer(t, runner)

	var parts []part
	for range 20 {
		parts = append(parts, part{field: "requirementUrl", content: strings.Repeat("u", 60<<10)})
	}
	body, contentType := multipartBody(t, parts...)
	require.Greater(t, int64(body.Len()), srv.bodyLimit())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var resp envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "request body exceeds")

	entries, err := os.ReadDir(srv.cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadRequiresMultipart(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{"foaUrl":"PA-25-301"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	testServer(t, nil).Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()

	testServer(t, nil).Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "content-type", rec.Header().Get("Access-Control-Allow-Headers"))
}
