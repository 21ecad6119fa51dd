package reducto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"GrantChecker/internal/config"
	"GrantChecker/internal/domain"
	"GrantChecker/internal/ports"
)

const serviceName = "reducto"

// Client uploads documents to Reducto and parses them by file id.
type Client struct {
	endpoint     string
	apiKey       string
	bytesPerPage int64
	http         *http.Client
}

var _ ports.DocumentParser = (*Client)(nil)

// NewClient creates a reusable HTTP client. bytesPerPage is used when the
// service does not report a page count.
func NewClient(cfg config.ReductoConfig, bytesPerPage int64) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		bytesPerPage: bytesPerPage,
		http:         &http.Client{Timeout: timeout},
	}
}

type uploadResponse struct {
	FileID string `json:"file_id"`
}

type parseRequest struct {
	Input string `json:"input"`
}

type chunk struct {
	Content string                `json:"content"`
	Blocks  []domain.ContentBlock `json:"blocks"`
}

type parseResult struct {
	Type   string  `json:"type"`
	URL    string  `json:"url"`
	Chunks []chunk `json:"chunks"`
}

type usage struct {
	NumPages int `json:"num_pages"`
}

type parseResponse struct {
	Usage  usage       `json:"usage"`
	Result parseResult `json:"result"`
}

// Parse runs the upload-then-parse handshake for one document.
func (c *Client) Parse(ctx context.Context, doc domain.DocumentRef) (domain.ParsedDocument, error) {
	if c == nil || c.apiKey == "" {
		return domain.ParsedDocument{}, domain.MissingCredential(serviceName)
	}

	raw, err := os.ReadFile(doc.Path)
	if err != nil {
		return domain.ParsedDocument{}, fmt.Errorf("read %s: %w", doc.Name, err)
	}

	fileID, err := c.upload(ctx, doc.Name, raw)
	if err != nil {
		return domain.ParsedDocument{}, fmt.Errorf("upload %s: %w", doc.Name, err)
	}

	var parsed parseResponse
	if err := c.postJSON(ctx, "/parse", parseRequest{Input: fileID}, &parsed); err != nil {
		return domain.ParsedDocument{}, fmt.Errorf("parse %s: %w", doc.Name, err)
	}

	chunks := parsed.Result.Chunks
	if parsed.Result.Type == "url" && parsed.Result.URL != "" {
		var remote parseResult
		if err := c.get(ctx, parsed.Result.URL, &remote); err != nil {
			return domain.ParsedDocument{}, fmt.Errorf("fetch result %s: %w", doc.Name, err)
		}
		chunks = remote.Chunks
	}

	pages := parsed.Usage.NumPages
	estimated := false
	if pages <= 0 {
		pages = domain.EstimatePages(int64(len(raw)), c.bytesPerPage)
		estimated = true
	}

	texts := make([]string, 0, len(chunks))
	var blocks []domain.ContentBlock
	for _, ch := range chunks {
		texts = append(texts, ch.Content)
		blocks = append(blocks, ch.Blocks...)
	}

	return domain.ParsedDocument{
		Name:      doc.Name,
		PageCount: pages,
		Text:      strings.Join(texts, "\n\n"),
		Blocks:    blocks,
		Estimated: estimated,
	}, nil
}

func (c *Client) upload(ctx context.Context, name string, content []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/upload", &body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp uploadResponse
	if err := c.do(c.authorize(req), &resp); err != nil {
		return "", err
	}
	if resp.FileID == "" {
		return "", &domain.RemoteError{Service: serviceName, Status: http.StatusOK, Message: "upload returned no file_id"}
	}
	return resp.FileID, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(c.authorize(req), v)
}

// get fetches a result URL. Those point at presigned storage, so no
// credentials are attached.
func (c *Client) get(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	return c.do(req, v)
}

func (c *Client) authorize(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req
}

func (c *Client) do(req *http.Request, v any) error {
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
