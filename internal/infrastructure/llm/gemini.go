package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"GrantChecker/internal/config"
	"GrantChecker/internal/domain"
	"GrantChecker/internal/ports"
)

const geminiService = "gemini"

// GeminiClient implements ports.ChatClient on the Gemini API. The SDK client
// is created on the first call; a failed creation is retried on the next one.
type GeminiClient struct {
	apiKey string
	newSDK func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error)

	mu     sync.Mutex
	client *genai.Client
}

var _ ports.ChatClient = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	return &GeminiClient{apiKey: cfg.APIKey, newSDK: genai.NewClient}
}

// sdk is independent of any request context: the SDK client outlives the
// call that creates it.
func (g *GeminiClient) sdk() (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	client, err := g.newSDK(context.Background(), &genai.ClientConfig{
		APIKey: g.apiKey,
	})
	if err != nil {
		return nil, err
	}
	g.client = client
	return client, nil
}

// Complete sends the system prompt as a system instruction and the user prompt
// as the single content turn.
func (g *GeminiClient) Complete(ctx context.Context, in ports.ChatRequest) (string, error) {
	if g == nil || g.apiKey == "" {
		return "", domain.MissingCredential(geminiService)
	}

	client, err := g.sdk()
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w: %w", domain.ErrRemoteService, err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(in.Temperature)),
	}
	if in.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(in.MaxTokens)
	}
	if strings.TrimSpace(in.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(in.System, genai.RoleUser)
	}
	if in.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{
		genai.NewContentFromText(in.User, genai.RoleUser),
	}
	resp, err := client.Models.GenerateContent(ctx, in.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w: %w", domain.ErrRemoteService, err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no text: %w", domain.ErrParse)
	}
	return text, nil
}
