package ports

import (
	"context"

	"GrantChecker/internal/domain"
	"GrantChecker/internal/source"
)

// WebPage is the rendered content returned by the web-extraction service.
type WebPage struct {
	Markdown string
	HTML     string
}

// WebExtractor renders a public listing page (e.g., Firecrawl).
type WebExtractor interface {
	Scrape(ctx context.Context, url string) (WebPage, error)
}

// DocumentParser turns a binary document into pages, text and typed blocks (e.g., Reducto).
type DocumentParser interface {
	Parse(ctx context.Context, doc domain.DocumentRef) (domain.ParsedDocument, error)
}

// ChatRequest is one system+user exchange with a language model.
type ChatRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// ChatClient sends prompts to LLM chat-completion APIs (OpenAI, Gemini).
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// RequirementSource resolves the text of a funding opportunity.
type RequirementSource interface {
	Resolve(ctx context.Context, req source.Request) (source.Content, error)
}

// RequirementExtractor turns a locator and/or document into a requirement set.
type RequirementExtractor interface {
	Extract(ctx context.Context, locator string, doc *domain.DocumentRef) domain.Outcome[domain.RequirementResult]
}

// ProposalAnalyzer turns submitted documents into a structured analysis.
type ProposalAnalyzer interface {
	Analyze(ctx context.Context, docs []domain.DocumentRef) domain.Outcome[domain.ProposalAnalysis]
}

// ComplianceChecker fuses rule checks and the consultative opinion into a report.
type ComplianceChecker interface {
	Check(ctx context.Context, reqs domain.Outcome[domain.RequirementResult], analysis domain.Outcome[domain.ProposalAnalysis]) (domain.ComplianceReport, error)
}
