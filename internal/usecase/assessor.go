package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"GrantChecker/internal/domain"
	"GrantChecker/internal/jsonx"
	"GrantChecker/internal/ports"
)

const (
	assessmentSystemPrompt = "You are a grant compliance expert. Respond only with valid JSON."
	assessmentTemperature  = 0.3
	assessmentMaxTokens    = 1000
)

// FallbackAssessment is the opinion used whenever the model cannot be consulted.
func FallbackAssessment() domain.AIAssessment {
	return domain.AIAssessment{
		AdditionalIssues:    []string{},
		Recommendations:     []string{"Review all documents manually before submission"},
		RiskAssessment:      domain.RiskMedium,
		SubmissionReadiness: domain.ReadinessNeedsWork,
		Summary:             "AI analysis unavailable - please review manually",
	}
}

// ConsultativeAssessor asks the language model for one qualitative opinion
// on the package. Assess is total.
type ConsultativeAssessor struct {
	chat   ports.ChatClient
	model  string
	logger *slog.Logger
}

// NewConsultativeAssessor wires the chat client; nil always yields the fallback opinion.
func NewConsultativeAssessor(chat ports.ChatClient, model string, logger *slog.Logger) *ConsultativeAssessor {
	return &ConsultativeAssessor{chat: chat, model: model, logger: orDiscard(logger)}
}

// Assess returns the model's opinion, or FallbackAssessment tagged with the reason.
func (a *ConsultativeAssessor) Assess(ctx context.Context, reqs domain.RequirementResult, analysis domain.ProposalAnalysis, rules domain.RuleCheckResult) domain.Outcome[domain.AIAssessment] {
	if a == nil || a.chat == nil {
		return a.fallback(domain.MissingCredential("language model"))
	}

	prompt, err := buildAssessmentPrompt(reqs, analysis, rules)
	if err != nil {
		return a.fallback(err)
	}

	reply, err := a.chat.Complete(ctx, ports.ChatRequest{
		Model:       a.model,
		System:      assessmentSystemPrompt,
		User:        prompt,
		Temperature: assessmentTemperature,
		MaxTokens:   assessmentMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return a.fallback(fmt.Errorf("consult model: %w", err))
	}

	var opinion domain.AIAssessment
	if err := jsonx.Decode(reply, &opinion); err != nil {
		return a.fallback(fmt.Errorf("consult model: %w", err))
	}
	return domain.Ok(normalizeAssessment(opinion))
}

func (a *ConsultativeAssessor) fallback(reason error) domain.Outcome[domain.AIAssessment] {
	if a != nil && a.logger != nil {
		a.logger.Warn("consultative assessment unavailable", "error", reason)
	}
	return domain.Fallback(FallbackAssessment(), reason)
}

// normalizeAssessment pins enum fields to their allowed values and fills gaps.
func normalizeAssessment(in domain.AIAssessment) domain.AIAssessment {
	out := in
	switch strings.ToLower(strings.TrimSpace(in.RiskAssessment)) {
	case domain.RiskLow, domain.RiskMedium, domain.RiskHigh:
		out.RiskAssessment = strings.ToLower(strings.TrimSpace(in.RiskAssessment))
	default:
		out.RiskAssessment = domain.RiskMedium
	}
	switch strings.ToLower(strings.TrimSpace(in.SubmissionReadiness)) {
	case domain.ReadinessReady, domain.ReadinessNeedsWork, domain.ReadinessNotReady:
		out.SubmissionReadiness = strings.ToLower(strings.TrimSpace(in.SubmissionReadiness))
	default:
		out.SubmissionReadiness = domain.ReadinessNeedsWork
	}
	if strings.TrimSpace(out.Summary) == "" {
		out.Summary = "Review completed"
	}
	if out.AdditionalIssues == nil {
		out.AdditionalIssues = []string{}
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	return out
}

func buildAssessmentPrompt(reqs domain.RequirementResult, analysis domain.ProposalAnalysis, rules domain.RuleCheckResult) (string, error) {
	requirements, err := json.MarshalIndent(reqs.Requirements, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal requirements: %w", err)
	}
	pageLimits, err := json.Marshal(analysis.PageLimitCompliance)
	if err != nil {
		return "", fmt.Errorf("marshal page limits: %w", err)
	}
	contentMapping, err := json.Marshal(orEmptyMap(analysis.ContentMapping))
	if err != nil {
		return "", fmt.Errorf("marshal content mapping: %w", err)
	}
	budget, err := json.Marshal(analysis.Budget)
	if err != nil {
		return "", fmt.Errorf("marshal budget: %w", err)
	}
	subjects, err := json.Marshal(analysis.Subjects)
	if err != nil {
		return "", fmt.Errorf("marshal subjects: %w", err)
	}

	found := make([]string, 0, len(analysis.Inventory.FoundDocuments))
	for _, doc := range analysis.Inventory.FoundDocuments {
		found = append(found, doc.Name)
	}
	missing := make([]string, 0, len(rules.MissingDocuments))
	for _, doc := range rules.MissingDocuments {
		missing = append(missing, doc.Document)
	}
	collab := make([]string, 0, len(rules.CollaborationIssues))
	for _, issue := range rules.CollaborationIssues {
		collab = append(collab, fmt.Sprintf("%s (%s): %s", issue.Collaborator, issue.Institution, issue.Issue))
	}

	totalPages := "Unknown"
	if analysis.TotalPages > 0 {
		totalPages = fmt.Sprint(analysis.TotalPages)
	}

	var b strings.Builder
	b.WriteString("You are a grant compliance expert. Analyze this grant proposal against FOA requirements.\n\n")
	fmt.Fprintf(&b, "FOA REQUIREMENTS (from %s):\n%s\n\n", orDefault(reqs.Number, "Unknown FOA"), requirements)
	b.WriteString("PROPOSAL ANALYSIS:\n")
	fmt.Fprintf(&b, "- Title: %s\n", orDefault(analysis.Metadata.Title, "Unknown"))
	fmt.Fprintf(&b, "- PI: %s\n", orDefault(analysis.Metadata.PIName, "Unknown"))
	fmt.Fprintf(&b, "- Institution: %s\n", orDefault(analysis.Metadata.PIInstitution, "Unknown"))
	fmt.Fprintf(&b, "- Total pages: %s\n", totalPages)
	fmt.Fprintf(&b, "- Documents found: %s\n", orDefault(strings.Join(found, ", "), "None identified"))
	fmt.Fprintf(&b, "- Missing documents: %s\n", orDefault(strings.Join(missing, ", "), "None"))
	fmt.Fprintf(&b, "- Collaboration issues: %s\n", orDefault(strings.Join(collab, "; "), "None"))
	fmt.Fprintf(&b, "- Page limit compliance: %s\n", pageLimits)
	fmt.Fprintf(&b, "- Content mapping: %s\n", contentMapping)
	fmt.Fprintf(&b, "- Budget analysis: %s\n", budget)
	fmt.Fprintf(&b, "- Human subjects/Animals: %s\n\n", subjects)
	b.WriteString(`Provide a JSON response with:
{
  "additionalIssues": ["list any additional compliance issues not caught by rules"],
  "recommendations": ["list specific, actionable recommendations to fix issues"],
  "riskAssessment": "low/medium/high",
  "submissionReadiness": "ready/needs_work/not_ready",
  "summary": "2-3 sentence overall assessment"
}`)
	return b.String(), nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func orEmptyMap(m map[string]domain.ContentSection) map[string]domain.ContentSection {
	if m == nil {
		return map[string]domain.ContentSection{}
	}
	return m
}
