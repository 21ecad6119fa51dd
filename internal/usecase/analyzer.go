package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"GrantChecker/internal/catalog"
	"GrantChecker/internal/domain"
	"GrantChecker/internal/jsonx"
	"GrantChecker/internal/ports"
)

const (
	analysisSystemPrompt = "You are an expert NIH grant proposal analyzer. Return only valid JSON."
	analysisTemperature  = 0.2
	analysisMaxTokens    = 4000
	truncationMarker     = "\n...[truncated]"
	unparseableAnalysis  = "Could not parse model response"
)

// AnalyzerConfig tunes proposal analysis.
type AnalyzerConfig struct {
	Model        string
	TextBudget   int
	BytesPerPage int64
}

// ProposalAnalyzer parses submitted documents one by one and asks the
// language model for a structured view of the package.
type ProposalAnalyzer struct {
	catalog *catalog.Catalog
	parser  ports.DocumentParser
	chat    ports.ChatClient
	cfg     AnalyzerConfig
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.ProposalAnalyzer = (*ProposalAnalyzer)(nil)

// NewProposalAnalyzer wires the collaborators. Nil parser or chat client
// disable the matching step; the analysis then takes its fallback path.
func NewProposalAnalyzer(cat *catalog.Catalog, parser ports.DocumentParser, chat ports.ChatClient, cfg AnalyzerConfig, logger *slog.Logger) *ProposalAnalyzer {
	return &ProposalAnalyzer{
		catalog: cat,
		parser:  parser,
		chat:    chat,
		cfg:     cfg,
		logger:  orDiscard(logger),
		now:     time.Now,
	}
}

// Analyze processes docs sequentially. The result is Failed only for an empty
// package; every remote failure degrades to a Fallback.
func (a *ProposalAnalyzer) Analyze(ctx context.Context, docs []domain.DocumentRef) domain.Outcome[domain.ProposalAnalysis] {
	if len(docs) == 0 {
		return domain.Failed[domain.ProposalAnalysis](domain.ErrNoDocuments)
	}

	var (
		text     strings.Builder
		blocks   []domain.ContentBlock
		inferred []domain.DetectedSection
		pages    int
	)
	for _, doc := range docs {
		parsed := a.parseDocument(ctx, doc)
		text.WriteString("\n\n=== FILE: ")
		text.WriteString(doc.Name)
		text.WriteString(" ===\n")
		text.WriteString(parsed.Text)
		pages += parsed.PageCount
		blocks = append(blocks, parsed.Blocks...)
		inferred = append(inferred, parsed.Sections...)
	}

	content := text.String()
	sections := mergeSections(DetectSections(a.catalog.Sections, content, blocks), inferred)
	a.logger.Info("documents parsed",
		"documents", len(docs),
		"pages", pages,
		"chars", len(content),
		"sections", len(sections))

	base := domain.ProposalAnalysis{TotalPages: pages, Sections: sections}

	if a.chat == nil {
		err := domain.MissingCredential("language model")
		base.Error = err.Error()
		return domain.Fallback(base, err)
	}

	sample, cut := truncateRunes(content, a.cfg.TextBudget)
	if cut {
		sample += truncationMarker
	}

	reply, err := a.chat.Complete(ctx, ports.ChatRequest{
		Model:       a.cfg.Model,
		System:      analysisSystemPrompt,
		User:        buildAnalysisPrompt(sample, pages, a.now()),
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		a.logger.Warn("proposal analysis model call failed", "error", err)
		base.Error = err.Error()
		return domain.Fallback(base, fmt.Errorf("analyze proposal: %w", err))
	}

	analysis, failed, err := decodeAnalysis(reply)
	if err != nil {
		a.logger.Warn("proposal analysis reply unparseable", "error", err)
		base.Error = unparseableAnalysis
		base.Raw = reply
		return domain.Fallback(base, fmt.Errorf("analyze proposal: %w", err))
	}

	analysis.TotalPages = pages
	analysis.Sections = sections
	if len(failed) > 0 {
		a.logger.Warn("proposal analysis reply partly unparseable", "sections", failed)
		analysis.Error = "Could not parse model sections: " + strings.Join(failed, ", ")
		analysis.Raw = reply
	}

	a.logger.Info("proposal analyzed",
		"found", len(analysis.Inventory.FoundDocuments),
		"missing", len(analysis.Inventory.MissingDocuments))
	return domain.Ok(analysis)
}

// decodeAnalysis unmarshals each top-level section of the reply on its own.
// A section of the wrong shape is named in failed and the others are kept.
// The error is non-nil only when the reply holds no object or every section
// present failed.
func decodeAnalysis(reply string) (analysis domain.ProposalAnalysis, failed []string, err error) {
	raw, err := jsonx.ExtractObject(reply)
	if err != nil {
		return domain.ProposalAnalysis{}, nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.ProposalAnalysis{}, nil, fmt.Errorf("decode object: %v: %w", err, domain.ErrParse)
	}

	targets := []struct {
		key string
		dst any
	}{
		{"proposal_metadata", &analysis.Metadata},
		{"document_inventory", &analysis.Inventory},
		{"page_limit_compliance", &analysis.PageLimitCompliance},
		{"content_mapping", &analysis.ContentMapping},
		{"collaboration_detection", &analysis.Collaboration},
		{"budget_analysis", &analysis.Budget},
		{"human_subjects_vertebrate_animals", &analysis.Subjects},
		{"formatting_analysis", &analysis.Formatting},
	}

	decoded := 0
	for _, target := range targets {
		value, ok := fields[target.key]
		if !ok || string(value) == "null" {
			continue
		}
		if err := json.Unmarshal(value, target.dst); err != nil {
			failed = append(failed, target.key)
			continue
		}
		decoded++
	}
	if decoded == 0 && len(failed) > 0 {
		return domain.ProposalAnalysis{}, failed, fmt.Errorf("decode sections %s: %w", strings.Join(failed, ", "), domain.ErrParse)
	}
	return analysis, failed, nil
}

func (a *ProposalAnalyzer) parseDocument(ctx context.Context, doc domain.DocumentRef) domain.ParsedDocument {
	if a.parser == nil {
		return a.fallbackDocument(doc)
	}
	parsed, err := a.parser.Parse(ctx, doc)
	if err != nil {
		a.logger.Warn("document parsing failed, estimating from file", "document", doc.Name, "error", err)
		return a.fallbackDocument(doc)
	}
	if parsed.PageCount < 1 {
		parsed.PageCount = domain.EstimatePages(fileSize(doc), a.cfg.BytesPerPage)
		parsed.Estimated = true
	}
	return parsed
}

// fallbackDocument never fails: pages come from the file size and sections
// from the file name.
func (a *ProposalAnalyzer) fallbackDocument(doc domain.DocumentRef) domain.ParsedDocument {
	return domain.ParsedDocument{
		Name:      doc.Name,
		PageCount: domain.EstimatePages(fileSize(doc), a.cfg.BytesPerPage),
		Text:      fmt.Sprintf("[Content from %s]", doc.Name),
		Sections:  a.catalog.SectionsForFilename(doc.Name),
		Estimated: true,
	}
}

func fileSize(doc domain.DocumentRef) int64 {
	if doc.Size > 0 {
		return doc.Size
	}
	if doc.Path == "" {
		return 0
	}
	info, err := os.Stat(doc.Path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func buildAnalysisPrompt(content string, totalPages int, now time.Time) string {
	var b strings.Builder
	b.WriteString("You are an expert NIH grant proposal analyzer. Analyze this grant proposal content extracted from a PDF and return a detailed JSON analysis.\n\n")
	fmt.Fprintf(&b, "PROPOSAL CONTENT (%d pages):\n%s\n\n", totalPages, content)
	b.WriteString("Return a JSON object with this EXACT structure:\n")
	b.WriteString(strings.Replace(analysisSchema, "{{timestamp}}", now.UTC().Format(time.RFC3339), 1))
	b.WriteString("\n\nBe thorough. Look for ALL standard NIH grant components. Return ONLY valid JSON.")
	return b.String()
}

const analysisSchema = `{
  "proposal_metadata": {
    "title": "extracted proposal title",
    "pi_name": "Principal Investigator name",
    "pi_institution": "institution name",
    "extraction_timestamp": "{{timestamp}}"
  },
  "document_inventory": {
    "found_documents": [
      {
        "name": "document name (e.g., Specific Aims, Research Strategy, Budget, Biosketch, etc.)",
        "status": "present",
        "pages": estimated_page_count,
        "compliant": true/false,
        "notes": "any relevant notes"
      }
    ],
    "missing_documents": [
      {
        "name": "missing document name",
        "severity": "critical/warning",
        "note": "why it appears to be missing"
      }
    ]
  },
  "page_limit_compliance": {
    "specific_aims": { "found": pages, "allowed": 1, "status": "compliant/exceeded" },
    "research_strategy": { "found": pages, "allowed": 12, "status": "compliant/exceeded" },
    "biosketches": { "found": pages, "allowed": 5, "status": "compliant/exceeded" },
    "data_management_plan": { "found": pages, "allowed": 2, "status": "compliant/exceeded" }
  },
  "content_mapping": {
    "specific_aims": { "present": true/false, "page_estimate": "1" },
    "significance": { "present": true/false, "page_estimate": "2-4" },
    "innovation": { "present": true/false, "page_estimate": "5-6" },
    "approach": { "present": true/false, "page_estimate": "7-12" },
    "preliminary_data": { "present": true/false },
    "timeline": { "present": true/false },
    "rigor_section": { "present": true/false }
  },
  "collaboration_detection": {
    "collaborators_mentioned": [
      {
        "name": "collaborator name",
        "institution": "institution",
        "role": "role description",
        "letter_of_support": "FOUND/NOT FOUND"
      }
    ]
  },
  "budget_analysis": {
    "type": "Modular/Detailed/R&R",
    "budget_detected": true/false,
    "budget_justification_detected": true/false,
    "extracted_totals": {
      "direct_costs_year1": null,
      "total_project": null
    }
  },
  "human_subjects_vertebrate_animals": {
    "human_subjects": { "involved": true/false, "irb_mentioned": true/false },
    "vertebrate_animals": { "involved": true/false, "iacuc_mentioned": true/false }
  },
  "formatting_analysis": {
    "estimated_font": "Arial/Times New Roman/Unknown",
    "appears_compliant": true/false,
    "notes": "any formatting observations"
  },
  "sections": [
    { "name": "section name", "detected": true, "page_estimate": "1-2" }
  ]
}`
