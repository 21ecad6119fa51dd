package usecase

import (
	"fmt"
	"strings"

	"GrantChecker/internal/domain"
)

const documentFound = "found"

// EvaluateRules folds a proposal analysis into deterministic rule checks.
// It performs no I/O, cannot fail, and returns equal results for equal input.
func EvaluateRules(analysis domain.ProposalAnalysis) domain.RuleCheckResult {
	result := domain.RuleCheckResult{
		DocumentChecks:      []domain.DocumentCheck{},
		PageLimitChecks:     []domain.PageLimitViolation{},
		MissingDocuments:    []domain.MissingDocument{},
		PassedChecks:        []domain.PassedCheck{},
		CollaborationIssues: []domain.CollaborationIssue{},
	}

	for _, doc := range analysis.Inventory.FoundDocuments {
		pages := int(doc.Pages)
		result.DocumentChecks = append(result.DocumentChecks, domain.DocumentCheck{
			Document:  doc.Name,
			Status:    documentFound,
			Pages:     pages,
			Compliant: bool(doc.Compliant),
			Notes:     string(doc.Notes),
		})
		if doc.Compliant {
			result.PassedChecks = append(result.PassedChecks, domain.PassedCheck{
				Check:  doc.Name,
				Detail: pagesDetail(pages),
			})
		}
	}

	for _, doc := range analysis.Inventory.MissingDocuments {
		result.MissingDocuments = append(result.MissingDocuments, domain.MissingDocument{
			Document: doc.Name,
			Severity: doc.Severity,
			Note:     string(doc.Note),
		})
	}

	for _, entry := range analysis.PageLimitCompliance {
		switch strings.ToLower(strings.TrimSpace(entry.Status)) {
		case domain.PageStatusExceeded:
			result.PageLimitChecks = append(result.PageLimitChecks, domain.PageLimitViolation{
				Document: entry.Section,
				Status:   domain.PageStatusExceeded,
				Actual:   int(entry.Found),
				Limit:    int(entry.Allowed),
			})
		case domain.PageStatusCompliant:
			result.PassedChecks = append(result.PassedChecks, domain.PassedCheck{
				Check:  entry.Section + " page limit",
				Detail: fmt.Sprintf("%d/%d pages", entry.Found, entry.Allowed),
			})
		}
	}

	for _, collab := range analysis.Collaboration.Collaborators {
		if !strings.EqualFold(strings.TrimSpace(collab.LetterOfSupport), domain.LetterNotFound) {
			continue
		}
		result.CollaborationIssues = append(result.CollaborationIssues, domain.CollaborationIssue{
			Collaborator: collab.Name,
			Institution:  collab.Institution,
			Issue:        "Missing Letter of Support",
			Severity:     domain.SeverityCritical,
		})
	}

	if analysis.Formatting.AppearsCompliant {
		detail := string(analysis.Formatting.Notes)
		if strings.TrimSpace(detail) == "" {
			detail = "Appears compliant"
		}
		result.PassedChecks = append(result.PassedChecks, domain.PassedCheck{Check: "Formatting", Detail: detail})
	}

	return result
}

func pagesDetail(pages int) string {
	if pages > 0 {
		return fmt.Sprintf("%d pages", pages)
	}
	return "Present"
}
