package usecase

import (
	"fmt"
	"math"
	"strings"

	"GrantChecker/internal/domain"
)

// ReadinessPolicy holds the ready-to-submit thresholds.
type ReadinessPolicy struct {
	// MaxWarningsForReady is the largest warning count still labelled "Yes".
	MaxWarningsForReady int
}

// SynthesizeReport merges rule checks and the consultative opinion into the
// final report. meta may be nil.
func SynthesizeReport(rules domain.RuleCheckResult, ai domain.AIAssessment, meta *domain.ProposalMetadata, policy ReadinessPolicy) domain.ComplianceReport {
	critical := []domain.Finding{}
	warnings := []domain.Finding{}
	passed := []domain.Finding{}

	for _, missing := range rules.MissingDocuments {
		severity := missing.Severity
		if strings.TrimSpace(severity) == "" {
			severity = domain.SeverityCritical
		}
		critical = append(critical, domain.Finding{
			Type:     domain.FindingMissingDocument,
			Message:  "Missing required document: " + missing.Document,
			Severity: severity,
			Note:     missing.Note,
			Action:   fmt.Sprintf("Add %s to your application", missing.Document),
		})
	}

	for _, violation := range rules.PageLimitChecks {
		critical = append(critical, domain.Finding{
			Type:     domain.FindingPageLimit,
			Message:  fmt.Sprintf("%s exceeds page limit (%d/%d pages)", violation.Document, violation.Actual, violation.Limit),
			Severity: domain.SeverityCritical,
			Action:   fmt.Sprintf("Reduce %s to %d pages or fewer", violation.Document, violation.Limit),
		})
	}

	for _, issue := range rules.CollaborationIssues {
		critical = append(critical, domain.Finding{
			Type:     domain.FindingMissingLetter,
			Message:  fmt.Sprintf("Missing Letter of Support from %s at %s", issue.Collaborator, issue.Institution),
			Severity: domain.SeverityCritical,
			Action:   fmt.Sprintf("Obtain signed letter from %s Sponsored Programs", issue.Institution),
		})
	}

	for _, check := range rules.DocumentChecks {
		compliant := check.Compliant
		passed = append(passed, domain.Finding{
			Type:      domain.FindingDocumentPresent,
			Message:   check.Document + " is present",
			Detail:    pagesDetail(check.Pages),
			Compliant: &compliant,
		})
	}

	for _, check := range rules.PassedChecks {
		passed = append(passed, domain.Finding{
			Type:    domain.FindingCheckPassed,
			Message: check.Check,
			Detail:  check.Detail,
		})
	}

	for _, issue := range ai.AdditionalIssues {
		if strings.TrimSpace(issue) == "" {
			continue
		}
		warnings = append(warnings, domain.Finding{
			Type:     domain.FindingAIDetected,
			Message:  issue,
			Severity: domain.SeverityWarning,
		})
	}

	totalChecks := len(critical) + len(warnings) + len(passed)
	recommendations := ai.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}

	return domain.ComplianceReport{
		OverallScore:           score(len(passed), totalChecks),
		ReadyToSubmit:          readiness(len(critical), len(warnings), policy),
		ProposalMetadata:       meta,
		CriticalErrors:         critical,
		Warnings:               warnings,
		Passed:                 passed,
		Recommendations:        recommendations,
		RiskAssessment:         ai.RiskAssessment,
		SubmissionReadiness:    ai.SubmissionReadiness,
		Summary:                ai.Summary,
		TotalChecks:            totalChecks,
		TotalDocumentsFound:    len(rules.DocumentChecks),
		TotalDocumentsRequired: len(rules.DocumentChecks) + len(rules.MissingDocuments),
	}
}

// SystemErrorReport is the degenerate report returned when the compliance
// stage itself faults.
func SystemErrorReport(err error) domain.ComplianceReport {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return domain.ComplianceReport{
		OverallScore:  0,
		ReadyToSubmit: domain.ReadyUndetermined,
		CriticalErrors: []domain.Finding{{
			Type:     domain.FindingSystemError,
			Message:  "Compliance check failed: " + msg,
			Severity: domain.SeverityCritical,
			Action:   "Please try again or review manually",
		}},
		Warnings:            []domain.Finding{},
		Passed:              []domain.Finding{},
		Recommendations:     []string{"Manual review required due to system error"},
		RiskAssessment:      domain.RiskUnknown,
		SubmissionReadiness: domain.ReadinessNotReady,
		Summary:             "Compliance check could not be completed",
		TotalChecks:         1,
		Error:               msg,
	}
}

func score(passed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(passed) / float64(total)))
}

func readiness(critical, warnings int, policy ReadinessPolicy) string {
	switch {
	case critical > 0:
		return domain.ReadyNo
	case warnings <= policy.MaxWarningsForReady:
		return domain.ReadyYes
	default:
		return domain.ReadyMinorFixes
	}
}
