package domain

// DocumentCheck records a document the rule engine saw as present.
type DocumentCheck struct {
	Document  string `json:"document"`
	Status    string `json:"status"`
	Pages     int    `json:"pages"`
	Compliant bool   `json:"compliant"`
	Notes     string `json:"notes,omitempty"`
}

// MissingDocument records a document absent from the package.
type MissingDocument struct {
	Document string `json:"document"`
	Severity string `json:"severity"`
	Note     string `json:"note,omitempty"`
}

// PageLimitViolation records a section longer than allowed.
type PageLimitViolation struct {
	Document string `json:"document"`
	Status   string `json:"status"`
	Actual   int    `json:"actual"`
	Limit    int    `json:"limit"`
}

// PassedCheck records a rule that passed.
type PassedCheck struct {
	Check  string `json:"check"`
	Detail string `json:"detail"`
}

// CollaborationIssue records a collaborator without a letter of support.
type CollaborationIssue struct {
	Collaborator string `json:"collaborator"`
	Institution  string `json:"institution"`
	Issue        string `json:"issue"`
	Severity     string `json:"severity"`
}

// RuleCheckResult is the deterministic rule engine output.
type RuleCheckResult struct {
	DocumentChecks      []DocumentCheck      `json:"documentChecks"`
	PageLimitChecks     []PageLimitViolation `json:"pageLimitChecks"`
	MissingDocuments    []MissingDocument    `json:"missingDocuments"`
	PassedChecks        []PassedCheck        `json:"passedChecks"`
	CollaborationIssues []CollaborationIssue `json:"collaborationIssues"`
}

// Risk levels of the consultative opinion.
const (
	RiskLow     = "low"
	RiskMedium  = "medium"
	RiskHigh    = "high"
	RiskUnknown = "unknown"
)

// Submission readiness labels of the consultative opinion.
const (
	ReadinessReady     = "ready"
	ReadinessNeedsWork = "needs_work"
	ReadinessNotReady  = "not_ready"
)

// AIAssessment is the consultative model opinion.
type AIAssessment struct {
	AdditionalIssues    []string `json:"additionalIssues"`
	Recommendations     []string `json:"recommendations"`
	RiskAssessment      string   `json:"riskAssessment"`
	SubmissionReadiness string   `json:"submissionReadiness"`
	Summary             string   `json:"summary"`
}

// Finding kinds used in reports.
const (
	FindingMissingDocument = "missing_document"
	FindingPageLimit       = "page_limit_exceeded"
	FindingMissingLetter   = "missing_letter_of_support"
	FindingSystemError     = "system_error"
	FindingDocumentPresent = "document_present"
	FindingCheckPassed     = "check_passed"
	FindingAIDetected      = "ai_detected"
)

// Severities attached to findings.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Finding is one line of a compliance report.
type Finding struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Severity  string `json:"severity,omitempty"`
	Note      string `json:"note,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Action    string `json:"action,omitempty"`
	Compliant *bool  `json:"compliant,omitempty"`
}

// Ready-to-submit labels.
const (
	ReadyYes          = "Yes"
	ReadyMinorFixes   = "Yes (with minor fixes recommended)"
	ReadyNo           = "No"
	ReadyUndetermined = "Unable to determine"
)

// ComplianceReport is the terminal artifact of a pipeline run.
type ComplianceReport struct {
	OverallScore           int               `json:"overallScore"`
	ReadyToSubmit          string            `json:"readyToSubmit"`
	ProposalMetadata       *ProposalMetadata `json:"proposalMetadata"`
	CriticalErrors         []Finding         `json:"criticalErrors"`
	Warnings               []Finding         `json:"warnings"`
	Passed                 []Finding         `json:"passed"`
	Recommendations        []string          `json:"recommendations"`
	RiskAssessment         string            `json:"riskAssessment"`
	SubmissionReadiness    string            `json:"submissionReadiness"`
	Summary                string            `json:"summary"`
	TotalChecks            int               `json:"totalChecks"`
	TotalDocumentsFound    int               `json:"totalDocumentsFound"`
	TotalDocumentsRequired int               `json:"totalDocumentsRequired"`
	Error                  string            `json:"error,omitempty"`
}

// CheckResult bundles the stage outcomes with the final report.
type CheckResult struct {
	RunID        string                     `json:"runId"`
	Requirements Outcome[RequirementResult] `json:"requirements"`
	Analysis     Outcome[ProposalAnalysis]  `json:"analysis"`
	Report       ComplianceReport           `json:"complianceReport"`
}
