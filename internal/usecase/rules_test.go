package usecase

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrantChecker/internal/domain"
)

func decodeAnalysis(t *testing.T, raw string) domain.ProposalAnalysis {
	t.Helper()
	var analysis domain.ProposalAnalysis
	require.NoError(t, json.Unmarshal([]byte(raw), &analysis))
	return analysis
}

func TestEvaluateRulesSpecificAimsPresent(t *testing.T) {
	t.Parallel()

	analysis := decodeAnalysis(t, `{
		"document_inventory": {
			"found_documents": [{"name": "Specific Aims", "pages": 1, "compliant": true}],
			"missing_documents": []
		}
	}`)

	result := EvaluateRules(analysis)

	assert.Empty(t, result.MissingDocuments)
	require.Len(t, result.PassedChecks, 1)
	assert.Equal(t, domain.PassedCheck{Check: "Specific Aims", Detail: "1 pages"}, result.PassedChecks[0])
	require.Len(t, result.DocumentChecks, 1)
	assert.Equal(t, "found", result.DocumentChecks[0].Status)
}

func TestEvaluateRulesFullPackage(t *testing.T) {
	t.Parallel()

	analysis := decodeAnalysis(t, `{
		"document_inventory": {
			"found_documents": [
				{"name": "Research Strategy", "pages": "15", "compliant": "false"},
				{"name": "Budget", "pages": null, "compliant": true}
			],
			"missing_documents": [
				{"name": "Biosketch", "severity": "critical", "note": "not in package"},
				{"name": "Letters of Support", "severity": "warning"}
			]
		},
		"page_limit_compliance": {
			"specific_aims": {"found": 1, "allowed": 1, "status": "compliant"},
			"research_strategy": {"found": 15, "allowed": 12, "status": "exceeded"},
			"biosketches": {"found": 0, "allowed": 5, "status": "unknown"}
		},
		"collaboration_detection": {
			"collaborators_mentioned": [
				{"name": "Dr. Lee", "institution": "State University", "letter_of_support": "NOT FOUND"},
				{"name": "Dr. Kim", "institution": "City College", "letter_of_support": "FOUND"}
			]
		},
		"formatting_analysis": {"appears_compliant": true}
	}`)

	result := EvaluateRules(analysis)

	assert.Len(t, result.DocumentChecks, 2)
	assert.Len(t, result.MissingDocuments, 2)
	assert.Equal(t, len(analysis.Inventory.FoundDocuments)+len(analysis.Inventory.MissingDocuments),
		len(result.DocumentChecks)+len(result.MissingDocuments))

	assert.Equal(t, []domain.PageLimitViolation{
		{Document: "research_strategy", Status: "exceeded", Actual: 15, Limit: 12},
	}, result.PageLimitChecks)

	assert.Equal(t, []domain.PassedCheck{
		{Check: "Budget", Detail: "Present"},
		{Check: "specific_aims page limit", Detail: "1/1 pages"},
		{Check: "Formatting", Detail: "Appears compliant"},
	}, result.PassedChecks)

	require.Len(t, result.CollaborationIssues, 1)
	assert.Equal(t, domain.CollaborationIssue{
		Collaborator: "Dr. Lee",
		Institution:  "State University",
		Issue:        "Missing Letter of Support",
		Severity:     domain.SeverityCritical,
	}, result.CollaborationIssues[0])
}

func TestEvaluateRulesIsPure(t *testing.T) {
	t.Parallel()

	analysis := decodeAnalysis(t, `{
		"document_inventory": {"found_documents": [{"name": "Abstract", "pages": 1, "compliant": true}]},
		"page_limit_compliance": {
			"b_section": {"found": 3, "allowed": 2, "status": "exceeded"},
			"a_section": {"found": 1, "allowed": 2, "status": "compliant"}
		}
	}`)

	first := EvaluateRules(analysis)
	for range 5 {
		if diff := cmp.Diff(first, EvaluateRules(analysis)); diff != "" {
			t.Fatalf("EvaluateRules is not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestEvaluateRulesEmptyAnalysis(t *testing.T) {
	t.Parallel()

	result := EvaluateRules(domain.ProposalAnalysis{})
	assert.Empty(t, result.DocumentChecks)
	assert.Empty(t, result.MissingDocuments)
	assert.Empty(t, result.PageLimitChecks)
	assert.Empty(t, result.PassedChecks)
	assert.Empty(t, result.CollaborationIssues)
}
