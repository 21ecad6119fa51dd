package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"GrantChecker/internal/domain"
	"GrantChecker/internal/ports"
)

// ComplianceEngine runs the rule engine, the consultative assessor and the
// report synthesizer in sequence.
type ComplianceEngine struct {
	assessor      *ConsultativeAssessor
	policy        ReadinessPolicy
	assessTimeout time.Duration
	logger        *slog.Logger
}

var _ ports.ComplianceChecker = (*ComplianceEngine)(nil)

// NewComplianceEngine wires the assessor and readiness thresholds.
func NewComplianceEngine(assessor *ConsultativeAssessor, policy ReadinessPolicy, assessTimeout time.Duration, logger *slog.Logger) *ComplianceEngine {
	return &ComplianceEngine{
		assessor:      assessor,
		policy:        policy,
		assessTimeout: assessTimeout,
		logger:        orDiscard(logger),
	}
}

// Check accepts both stage outcomes whatever their kind. It returns an error
// only when ctx is already done on entry.
func (e *ComplianceEngine) Check(ctx context.Context, reqs domain.Outcome[domain.RequirementResult], analysis domain.Outcome[domain.ProposalAnalysis]) (domain.ComplianceReport, error) {
	if err := ctx.Err(); err != nil {
		return domain.ComplianceReport{}, fmt.Errorf("compliance check: %w", err)
	}

	rules := EvaluateRules(analysis.Value)
	e.logger.Debug("rules evaluated",
		"documents", len(rules.DocumentChecks),
		"missing", len(rules.MissingDocuments),
		"page_violations", len(rules.PageLimitChecks),
		"collaboration_issues", len(rules.CollaborationIssues))

	assessCtx, cancel := withStageTimeout(ctx, e.assessTimeout)
	opinion := e.assessor.Assess(assessCtx, reqs.Value, analysis.Value, rules)
	cancel()

	report := SynthesizeReport(rules, opinion.Value, metadataOf(analysis.Value), e.policy)
	e.logger.Info("compliance report ready",
		"score", report.OverallScore,
		"critical", len(report.CriticalErrors),
		"warnings", len(report.Warnings),
		"ready", report.ReadyToSubmit,
		"assessment", opinion.Kind)
	return report, nil
}

func metadataOf(analysis domain.ProposalAnalysis) *domain.ProposalMetadata {
	if analysis.Metadata == (domain.ProposalMetadata{}) {
		return nil
	}
	meta := analysis.Metadata
	return &meta
}
