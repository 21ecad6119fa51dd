package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"GrantChecker/internal/domain"
	"GrantChecker/internal/ports"
)

// StageTimeouts bounds the two concurrent stages. Zero disables a bound.
type StageTimeouts struct {
	Extractor time.Duration
	Analyzer  time.Duration
}

// PipelineDeps wires the stages into the orchestration pipeline.
type PipelineDeps struct {
	Extractor ports.RequirementExtractor
	Analyzer  ports.ProposalAnalyzer
	Checker   ports.ComplianceChecker
	Timeouts  StageTimeouts
	Logger    *slog.Logger
}

// Pipeline implements the compliance-check workflow.
type Pipeline struct {
	extractor ports.RequirementExtractor
	analyzer  ports.ProposalAnalyzer
	checker   ports.ComplianceChecker
	timeouts  StageTimeouts
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		extractor: deps.Extractor,
		analyzer:  deps.Analyzer,
		checker:   deps.Checker,
		timeouts:  deps.Timeouts,
		logger:    orDiscard(deps.Logger),
	}
}

// Run extracts requirements and analyzes the proposal concurrently, then
// builds the compliance report. It never returns an error: faults in the
// compliance stage yield the system-error report.
func (p *Pipeline) Run(ctx context.Context, req domain.CheckRequest) domain.CheckResult {
	runID := uuid.Must(uuid.NewV7()).String()
	log := p.logger.With("run_id", runID)
	started := time.Now()
	log.Info("compliance check started",
		"locator", req.Locator,
		"requirement_document", docName(req.RequirementDocument),
		"documents", len(req.Proposal))

	var (
		reqs     domain.Outcome[domain.RequirementResult]
		analysis domain.Outcome[domain.ProposalAnalysis]
		g        errgroup.Group
	)
	g.Go(func() error {
		reqs = p.extract(ctx, req, log)
		return nil
	})
	g.Go(func() error {
		analysis = p.analyze(ctx, req.Proposal, log)
		return nil
	})
	_ = g.Wait()

	log.Info("stages joined", "extractor", reqs.Kind, "analyzer", analysis.Kind)

	report, err := p.check(ctx, reqs, analysis)
	if err != nil {
		log.Error("compliance stage failed", "error", err)
		report = SystemErrorReport(err)
	}

	log.Info("compliance check finished",
		"score", report.OverallScore,
		"ready", report.ReadyToSubmit,
		"elapsed", time.Since(started))

	return domain.CheckResult{
		RunID:        runID,
		Requirements: reqs,
		Analysis:     analysis,
		Report:       report,
	}
}

func (p *Pipeline) extract(ctx context.Context, req domain.CheckRequest, log *slog.Logger) (out domain.Outcome[domain.RequirementResult]) {
	if p.extractor == nil {
		return domain.Failed[domain.RequirementResult](fmt.Errorf("requirement extractor is not configured"))
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("requirement extraction panicked", "panic", r)
			out = domain.Failed[domain.RequirementResult](fmt.Errorf("requirement extraction panicked: %v", r))
		}
	}()

	stageCtx, cancel := withStageTimeout(ctx, p.timeouts.Extractor)
	defer cancel()
	return p.extractor.Extract(stageCtx, req.Locator, req.RequirementDocument)
}

func (p *Pipeline) analyze(ctx context.Context, docs []domain.DocumentRef, log *slog.Logger) (out domain.Outcome[domain.ProposalAnalysis]) {
	if p.analyzer == nil {
		return domain.Failed[domain.ProposalAnalysis](fmt.Errorf("proposal analyzer is not configured"))
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("proposal analysis panicked", "panic", r)
			out = domain.Failed[domain.ProposalAnalysis](fmt.Errorf("proposal analysis panicked: %v", r))
		}
	}()

	stageCtx, cancel := withStageTimeout(ctx, p.timeouts.Analyzer)
	defer cancel()
	return p.analyzer.Analyze(stageCtx, docs)
}

func (p *Pipeline) check(ctx context.Context, reqs domain.Outcome[domain.RequirementResult], analysis domain.Outcome[domain.ProposalAnalysis]) (report domain.ComplianceReport, err error) {
	if p.checker == nil {
		return domain.ComplianceReport{}, fmt.Errorf("compliance checker is not configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compliance engine panicked: %v", r)
		}
	}()
	return p.checker.Check(ctx, reqs, analysis)
}
