package app

import (
	"context"
	"fmt"
	"log/slog"

	"GrantChecker/internal/catalog"
	"GrantChecker/internal/config"
	"GrantChecker/internal/domain"
	"GrantChecker/internal/httpapi"
	"GrantChecker/internal/infrastructure/firecrawl"
	"GrantChecker/internal/infrastructure/llm"
	"GrantChecker/internal/infrastructure/parser"
	"GrantChecker/internal/infrastructure/reducto"
	"GrantChecker/internal/logging"
	"GrantChecker/internal/ports"
	"GrantChecker/internal/source"
	"GrantChecker/internal/usecase"
)

// Application wires configs to use cases and the HTTP boundary.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	server   *httpapi.Server
}

// New builds the application. Missing credentials only disable the stage
// that owns them.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	var web ports.WebExtractor
	if cfg.Firecrawl.APIKey != "" {
		web = firecrawl.NewClient(cfg.Firecrawl)
	} else {
		baseLogger.Warn("FIRECRAWL_API_KEY not set, requirement listings will use defaults")
	}

	var docParser ports.DocumentParser
	if cfg.Reducto.APIKey != "" {
		docParser = reducto.NewClient(cfg.Reducto, cfg.Analysis.BytesPerPage)
	} else {
		baseLogger.Warn("REDUCTO_API_KEY not set, documents will be estimated from file size")
	}

	chatClient, analysisModel, assessmentModel := newChatClient(cfg, baseLogger)

	registry := source.NewRegistry()
	registry.Register(parser.NewListingSource(web))
	registry.Register(parser.NewDocumentSource(docParser))
	requirementSource := parser.NewStrategySource(registry, baseLogger.With("component", "source"))

	extractor := usecase.NewRequirementExtractor(cat, requirementSource, cfg.Analysis.RawContentChars,
		baseLogger.With("component", "extractor"))
	analyzer := usecase.NewProposalAnalyzer(cat, docParser, chatClient, usecase.AnalyzerConfig{
		Model:        analysisModel,
		TextBudget:   cfg.Analysis.TextBudget,
		BytesPerPage: cfg.Analysis.BytesPerPage,
	}, baseLogger.With("component", "analyzer"))
	assessor := usecase.NewConsultativeAssessor(chatClient, assessmentModel, baseLogger.With("component", "assessor"))
	engine := usecase.NewComplianceEngine(assessor,
		usecase.ReadinessPolicy{MaxWarningsForReady: cfg.Readiness.MaxWarningsForReady},
		cfg.Pipeline.AssessorTimeout,
		baseLogger.With("component", "compliance"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Extractor: extractor,
		Analyzer:  analyzer,
		Checker:   engine,
		Timeouts: usecase.StageTimeouts{
			Extractor: cfg.Pipeline.ExtractorTimeout,
			Analyzer:  cfg.Pipeline.AnalyzerTimeout,
		},
		Logger: baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		server:   httpapi.NewServer(pipeline, cfg.Server, baseLogger.With("component", "http")),
	}, nil
}

// Serve runs the HTTP boundary until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	return a.server.ListenAndServe(ctx)
}

// Check performs a single pipeline execution.
func (a *Application) Check(ctx context.Context, req domain.CheckRequest) domain.CheckResult {
	return a.pipeline.Run(ctx, req)
}

func newChatClient(cfg config.Config, logger *slog.Logger) (ports.ChatClient, string, string) {
	if cfg.LLM.Provider == config.ProviderGemini {
		if cfg.Gemini.APIKey == "" {
			logger.Warn("GEMINI_API_KEY not set, AI analysis will use fallbacks")
			return nil, cfg.Gemini.AnalysisModel, cfg.Gemini.AssessmentModel
		}
		return llm.NewGeminiClient(cfg.Gemini), cfg.Gemini.AnalysisModel, cfg.Gemini.AssessmentModel
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, AI analysis will use fallbacks")
		return nil, cfg.LLM.AnalysisModel, cfg.LLM.AssessmentModel
	}
	return llm.NewChatGPTClient(cfg.LLM), cfg.LLM.AnalysisModel, cfg.LLM.AssessmentModel
}
