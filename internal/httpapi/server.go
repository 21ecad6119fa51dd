// Package httpapi exposes the compliance pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"GrantChecker/internal/config"
	"GrantChecker/internal/domain"
)

const completedMessage = "Compliance check completed"

// Runner executes one compliance check. usecase.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req domain.CheckRequest) domain.CheckResult
}

// Server serves the upload and liveness endpoints.
type Server struct {
	runner Runner
	cfg    config.ServerConfig
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewServer registers the routes.
func NewServer(runner Runner, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{runner: runner, cfg: cfg, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/upload", s.handleUpload)
	return s
}

// Handler returns the root handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return withCORS(s.mux)
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Server is running"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.bodyLimit())

	up, err := s.receive(r)
	if err != nil {
		status := http.StatusBadRequest
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			status = reqErr.status
		}
		s.logger.Warn("rejected upload", "error", err, "status", status)
		writeJSON(w, status, envelope{Success: false, Message: "Invalid upload request", Error: err.Error()})
		return
	}
	defer up.cleanup(s.logger)

	s.logger.Info("compliance check requested",
		"locator", up.locator,
		"requirement_document", up.requirementName(),
		"proposal_files", len(up.proposal))

	result := s.runner.Run(r.Context(), up.checkRequest())
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: completedMessage,
		Data:    buildCheckData(up, result),
	})
}

func (s *Server) bodyLimit() int64 {
	return int64(s.cfg.MaxFiles+1)*s.cfg.MaxFileBytes + 1<<20
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type fileInfo struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
}

type extractorResult struct {
	Success           bool   `json:"success"`
	RequirementsFound int    `json:"requirementsFound"`
	Kind              string `json:"kind"`
}

type analyzerResult struct {
	Success       bool   `json:"success"`
	SectionsFound int    `json:"sectionsFound"`
	TotalPages    int    `json:"totalPages"`
	Kind          string `json:"kind"`
}

type agentResults struct {
	Extractor extractorResult `json:"extractor"`
	Analyzer  analyzerResult  `json:"analyzer"`
}

type checkData struct {
	RunID               string                  `json:"runId"`
	RequirementDocument *fileInfo               `json:"requirementDocument"`
	RequirementURL      *string                 `json:"requirementUrl"`
	RequirementNumber   *string                 `json:"requirementNumber"`
	ProposalPackages    []fileInfo              `json:"proposalPackages"`
	AgentResults        agentResults            `json:"agentResults"`
	ComplianceReport    domain.ComplianceReport `json:"complianceReport"`
}

func buildCheckData(up *upload, result domain.CheckResult) checkData {
	data := checkData{
		RunID:            result.RunID,
		ProposalPackages: make([]fileInfo, 0, len(up.proposal)),
		AgentResults: agentResults{
			Extractor: extractorResult{
				Success:           result.Requirements.Succeeded(),
				RequirementsFound: len(result.Requirements.Value.Requirements.RequiredDocuments),
				Kind:              string(result.Requirements.Kind),
			},
			Analyzer: analyzerResult{
				Success:       result.Analysis.Succeeded(),
				SectionsFound: len(result.Analysis.Value.Sections),
				TotalPages:    result.Analysis.Value.TotalPages,
				Kind:          string(result.Analysis.Kind),
			},
		},
		ComplianceReport: result.Report,
	}
	if up.requirement != nil {
		info := up.requirement.info()
		data.RequirementDocument = &info
	}
	if up.locator != "" {
		locator := up.locator
		data.RequirementURL = &locator
	}
	if number := result.Requirements.Value.Number; number != "" {
		data.RequirementNumber = &number
	}
	for _, f := range up.proposal {
		data.ProposalPackages = append(data.ProposalPackages, f.info())
	}
	return data
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
			h.Set("Access-Control-Allow-Headers", r.Header.Get("Access-Control-Request-Headers"))
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
