package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"GrantChecker/internal/app"
	"GrantChecker/internal/config"
	"GrantChecker/internal/domain"
	"GrantChecker/internal/logging"
)

var (
	configPath     string
	verbose        bool
	requirementURL string
	requirementDoc string
)

var rootCmd = &cobra.Command{
	Use:   "grantchecker",
	Short: "Grant proposal compliance checker",
	Long: `grantchecker compares a grant proposal package against the requirements
of a funding opportunity and reports missing documents, page-limit
violations and submission readiness.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP upload API",
	RunE:  runServe,
}

var checkCmd = &cobra.Command{
	Use:   "check [proposal files...]",
	Short: "Run one compliance check and print the JSON result",
	Long: `Runs the full pipeline once against local files.

Example:
  grantchecker check --url PA-25-301 Research_Strategy.pdf Budget.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (default $GRANTCHECKER_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	checkCmd.Flags().StringVar(&requirementURL, "url", "", "opportunity number or listing URL")
	checkCmd.Flags().StringVar(&requirementDoc, "requirement-doc", "", "requirement document to parse instead of the listing")

	rootCmd.AddCommand(serveCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newApplication() (*app.Application, error) {
	cfg := config.Load(configPath)
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return app.New(cfg, logging.New(cfg.Logging.Level))
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := newApplication()
	if err != nil {
		return err
	}
	return application.Serve(ctx)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if requirementURL == "" && requirementDoc == "" {
		return fmt.Errorf("either --url or --requirement-doc is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := newApplication()
	if err != nil {
		return err
	}

	req := domain.CheckRequest{Locator: requirementURL}
	if requirementDoc != "" {
		doc, err := documentRef(requirementDoc)
		if err != nil {
			return err
		}
		req.RequirementDocument = &doc
	}
	for _, path := range args {
		doc, err := documentRef(path)
		if err != nil {
			return err
		}
		req.Proposal = append(req.Proposal, doc)
	}

	result := application.Check(ctx, req)
	if !verbose {
		result.Requirements.Value.RawContent = ""
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func documentRef(path string) (domain.DocumentRef, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.DocumentRef{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.DocumentRef{}, fmt.Errorf("%s is a directory", path)
	}
	return domain.DocumentRef{Name: filepath.Base(path), Path: path, Size: info.Size()}, nil
}
