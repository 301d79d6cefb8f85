package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"revisehub/internal/assistant"
	"revisehub/internal/config"
	"revisehub/internal/dashboard"
	"revisehub/internal/explorer"
	"revisehub/internal/github"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// newRootCmd builds the revisehub command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "revisehub",
		Short: "Inspect GitHub repositories: metrics, pull requests and AI code review.",
		Long: `revisehub reads a public GitHub repository and reports contributor activity,
pull request velocity and code churn over the last four weeks. It can also list pull
requests and ask an AI assistant to review a pull request diff.

Credentials are read from GITHUB_TOKEN and GEMINI_API_KEY, or from a .env file.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	root.PersistentFlags().Duration("timeout", 0, "Overall timeout for a command (defaults to DASHBOARD_TIMEOUT)")

	root.AddCommand(newDashboardCmd(), newPullsCmd(), newReviewCmd())
	return root
}

// env carries the components a command needs.
type env struct {
	cfg        *config.Config
	logger     *slog.Logger
	aggregator *dashboard.Aggregator
	explorer   *explorer.Explorer
}

// setup loads configuration and builds the GitHub-backed components. The returned
// context carries the command timeout.
func setup(cmd *cobra.Command) (*env, context.Context, context.CancelFunc, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	client, err := github.NewClient(cfg.GithubToken, cfg.GithubAPIURL, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		timeout = cfg.DashboardTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)

	return &env{
		cfg:    cfg,
		logger: logger,
		aggregator: dashboard.NewAggregator(client, logger,
			dashboard.WithLimits(cfg.ContributorLimit, cfg.CommitLimit, cfg.PullLimit),
			dashboard.WithDetailConcurrency(cfg.CommitDetailConcurrency),
		),
		explorer: explorer.NewExplorer(client, logger, cfg.PullLimit),
	}, ctx, cancel, nil
}

// assistant builds the Gemini-backed assistant, failing when no key is configured.
func (e *env) assistant(ctx context.Context) (*assistant.Assistant, error) {
	if !e.cfg.AssistantEnabled() {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set, the AI assistant is unavailable")
	}
	gemini, err := assistant.NewGemini(ctx, e.cfg.GeminiAPIKey, e.cfg.GeminiModel, e.cfg.GeminiAPIURL)
	if err != nil {
		return nil, err
	}
	return assistant.New(gemini, e.logger), nil
}

func validateOutput(output string) error {
	switch output {
	case outputTable, outputJSON:
		return nil
	}
	return fmt.Errorf("invalid --output %q, must be %q or %q", output, outputTable, outputJSON)
}
