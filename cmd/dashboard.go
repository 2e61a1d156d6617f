package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dashgit/dashgit/internal/config"
	"github.com/dashgit/dashgit/internal/gateway"
	"github.com/dashgit/dashgit/internal/usecase"
)

// dashboardOutput is the presentation contract: the seven classified
// sections plus a summary and any platform-tagged error messages.
type dashboardOutput struct {
	Sections []usecase.Section `json:"sections"`
	Summary  usecase.Summary   `json:"summary"`
	Errors   []string          `json:"errors,omitempty"`
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Fetches and classifies your open pull and merge requests",
	Long: `Fetches open pull requests from GitHub and merge requests from GitLab
concurrently, merges them into one collection sorted by last update, and
classifies each item into one of seven actionable status buckets. The
result is printed as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := zap.NewNop() // Default: discard all logs.
		if verbose {
			logger = zap.Must(zap.NewDevelopment()) // If verbose, log to standard error.
		}
		defer logger.Sync()

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
			cfg.Timeout = timeout
		}

		// A platform without credentials is skipped, not an error.
		var fetchers []gateway.Fetcher
		if cfg.GithubConfigured() {
			githubGateway, err := gateway.NewGitHubGateway(cfg.GithubToken, cfg.GithubUsername, logger)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
				os.Exit(1)
			}
			fetchers = append(fetchers, githubGateway)
		}
		if cfg.GitlabConfigured() {
			fetchers = append(fetchers, gateway.NewGitLabGateway(cfg.GitlabHost, cfg.GitlabToken, cfg.GitlabUsername, logger))
		}
		if len(fetchers) == 0 {
			fmt.Fprintln(os.Stderr, "No platform is configured. Set DASHGIT_GITHUB_TOKEN and/or DASHGIT_GITLAB_TOKEN to get started.")
			os.Exit(1)
		}

		aggregator := usecase.NewAggregator(fetchers, cfg.Timeout, logger)
		result, err := aggregator.Aggregate(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to aggregate pull requests: %v\n", err)
			os.Exit(1)
		}

		sections := usecase.Classify(result.PullRequests)
		output := dashboardOutput{
			Sections: sections,
			Summary:  usecase.Summarize(sections, time.Now()),
			Errors:   result.Errors,
		}

		jsonData, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal results to JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))

		// Only fail the command when nothing at all could be fetched.
		if len(result.PullRequests) == 0 && len(result.Errors) > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().String("config", "", "Path to a YAML config file (optional, environment wins)")
	dashboardCmd.Flags().Duration("timeout", 0, "Fetch cycle timeout (default 30s)")
}
