// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dashgit",
	Short: "A unified dashboard for your GitHub and GitLab reviews.",
	Long: `dashgit aggregates the open GitHub pull requests and GitLab merge
requests that involve you (as author, assignee, or reviewer) and groups
them by actionable status: returned to you, review requested, waiting
for approvals, and so on.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}
