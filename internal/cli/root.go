package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// BuildInfo contains build-time information
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

var buildInfo BuildInfo

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "linear-sync",
	Short: "Integrate Linear projects into the local project-management backend",
	Long: `Linear Integration - a tool for importing Linear projects.

This tool fetches a Linear team with its members, workflow states, labels,
issues and issue history, normalizes everything into the local relational
model and stores it in a single transaction. Each project integrates exactly
once; re-running against an integrated project is a no-op failure, never a
duplicate.`,
	Version: buildInfo.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(info BuildInfo) error {
	buildInfo = info
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
	return rootCmd.Execute()
}

// ExecuteServe runs the serve command directly. It backs the dedicated
// api-server binary, which skips subcommand dispatch.
func ExecuteServe(info BuildInfo) error {
	buildInfo = info
	rootCmd.SetArgs([]string{"serve"})
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("env-file", "", "Path to .env file (default: .env in working directory)")
}
