package main

import (
	"github.com/spf13/cobra"

	"github.com/quarkus-qe/quarkus-utilities/internal/version"
)

var (
	configFile string
	verbosity  int
	quiet      bool
	logFormat  string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "disabled-tests-inspector",
	Short: "Find disabled tests and check their tracking issues",
	Long: `disabled-tests-inspector scans the Java test sources of a repository for
@Disabled* and @Enabled* annotations and reports, per branch, the affected
test, the reason given, the linked issue and whether that issue is closed.

Configuration is read from .disabled-tests/config.json (or --config) and can be
overridden with DTI_* environment variables, e.g. DTI_REPOSITORY_OWNER.
GITHUB_TOKEN and JIRA_TOKEN are picked up for issue lookups.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("disabled-tests-inspector version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default .disabled-tests/config.json)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logs")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write debug logs as JSON to this file")
}
