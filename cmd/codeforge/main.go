// Package main is the entry point for the codeforge binary.
// It enhances JavaScript visual effects through a remote completion service
// with a deterministic local fallback.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultLogLevel = "info"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	ConfigPath  string
	LogLevel    string
	Pretty      bool
	MetricsAddr string
}

// newRootCmd creates the root command for codeforge.
func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "codeforge",
		Short: "Enhance JavaScript visual effects",
		Long: `codeforge rewrites canvas and animation code to a target enhancement level.

Requests go to the configured completion service; when it is unreachable the
code is enhanced locally instead.

Example:
  codeforge transform effect.js --level 2
  codeforge analyze effect.js --level 1`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "Path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&flags.LogLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flags.Pretty, "pretty", false, "Human-readable logs")
	rootCmd.PersistentFlags().StringVar(&flags.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")

	rootCmd.AddCommand(
		newTransformCmd(flags),
		newAnalyzeCmd(flags),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the codeforge version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codeforge %s\n", version)
		},
	}
}
