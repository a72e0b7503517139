package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Meridian - policy compilation and enforcement runtime",
	Long: `Meridian turns natural-language policy rules into compiled decision
bundles and enforces them against generated responses.

The compiler encodes rules into decision graphs, proves pairwise
conflicts with concrete witnesses, and resolves precedence before
sealing a bundle. The runtime classifies each query, builds a policy
scaffold for generation, runs concurrent post-generation checks, and
routes every response through a scored pass/correct/regenerate/escalate
decision, with a hash-chained audit entry per attempt.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration and installs the process logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	if _, err := logging.Setup(logging.Config{
		Level:     level,
		Format:    cfg.Logging.Format,
		RedactPII: true,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}
