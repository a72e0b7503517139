package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var enforceCmd = &cobra.Command{
	Use:   "enforce [query]",
	Short: "Run one query through the enforcement pipeline",
	Long: `Enforce runs a single query through the full pipeline — classify,
retrieve, scaffold, generate, verify, route — and prints the terminal
decision as JSON. The decision lands in the audit chain exactly as it
would under the server.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		enforcer, _, writer, err := buildEnforcer(cfg, nil)
		if err != nil {
			return err
		}
		defer writer.Close()

		decision, err := enforcer.Enforce(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("enforcement failed: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(decision)
	},
}

func init() {
	rootCmd.AddCommand(enforceCmd)
}
