package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meridian-hq/meridian/pkg/bundle"
	"meridian-hq/meridian/pkg/compiler"
	"meridian-hq/meridian/pkg/compiler/conflict"
	"meridian-hq/meridian/pkg/config"
)

var (
	compileRulesFile string
	compileOutFile   string
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a rule set into a decision bundle",
	Long: `Compile parses and validates a JSON rule set, builds the per-domain
decision graphs, proves pairwise conflicts with concrete witnesses,
resolves precedence, and writes the sealed bundle. Unresolvable
conflicts abort the compile and are reported with their witnesses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		c := compiler.New(compilerConfig(cfg))
		b, err := c.CompileFile(cmd.Context(), compileRulesFile)
		if err != nil {
			return fmt.Errorf("compile failed: %w", err)
		}

		if err := bundle.WriteFile(b, compileOutFile); err != nil {
			return fmt.Errorf("failed to write bundle: %w", err)
		}

		fp, err := bundle.Fingerprint(b)
		if err != nil {
			return err
		}

		fmt.Printf("Compiled %s -> %s\n", compileRulesFile, compileOutFile)
		fmt.Printf("  Rules:       %d\n", len(b.Rules))
		fmt.Printf("  Constraints: %d\n", len(b.Constraints))
		fmt.Printf("  Paths:       %d\n", len(b.CompiledPaths))
		fmt.Printf("  Domains:     %d\n", len(b.Domains()))
		fmt.Printf("  Dominance:   %d resolved, %d escalations\n", len(b.DominanceRules), len(b.Escalations))
		fmt.Printf("  Fingerprint: %s\n", fp)
		return nil
	},
}

// compilerConfig maps the file configuration onto the compiler.
func compilerConfig(cfg *config.Config) *compiler.Config {
	return &compiler.Config{
		Conflict: &conflict.Config{
			PairTimeout: cfg.Compiler.ConflictPairTimeout,
			Workers:     cfg.Compiler.ConflictWorkers,
		},
	}
}

func init() {
	compileCmd.Flags().StringVar(&compileRulesFile, "rules", "policies.json", "rule set file to compile")
	compileCmd.Flags().StringVar(&compileOutFile, "out", "bundle.json", "output bundle path")
	rootCmd.AddCommand(compileCmd)
}
