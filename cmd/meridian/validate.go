package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"meridian-hq/meridian/pkg/bundle"
)

var validateBundleFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a compiled bundle",
	Long: `Validate reads a bundle, checks it against the wire-format schema,
and verifies referential integrity: every path, dominance rule, and
escalation entry must reference rules that exist, and the priority
lattice must cover all tiers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := bundle.ReadFile(validateBundleFile)
		if err != nil {
			return fmt.Errorf("bundle validation failed: %w", err)
		}

		if _, err := bundle.NewIndex(b); err != nil {
			return fmt.Errorf("bundle indexing failed: %w", err)
		}

		fp, err := bundle.Fingerprint(b)
		if err != nil {
			return err
		}

		fmt.Printf("Bundle %s is valid\n", validateBundleFile)
		fmt.Printf("  Schema:      %s\n", b.SchemaVersion)
		fmt.Printf("  Generated:   %s by %s\n", b.Metadata.GeneratedOn, b.Metadata.Generator)
		fmt.Printf("  Rules:       %d\n", len(b.Rules))
		fmt.Printf("  Paths:       %d\n", len(b.CompiledPaths))
		fmt.Printf("  Domains:     %s\n", strings.Join(b.Domains(), ", "))
		fmt.Printf("  Fingerprint: %s\n", fp)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateBundleFile, "bundle", "bundle.json", "bundle file to validate")
	rootCmd.AddCommand(validateCmd)
}
