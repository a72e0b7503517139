package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meridian-hq/meridian/pkg/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit chain operations",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit chain end to end",
	Long: `Verify replays the configured audit backend and recomputes every
entry hash against its predecessor. Any tampered, reordered, or missing
entry breaks the chain and is reported with its position.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		storage, err := buildAuditStorage(cfg)
		if err != nil {
			return err
		}
		defer storage.Close()

		n, err := audit.VerifyChain(cmd.Context(), storage)
		if err != nil {
			return fmt.Errorf("audit chain verification failed: %w", err)
		}

		fmt.Printf("Audit chain intact: %d entries verified (%s backend at %s)\n", n, cfg.Audit.Backend, cfg.Audit.Path)
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditVerifyCmd)
	rootCmd.AddCommand(auditCmd)
}
