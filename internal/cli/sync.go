package cli

import (
	"github.com/glorpus-work/cratesync/internal/logger"
	"github.com/glorpus-work/cratesync/pkg/orchestrator"
	"github.com/spf13/cobra"
)

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronise the cache with the registry index",
		Long: `Synchronise the cache: fast-forward the index working copy and download
every archive the index lists that is not already present. Archives
that are present are trusted without re-reading them.

Sync is safe to interrupt and re-run; committed archives are never
re-downloaded.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			orch, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			report, err := orch.Sync(cmd.Context(), orchestrator.Options{Concurrency: cfg.Settings.Jobs})
			if err != nil {
				return err
			}
			if !report.Ok() {
				return newPartialFailure(report)
			}

			logger.Success("cache is synchronised", logger.Fields{"committed": len(report.Committed)})
			return nil
		},
	}

	return cmd
}
