package cli

import (
	"fmt"

	"github.com/glorpus-work/cratesync/internal/logger"
	"github.com/glorpus-work/cratesync/pkg/orchestrator"
	"github.com/spf13/cobra"
)

// PartialFailureError marks a pass that completed but left some archives
// uncommitted. Main maps it to a distinct exit code.
type PartialFailureError struct {
	Failed int
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d archives could not be committed", e.Failed)
}

func newPartialFailure(report *orchestrator.Report) error {
	return &PartialFailureError{Failed: len(report.Failed)}
}

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the integrity of every cached archive",
		Long: `Verify the cache: recompute the checksum of every archive the index
lists and re-download anything missing, truncated, or mismatched.
Files the index does not list are left untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			orch, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			report, err := orch.Verify(cmd.Context(), orchestrator.Options{Concurrency: cfg.Settings.Jobs})
			if err != nil {
				return err
			}
			if !report.Ok() {
				return newPartialFailure(report)
			}

			logger.Success("verified cache", logger.Fields{"repaired": len(report.Committed)})
			return nil
		},
	}

	return cmd
}
