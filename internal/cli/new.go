package cli

import (
	"fmt"

	"github.com/glorpus-work/cratesync/internal/logger"
	"github.com/glorpus-work/cratesync/pkg/cache"
	"github.com/glorpus-work/cratesync/pkg/index"
	"github.com/spf13/cobra"
)

// NewNewCmd creates the new command.
func NewNewCmd() *cobra.Command {
	var indexURL string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new mirror cache",
		Long: `Create a new mirror cache at the given path by cloning the registry
index. The archive tree starts empty; run sync to populate it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := cache.New(cfg.Settings.CacheDir)
			if err != nil {
				return fmt.Errorf("failed to create cache: %w", err)
			}

			if _, err := index.Clone(cmd.Context(), indexURL, store.IndexPath()); err != nil {
				return fmt.Errorf("failed to clone index: %w", err)
			}

			logger.Success("created cache", logger.Fields{"path": store.Path(), "index": indexURL})
			return nil
		},
	}

	cmd.Flags().StringVarP(&indexURL, "url", "u", "", "URL of the registry index")
	_ = cmd.MarkFlagRequired("url")

	cmd.Example = `  # Mirror the crates.io index
  cratesync --path /srv/mirror new --url https://github.com/rust-lang/crates.io-index`

	return cmd
}
