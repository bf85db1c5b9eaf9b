package cli

import (
	"fmt"

	"github.com/glorpus-work/cratesync/internal/logger"
	"github.com/glorpus-work/cratesync/pkg/cache"
	"github.com/glorpus-work/cratesync/pkg/config"
	"github.com/glorpus-work/cratesync/pkg/download"
	"github.com/glorpus-work/cratesync/pkg/index"
	"github.com/glorpus-work/cratesync/pkg/orchestrator"
	"github.com/glorpus-work/cratesync/pkg/reconcile"
)

// These variables will be set by the main package.
var (
	ConfigPath *string
	CachePath  *string
	Jobs       *int
	LogLevel   *string
	Contact    *string
)

// loadConfig loads the configuration and overlays the CLI flags on top.
func loadConfig() (*config.Config, error) {
	configPath := ""
	if ConfigPath != nil {
		configPath = *ConfigPath
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
	} else {
		cfg = config.DefaultConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if CachePath != nil && *CachePath != "" {
		cfg.Settings.CacheDir = *CachePath
	}
	if Jobs != nil && *Jobs > 0 {
		cfg.Settings.Jobs = *Jobs
	}
	if LogLevel != nil && *LogLevel != "" {
		cfg.Settings.LogLevel = *LogLevel
	}
	if Contact != nil && *Contact != "" {
		cfg.Settings.Contact = *Contact
	}

	if cfg.Settings.CacheDir == "" {
		return nil, fmt.Errorf("cache path is required (use --path)")
	}

	return cfg, nil
}

// buildOrchestrator opens the cache and the index working copy and wires the
// reconciler and download manager together for one pass.
func buildOrchestrator(cfg *config.Config) (*orchestrator.Orchestrator, error) {
	store, err := cache.New(cfg.Settings.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// Sweep temp files a crashed earlier run may have left behind.
	if removed, err := store.RemoveOrphans(); err != nil {
		logger.Warn("failed to sweep stale temp files", logger.Fields{"error": err.Error()})
	} else if removed > 0 {
		logger.Debug("swept stale temp files", logger.Fields{"count": removed})
	}

	idx, err := index.Open(store.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	dl := download.NewManager(store, cfg.Settings.HTTPTimeout, cfg.UserAgent(Version))

	return &orchestrator.Orchestrator{
		Index:   idx,
		Planner: reconcile.New(store, cfg.Settings.Jobs),
		DL:      dl,
	}, nil
}
