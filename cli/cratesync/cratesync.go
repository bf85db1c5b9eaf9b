package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/glorpus-work/cratesync/internal/cli"
	"github.com/glorpus-work/cratesync/internal/logger"
	"github.com/spf13/cobra"
)

// Exit codes: 0 on success, 1 when a pass could not start or the index phase
// failed, 2 when a pass ran to completion but some archives did not commit.
const exitPartialFailure = 2

var (
	configPath string
	cachePath  string
	jobs       int
	logLevel   string
	contact    string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()

		var partial *cli.PartialFailureError
		if errors.As(err, &partial) {
			os.Exit(exitPartialFailure)
		}
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cratesync",
		Short: "A registry mirror for cargo package archives",
		Long: `cratesync keeps a local mirror of a cargo package registry:
- new: clone the registry index into a fresh cache
- sync: download every archive the index lists
- verify: re-hash the cache and repair corrupt or missing archives`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logger.InitLogger(logLevel)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&cachePath, "path", "p", "", "path of the registry cache")
	cmd.PersistentFlags().IntVarP(&jobs, "jobs", "j", 0, "number of jobs that can run in parallel")
	cmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (error, warn, info, debug)")
	cmd.PersistentFlags().StringVarP(&contact, "contact", "c", "", "contact information sent in the User-Agent")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (flags take precedence)")

	// Set up CLI pkg variables
	cli.ConfigPath = &configPath
	cli.CachePath = &cachePath
	cli.Jobs = &jobs
	cli.LogLevel = &logLevel
	cli.Contact = &contact

	// Add subcommands
	cmd.AddCommand(
		cli.NewNewCmd(),
		cli.NewSyncCmd(),
		cli.NewVerifyCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
