// Package cmd provides the CLI commands for meridian.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/meridian-mem/meridian/internal/config"
	"github.com/meridian-mem/meridian/internal/engine"
	"github.com/meridian-mem/meridian/internal/obslog"
	"github.com/meridian-mem/meridian/pkg/version"
)

var (
	dataDir   string
	debugMode bool
)

// NewRootCmd creates the root command for the meridian CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "meridian",
		Short:   "Cognitive memory substrate for AI coding agents",
		Long:    `Meridian stores episodic, semantic, and consolidated memory for an agent working across sessions.`,
		Version: version.Version,
	}
	cmd.SetVersionTemplate("meridian version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", ".", "project directory holding .meridian.yaml and the data store")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to the default log path")

	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newSearchCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// openEngine loads configuration from dataDir and opens the core engine
// against it, setting up logging first.
func openEngine() (*engine.Engine, error) {
	logCfg := obslog.DefaultConfig()
	if debugMode {
		logCfg = obslog.DebugConfig()
	}
	logger, cleanup, err := obslog.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	slog.SetDefault(logger)
	_ = cleanup // released on process exit; meridian is a short-lived CLI

	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return engine.Open(cfg)
}
