// Package cli implements the scrim command-line interface.
//
// This package provides commands for running the placement engine as an HTTP
// service, replaying payload streams offline, inspecting the placement
// snapshot cache, and watching live placements in a terminal UI. The CLI is
// built using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - serve: Run the placement engine with its HTTP ingest surface
//   - replay: Replay a payload stream and print the resulting placements
//   - cache: Inspect or clear the persisted placement snapshot
//   - watch: Live terminal view of a running engine's placements
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matthetz/scrim/pkg/buildinfo"
	"github.com/matthetz/scrim/pkg/engine"
	"github.com/matthetz/scrim/pkg/overrides"
	"github.com/matthetz/scrim/pkg/placement"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "scrim"

	// defaultListenAddr is the default HTTP listen address for serve.
	defaultListenAddr = ":8472"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "scrim",
		Short:        "Scrim places overlay items on scaled viewports",
		Long:         `Scrim is the placement engine for screen overlays: it ingests item payloads from producers, groups them, and computes where each group lands once the design canvas is fitted or filled onto a physical viewport.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.replayCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Engine Factory
// =============================================================================

// newEngine builds a fully wired engine from an optional override config
// file. An empty configPath runs with defaults and the default snapshot
// backend.
func (c *CLI) newEngine(ctx context.Context, configPath string) (*engine.Engine, error) {
	table := overrides.NewTable()
	if configPath != "" {
		if err := table.Load(configPath); err != nil {
			return nil, err
		}
	}
	cfg := table.Config()

	backend, err := engine.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	debounce := time.Duration(cfg.DebounceSeconds * float64(time.Second))
	cache := placement.New(backend, debounce, c.Logger)
	if err := cache.Load(ctx); err != nil {
		c.Logger.Warn("could not restore placement snapshot", "err", err)
	}

	return engine.New(table, cache, c.Logger), nil
}
