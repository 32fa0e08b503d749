package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/matthetz/scrim/pkg/engine"
	"github.com/matthetz/scrim/pkg/overrides"
	"github.com/matthetz/scrim/pkg/placement"
)

// cacheCommand creates the placement snapshot management command.
func (c *CLI) cacheCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the persisted placement snapshot",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to override config (TOML)")

	cmd.AddCommand(c.cacheShowCommand(&configPath))
	cmd.AddCommand(c.cacheClearCommand(&configPath))
	cmd.AddCommand(c.cachePathCommand(&configPath))

	return cmd
}

// openSnapshotBackend resolves the snapshot backend for the given config file.
func (c *CLI) openSnapshotBackend(cmd *cobra.Command, configPath string) (placement.Backend, overrides.Config, error) {
	table := overrides.NewTable()
	if configPath != "" {
		if err := table.Load(configPath); err != nil {
			return nil, overrides.Config{}, err
		}
	}
	cfg := table.Config()
	backend, err := engine.OpenBackend(cmd.Context(), cfg)
	return backend, cfg, err
}

// cacheShowCommand creates the "cache show" subcommand.
func (c *CLI) cacheShowCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the persisted placement snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, _, err := c.openSnapshotBackend(cmd, *configPath)
			if err != nil {
				return err
			}
			defer backend.Close()

			doc, err := backend.Load(cmd.Context())
			if err != nil {
				return err
			}
			if doc == nil || doc.Len() == 0 {
				printInfo("Snapshot is empty")
				return nil
			}

			printInfo("%d placement entries", doc.Len())
			producers := make([]string, 0, len(doc.Groups))
			for producer := range doc.Groups {
				producers = append(producers, producer)
			}
			sort.Strings(producers)

			for _, producer := range producers {
				suffixes := make([]string, 0, len(doc.Groups[producer]))
				for suffix := range doc.Groups[producer] {
					suffixes = append(suffixes, suffix)
				}
				sort.Strings(suffixes)

				for _, suffix := range suffixes {
					e := doc.Groups[producer][suffix]
					b := e.Base
					if e.Transformed != nil {
						b = *e.Transformed
					}
					printGroupLine(producer, suffix, b.X, b.Y, b.W, b.H, e.Transformed != nil)
					printDetail("updated %s, nonce %s",
						e.LastUpdated.Format(time.RFC3339), e.EditNonce)
				}
			}
			return nil
		},
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted placement snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, _, err := c.openSnapshotBackend(cmd, *configPath)
			if err != nil {
				return err
			}
			defer backend.Close()

			if err := backend.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("clear snapshot: %w", err)
			}
			printSuccess("Cleared placement snapshot")
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the placement snapshot is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, cfg, err := c.openSnapshotBackend(cmd, *configPath)
			if err != nil {
				return err
			}
			defer backend.Close()

			if fb, ok := backend.(*placement.FileBackend); ok {
				fmt.Println(fb.Path())
				return nil
			}
			printInfo("Snapshot backend %q has no local path", cfg.SnapshotBackend)
			return nil
		},
	}
}
