package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matthetz/scrim/internal/httpapi"
	"github.com/matthetz/scrim/pkg/engine"
	"github.com/matthetz/scrim/pkg/item"
	"github.com/matthetz/scrim/pkg/overrides"
	"github.com/matthetz/scrim/pkg/placement"
)

// maxPayloadLine bounds a single NDJSON record.
const maxPayloadLine = 1 << 20

// replayCommand creates the replay command for offline payload streams.
func (c *CLI) replayCommand() *cobra.Command {
	var (
		configPath string
		viewW      float64
		viewH      float64
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "Replay a payload stream and print the resulting placements",
		Long: `Replay reads newline-delimited JSON payload records from a file (or stdin
when no file is given), feeds them through the ingest pipeline, runs one
repaint for the requested viewport, and prints where every group landed.

Replay never touches the persisted placement snapshot.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var in io.Reader = os.Stdin
			source := "stdin"
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open payload stream: %w", err)
				}
				defer f.Close()
				in = f
				source = args[0]
			}

			table := overrides.NewTable()
			if configPath != "" {
				if err := table.Load(configPath); err != nil {
					return err
				}
			}
			cache := placement.New(placement.NewNullBackend(), time.Hour, c.Logger)
			eng := engine.New(table, cache, c.Logger)

			prog := newProgress(c.Logger)
			spin := newSpinner(fmt.Sprintf("Replaying %s", source))
			spin.Start()

			counts := map[item.Status]int{}
			lines := 0
			scanner := bufio.NewScanner(in)
			scanner.Buffer(make([]byte, 0, 64*1024), maxPayloadLine)
			for scanner.Scan() {
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}
				lines++

				var p item.Payload
				if err := json.Unmarshal(line, &p); err != nil {
					c.Logger.Warn("skipping malformed record", "line", lines, "err", err)
					continue
				}
				counts[eng.Ingest(ctx, p).Status]++
			}
			spin.Stop()
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read payload stream: %w", err)
			}

			res := eng.Repaint(ctx, viewW, viewH)
			prog.done(fmt.Sprintf("Replayed %d payloads into %d groups", lines, len(res.Groups)))

			out := httpapi.FromResult(res, eng.Viewport(viewW, viewH))
			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			printSuccess("Replayed %d payloads from %s", lines, source)
			printDetail("stored %d, unchanged %d, removed %d, dropped %d",
				counts[item.StatusStored], counts[item.StatusUnchanged],
				counts[item.StatusRemoved], counts[item.StatusDropped])
			printInfo("Viewport %gx%g (%s, scale %.3f)", viewW, viewH, out.Viewport.Mode, out.Viewport.Scale)
			for _, g := range out.Groups {
				printGroupLine(g.Producer, g.Group,
					g.ScreenBounds.X, g.ScreenBounds.Y, g.ScreenBounds.W, g.ScreenBounds.H,
					g.Configured)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to override config (TOML)")
	cmd.Flags().Float64VarP(&viewW, "width", "W", 1920, "viewport width in pixels")
	cmd.Flags().Float64VarP(&viewH, "height", "H", 1080, "viewport height in pixels")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit placements as JSON")

	return cmd
}
