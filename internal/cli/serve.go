package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matthetz/scrim/internal/httpapi"
)

// serveCommand creates the serve command running the engine as a service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen     string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the placement engine with its HTTP ingest surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := c.newEngine(ctx, configPath)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := eng.Close(); cerr != nil {
					c.Logger.Warn("engine shutdown", "err", cerr)
				}
			}()

			go func() {
				if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					c.Logger.Error("purge loop stopped", "err", err)
				}
			}()

			srv := &http.Server{
				Addr:              listen,
				Handler:           httpapi.New(eng, c.Logger).Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			printInfo("Listening on %s", styleAddr.Render(listen))
			if configPath != "" {
				printDetail("Overrides: %s", configPath)
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					c.Logger.Warn("server shutdown", "err", err)
				}
				<-errCh
				return ctx.Err()
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", defaultListenAddr, "HTTP listen address")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to override config (TOML)")

	return cmd
}
