package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/geodetic-io/cartograph/internal/server"
	"github.com/geodetic-io/cartograph/pkg/mapspec"
)

// newServeCmd creates the "serve" command: the map preview server.
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <definition.toml>",
		Short: "Serve a map definition over HTTP with render caching",
		Long: `Serve starts the preview server for a map definition. The map is
rendered on demand at GET /map.svg (with optional ?w= and ?h= overrides),
GeoJSON layers answer bbox queries at GET /query, and Prometheus metrics
are exposed at GET /metrics.

The cache backend is configured through the environment:
CARTOGRAPH_CACHE (null, file, redis), CARTOGRAPH_CACHE_DIR,
CARTOGRAPH_CACHE_TTL, CARTOGRAPH_REDIS_ADDR.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			spec, err := mapspec.Load(args[0])
			if err != nil {
				return err
			}
			cfg, err := server.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.Addr = addr
			}

			c, err := cfg.OpenCache(ctx)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer c.Close()

			srv, err := server.New(spec, baseDirOf(args[0]), c, cfg.CacheTTL, logger)
			if err != nil {
				return err
			}

			httpSrv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           srv.Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpSrv.Shutdown(shutdownCtx)
			}()

			printInfo("Serving %s on %s", nameOf(spec), cfg.Addr)
			logger.Info("server starting", "addr", cfg.Addr, "cache", cfg.CacheBackend)
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides CARTOGRAPH_ADDR)")

	return cmd
}
