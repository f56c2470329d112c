package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodel/internal/server"
	"github.com/matzehuels/nodel/pkg/cache"
	"github.com/matzehuels/nodel/pkg/config"
	"github.com/matzehuels/nodel/pkg/observability"
	"github.com/matzehuels/nodel/pkg/storage"
)

type serveOpts struct {
	addr      string
	ephemeral bool
	noCache   bool
}

// serveCommand runs the HTTP API until the process is interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagram HTTP API",
		Long: `Serve exposes open diagrams over HTTP. Diagrams are created on first use and
persisted with POST /diagrams/{name}/save to the configured storage backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.config()
			if err != nil {
				return err
			}
			if logger.GetLevel() <= log.DebugLevel {
				observability.NewLogHooks(logger).Install()
			}
			if opts.addr != "" {
				cfg.Server.Addr = opts.addr
			}
			if opts.ephemeral {
				cfg.Storage.Backend = config.StorageMemory
			}
			if opts.noCache {
				cfg.Cache.Backend = config.CacheNone
			}

			store, err := storage.Open(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			rc, err := cache.Open(ctx, cfg.Cache)
			if err != nil {
				return err
			}
			defer rc.Close()

			logger.Info("starting", "storage", cfg.Storage.Backend, "cache", cfg.Cache.Backend)
			srv := server.New(cfg, store,
				server.WithLogger(logger),
				server.WithCache(rc),
				server.WithKeyer(cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName+":")),
			)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.ephemeral, "ephemeral", false, "keep saved diagrams in memory only")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}
