package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/git-pkgs/npmchart/internal/config"
	"github.com/git-pkgs/npmchart/internal/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the download chart API and pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.Log.Install(os.Stderr); err != nil {
				return err
			}

			cl := cfg.NewClient()
			src, err := cfg.NewSource(cl)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go src.Store().Janitor(ctx, cfg.Cache.PurgeInterval)

			srv := server.New(src,
				server.WithLogger(log.Log),
				server.WithMaxPoints(cfg.Chart.MaxPoints),
				server.WithChartSize(cfg.Chart.Width, cfg.Chart.Height),
				server.WithDefaultColor(cfg.Chart.DefaultColor),
				server.WithPopular(cfg.Server.Popular),
				server.WithBreakerState(cl.BreakerState),
				server.WithCacheStats(src.Store().Stats),
				server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
			)

			log.WithFields(log.Fields{
				"registry": cfg.Upstream.RegistryURL,
				"stats":    cfg.Upstream.StatsURL,
				"cache":    cfg.Cache.TTL.String(),
			}).Info("starting")
			return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides server.addr)")
	return cmd
}
