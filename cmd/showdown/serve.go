package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mhpenta/showdown/metrics"
	"github.com/mhpenta/showdown/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the comparison backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, catalog, logger, err := root.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			manager, err := cfg.BuildManager(ctx, catalog, logger)
			if err != nil {
				return err
			}
			defer manager.Close()

			srv := server.New(cfg.ServerConfig(), manager, catalog,
				server.WithLogger(logger),
				server.WithMetrics(metrics.New()),
			)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}
