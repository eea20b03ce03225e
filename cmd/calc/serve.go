package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/calc/internal/logging"
	"github.com/zephyrtronium/calc/internal/server"
)

// shutdownTimeout bounds how long serve waits for active requests on exit.
const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the calculator HTTP server",
		Long:  "Start an HTTP server that evaluates expressions posted to /calculate.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			log := logging.New(cfg.Logging, cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			srv := server.New(server.Options{
				Addr:         cfg.Server.Addr,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}, log)
			errs := make(chan error, 1)
			go func() { errs <- srv.Start() }()
			select {
			case err := <-errs:
				return err
			case <-ctx.Done():
			}
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(sctx); err != nil {
				return err
			}
			return <-errs
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
