package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/rfp-agent/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		port         int
		allowBrowser bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  "Start an HTTP server that exposes REST endpoints for processing RFPs.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, g)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := server.Config{
				Port:         a.cfg.Server.Port,
				RateLimit:    a.cfg.Server.RateLimit,
				RateBurst:    a.cfg.Server.RateBurst,
				AllowBrowser: allowBrowser,
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			deps := server.Deps{
				Orchestrator: a.orch,
				History:      a.history,
				Memory:       a.memory,
				Metrics:      a.metrics,
				Logger:       a.log,
			}
			if a.summarizer != nil {
				deps.Summarizer = a.summarizer
			}
			if a.db != nil {
				deps.Ping = a.db.Ping
			} else if a.redis != nil {
				deps.Ping = a.redis.Ping
			}

			srv, err := server.New(cfg, deps)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (default: server.port from config)")
	cmd.Flags().BoolVar(&allowBrowser, "allow-browser", false, "Allow requests to render tender pages in headless Chrome")
	return cmd
}
