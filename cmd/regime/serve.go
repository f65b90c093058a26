package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoPolymarket/polymarket-regime/internal/api"
	"github.com/GoPolymarket/polymarket-regime/internal/logging"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the analysis API:

  GET  /api/health   liveness
  GET  /api/events   event catalog
  GET  /api/status   run counters
  POST /api/analyze  {"events": [...], "companies": [...]}
  GET  /metrics      Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides api.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newDeps(ctx)
	if err != nil {
		return err
	}
	addr := rt.cfg.API.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := api.NewServer(addr, rt.app, rt.registry, logging.Component(rt.log, "api"))
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	rt.log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
