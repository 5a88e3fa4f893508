package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"slider/internal/logger"
	"slider/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Load configuration, wire the retrieval store and chat backend, and serve the add-in API until interrupted.",
		RunE:  runServe,
	}
	cmd.Flags().String("listen", "", "override listen address (host:port)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	log := logger.New(cfg.Logging)
	defer func() { _ = log.Sync() }()

	backend, err := WireBackend(cfg, log)
	if err != nil {
		return err
	}

	server.Version = version
	srv, err := server.New(server.Config{
		ListenAddr:   cfg.Server.Listen,
		CORSOrigins:  cfg.Server.CORSOrigins,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
	}, server.Services{
		Store:        backend.Store,
		Orchestrator: backend.Orchestrator,
		Gatherer:     backend.Registry,
		Logger:       log.Named("http"),
	})
	if err != nil {
		return err
	}

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.Info("starting slider", zap.String("version", version), zap.String("listen", cfg.Server.Listen))
	return srv.Start(ctx)
}
