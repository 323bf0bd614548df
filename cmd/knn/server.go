package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/knn/internal/dataset"
	"github.com/hyperjump/knn/internal/fileid"
	"github.com/hyperjump/knn/internal/server"
	"github.com/hyperjump/knn/internal/service"
	"github.com/hyperjump/knn/internal/watcher"
)

func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API and the ingest watcher",
		Args:  cobra.NoArgs,
		RunE:  runServer,
	}
	cmd.Flags().String("host", "", "listen host (overrides config)")
	cmd.Flags().Int("port", 0, "listen port (overrides config)")
	return cmd
}

func runServer(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Sync()
	logger := env.logger
	cfg := env.cfg

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	ctx := cmd.Context()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	var watchOpts []watcher.Option
	if env.debug {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	ingestSvc := watcher.New(
		cfg.Ingest.Directories,
		cfg.Ingest.Extensions,
		ingestFile(components.Engine, logger),
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()
	if err := ingestSvc.Start(watchCtx); err != nil {
		return err
	}
	defer ingestSvc.Stop()
	ingestSvc.SyncExisting()

	srv := server.NewServer(components.Engine, cfg, logger, ingestSvc, env.configPath)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case <-sigCtx.Done():
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
		return err
	}

	logger.Info("Shutting down...")
	watchCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// ingestFile returns the watcher callback that imports a dataset file.
func ingestFile(engine *service.Engine, logger *zap.Logger) func(path string) {
	return func(path string) {
		items, err := dataset.ReadFile(path)
		if err != nil {
			logger.Warn("ingest read failed", zap.String("path", path), zap.Error(err))
			return
		}
		fileid.AssignItemIDs(path, items)
		added, err := engine.Import(context.Background(), items)
		if err != nil {
			logger.Warn("ingest import failed", zap.String("path", path), zap.Int("added", added), zap.Error(err))
			return
		}
		logger.Info("dataset ingested", zap.String("path", path), zap.Int("items", len(items)), zap.Int("added", added))
	}
}
