package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfredjeanlab/qube/internal/config"
	"github.com/alfredjeanlab/qube/internal/events"
	"github.com/alfredjeanlab/qube/internal/export"
	"github.com/alfredjeanlab/qube/internal/permindex"
	"github.com/alfredjeanlab/qube/internal/server"
	"github.com/alfredjeanlab/qube/internal/store/postgres"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the qube HTTP and gRPC servers",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create client connections.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (QUBE_NATS_URL not set)")
		}

		indexer := permindex.New(store, publisher, logger)
		if err := indexer.IndexAll(context.Background()); err != nil {
			// Not fatal: every visibility change re-indexes its project.
			logger.Error("initial permission index failed", "err", err)
		}

		projectServer := server.NewProjectServer(store, publisher, indexer, server.Options{
			DefaultOrganization: cfg.DefaultOrganization,
			SessionCacheTTL:     cfg.SessionCacheTTL,
		})
		grpcServer := server.NewGRPCServer(projectServer)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			publisher.Close()
			store.Close()
			return err
		}

		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           projectServer.NewHTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := startExport(cfg, store, logger)

		logger.Info("qube server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"default_organization", cfg.DefaultOrganization,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("export scheduler stopped")
		}

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// startExport starts the authorization snapshot scheduler when an interval
// and at least one destination are configured. It returns nil otherwise.
func startExport(cfg *config.Config, src export.Source, logger *slog.Logger) *export.Scheduler {
	if cfg.ExportInterval <= 0 {
		return nil
	}

	var dests []export.Destination
	if cfg.ExportS3Bucket != "" {
		s3Dest, err := export.NewS3Destination(context.Background(), export.S3Options{
			Bucket:   cfg.ExportS3Bucket,
			Key:      cfg.ExportS3Key,
			Region:   cfg.ExportS3Region,
			Endpoint: cfg.ExportS3Endpoint,
		})
		if err != nil {
			logger.Error("failed to create S3 export destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("export S3 destination enabled", "bucket", cfg.ExportS3Bucket, "key", cfg.ExportS3Key)
		}
	}
	if cfg.ExportFile != "" {
		dests = append(dests, export.NewFileDestination(cfg.ExportFile))
		logger.Info("export file destination enabled", "path", cfg.ExportFile)
	}
	if len(dests) == 0 {
		return nil
	}

	scheduler := export.NewScheduler(src, dests, cfg.ExportInterval, logger)
	scheduler.Start()
	logger.Info("export scheduler started", "interval", cfg.ExportInterval)
	return scheduler
}
