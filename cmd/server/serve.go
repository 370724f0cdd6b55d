package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/backoffice-approvals/internal/container"
	apihttp "github.com/garyjia/backoffice-approvals/internal/interfaces/http"
	"github.com/garyjia/backoffice-approvals/pkg/utils"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the approval API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg.ToContainerConfig(), logger)
		},
	}
}

func serve(ctx context.Context, cfg *container.Config, logger *zap.Logger) error {
	logger.Info("Starting back-office approval engine",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	ctr, err := container.NewContainer(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	if err := ctr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	defer func() {
		if err := ctr.Close(); err != nil {
			logger.Error("Container shutdown error", zap.Error(err))
		}
	}()

	if err := ctr.StartWorkers(ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}

	services := ctr.Services()
	server := apihttp.NewServer(apihttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, apihttp.Services{
		Requests:  services.Requests,
		Directory: services.Directory,
		Export:    services.Export,
	}, ctr.Metrics(), utils.NewKVLogger(logger))

	return server.Start(ctx)
}
