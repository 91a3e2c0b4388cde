package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prperemyshlev/page-manager/internal/app"
	"github.com/prperemyshlev/page-manager/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type configLoader func(cmd *cobra.Command) (*config.Config, error)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. Pending migrations are applied first unless
POSTGRES_AUTO_MIGRATE=false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}

			logger, err := app.NewLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			infra, err := app.NewInfrastructure(ctx, cfg, logger)
			if err != nil {
				logger.Error("Failed to initialize infrastructure", zap.Error(err))
				return err
			}

			application, err := app.NewApp(infra, cfg)
			if err != nil {
				_ = infra.Shutdown(ctx)
				return fmt.Errorf("failed to build application: %w", err)
			}

			return application.Run(ctx)
		},
	}
}
