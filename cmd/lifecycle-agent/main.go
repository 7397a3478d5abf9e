// The lifecycle-agent runs unattended on a freshly provisioned UDF lab
// instance. It resolves identity and credentials from the local metadata
// service, then either sends lifecycle heartbeats to the lab's SQS queue or
// registers the instance's CE site, depending on the configured profile.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orijen-udf/lifecycle-agent/internal/config"
	"github.com/orijen-udf/lifecycle-agent/internal/services"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "lifecycle-agent",
		Short:        "UDF instance lifecycle notification agent",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to an optional config file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// A termination signal cancels the pipeline; the runner profile's
	// teardown notification fires on the way out.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agent := services.New(cfg)
	if err := agent.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			zap.S().Infow("shutting down on signal")
			return nil
		}
		zap.S().Errorw("agent failed", "error", err)
		return err
	}
	return nil
}

func buildLogger(cfg *config.Configuration) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
