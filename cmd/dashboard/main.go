package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tickdash/config"
	"tickdash/internal/app"
	"tickdash/logger"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// api keys from Parameter Store in prod
	if cfg.Log.Environment == "prod" {
		ssmClient, err := config.NewSSMClient(ctx, cfg.Secrets.Region)
		if err != nil {
			log.Fatal("failed to create ssm client", zap.Error(err))
		}
		if err := cfg.ResolveSecrets(ctx, ssmClient); err != nil {
			log.Fatal("failed to resolve secrets", zap.Error(err))
		}
	}

	// run dashboard
	if err := app.Run(ctx, cfg, log, os.Stdout); err != nil {
		log.Fatal("dashboard failed", zap.Error(err))
	}
	log.Info("shutdown complete")
}
