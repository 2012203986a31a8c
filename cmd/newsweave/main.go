package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"newsweave/internal/app"
	"newsweave/internal/config"
	"newsweave/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single ingest+digest pass and exit")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.Logging)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := application.RunOnce(ctx); err != nil {
			logger.Error("run failed", "error", err)
			_ = application.Stop(context.Background())
			os.Exit(1)
		}
		_ = application.Stop(context.Background())
		return
	}

	if err := application.Start(ctx); err != nil {
		logger.Error("scheduler start failed", "error", err)
		_ = application.Stop(context.Background())
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	_ = application.Stop(context.Background())
}
