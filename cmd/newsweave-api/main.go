package main

import (
	"os"

	"github.com/joho/godotenv"

	"newsweave/internal/api"
	"newsweave/internal/config"
	"newsweave/internal/infrastructure/storage"
	"newsweave/internal/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.Logging)

	db, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		logger.Error("open store failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	server := api.NewServer(
		storage.NewArticleStore(db),
		storage.NewDigestStore(db),
		logger.With("component", "api"),
	)

	logger.Info("query api listening", "addr", cfg.API.Addr)
	if err := server.Router().Run(cfg.API.Addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
