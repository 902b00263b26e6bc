package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/david/campus-events/internal/api"
	"github.com/david/campus-events/internal/app"
	"github.com/david/campus-events/internal/config"
	"github.com/david/campus-events/internal/db"
	"github.com/david/campus-events/internal/logging"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logging.New("info", "text").Fatalf("Failed to load configuration: %v", err)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	if err := db.ApplyMigrations(ctx, a.Pool, log); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	srv := api.NewServer(cfg, a.APIDeps(), log)
	log.WithField("port", cfg.Server.Port).Info("Server starting")
	if err := srv.Start(ctx, ":"+cfg.Server.Port); err != nil {
		log.WithError(err).Error("server stopped")
		return
	}
	log.Info("Server stopped")
}
