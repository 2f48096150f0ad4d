package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/samirrijal/placeshare/internal/adapters/postgres"
	"github.com/samirrijal/placeshare/internal/pkg/config"
	"github.com/samirrijal/placeshare/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("placeshare-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	direction := os.Args[1]
	if direction != "up" && direction != "down" {
		log.Fatalf("unknown command: %s", direction)
	}

	if err := postgres.Migrate(cfg.Database.DSN(), direction); err != nil {
		log.Fatalf("migrate %s: %v", direction, err)
	}
	slog.Info("migrations applied", "direction", direction)
}
