package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/placeshare/internal/adapters/geocoding"
	"github.com/samirrijal/placeshare/internal/adapters/http"
	natsadapter "github.com/samirrijal/placeshare/internal/adapters/nats"
	"github.com/samirrijal/placeshare/internal/adapters/postgres"
	"github.com/samirrijal/placeshare/internal/adapters/valkey"
	"github.com/samirrijal/placeshare/internal/core/ports"
	"github.com/samirrijal/placeshare/internal/core/usecases"
	"github.com/samirrijal/placeshare/internal/pkg/config"
	"github.com/samirrijal/placeshare/internal/pkg/logging"
	"github.com/samirrijal/placeshare/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("placeshare-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Geocoding.RequireCredentials(); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	deps := &http.Dependencies{DB: db}

	// Cache and publisher are optional. Interfaces stay nil when unavailable.
	var cache ports.VersionedCache
	if vc, err := valkey.New(cfg.Valkey.Addr, "placeshare:"); err != nil {
		slog.Warn("valkey unavailable, caching disabled", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, place events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Separate connection for the WebSocket relay's subscriptions
	if nc, err := natsadapter.RawConn(cfg.NATS.URL); err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer nc.Close()
		deps.NATS = nc
	}

	geocoder := newGeocoder(cfg.Geocoding, cache)

	// Repos
	placeRepo := postgres.NewPlaceRepo(db)
	userRepo := postgres.NewUserRepo(db)
	txManager := postgres.NewTxManager(db)

	// Use cases
	deps.Places = usecases.NewPlaceService(placeRepo, userRepo, txManager, geocoder, cache, publisher)
	deps.Users = usecases.NewUserService(userRepo)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Placeshare API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.CORSOrigins, ", "),
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, X-Requested-With, Content-Type, Accept, Authorization",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// newGeocoder builds the configured provider, wrapped in a result cache when
// one is available.
func newGeocoder(cfg config.GeocodingConfig, cache ports.CacheService) ports.Geocoder {
	var g ports.Geocoder
	switch cfg.Provider {
	case "static":
		slog.Warn("static geocoder in use, every address resolves to the same point")
		g = geocoding.NewStatic()
	default:
		g = geocoding.NewGoogleClient(cfg.BaseURL, cfg.APIKey, time.Duration(cfg.Timeout)*time.Second)
	}
	if cache != nil && cfg.CacheTTL > 0 {
		g = geocoding.NewCached(g, cache, cfg.CacheTTL)
	}
	return g
}
