package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/geoguard/internal/adapters/http"
	natsadapter "github.com/samirrijal/geoguard/internal/adapters/nats"
	"github.com/samirrijal/geoguard/internal/adapters/postgres"
	"github.com/samirrijal/geoguard/internal/adapters/valkey"
	"github.com/samirrijal/geoguard/internal/core/ports"
	"github.com/samirrijal/geoguard/internal/core/usecases"
	"github.com/samirrijal/geoguard/internal/pkg/config"
	"github.com/samirrijal/geoguard/internal/pkg/logging"
	"github.com/samirrijal/geoguard/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("geoguard-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	// Cache and broker are optional; the API degrades to direct reads and no events.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Separate core connection for the WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	zoneSvc := usecases.NewZoneService(
		postgres.NewZoneSetRepo(db),
		postgres.NewZoneRepo(db),
		cacheSvc,
		publisher,
		cfg.Geofence.ZoneCacheTTL,
	)
	authSvc := usecases.NewAuthorizationService(zoneSvc, postgres.NewDecisionRepo(db), publisher, usecases.AuthorizationOptions{
		DefaultRadiusMeters: cfg.Geofence.DefaultRadiusMeters,
		MaxPlaces:           cfg.Geofence.MaxPlaces,
	})

	deps := &http.Dependencies{
		Zones:         zoneSvc,
		Authorization: authSvc,
		Precision:     cfg.Geofence.CoordinatePrecision,
		RateLimit:     cfg.Server.RateLimit,
		NATS:          natsConn,
		DB:            db,
		Cache:         cache,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // polygons with many vertices
		AppName:      "GeoGuard API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

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

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
