package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/senai134/medidor/internal/api/http"
	"github.com/senai134/medidor/internal/config"
	"github.com/senai134/medidor/internal/ingest"
	"github.com/senai134/medidor/internal/scheduler"
	"github.com/senai134/medidor/internal/sink"
	"github.com/senai134/medidor/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Record store: Postgres when configured, in-memory otherwise.
	var recordStore store.Store
	if cfg.PostgresURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		recordStore = pg
		log.Info("using postgres store")
	} else {
		recordStore = store.NewMemoryStore()
		log.Warn("POSTGRES_URL not set, using in-memory store")
	}

	// External sink (Google Sheets), optional.
	var sheetSink sink.Sink
	if cfg.SpreadsheetID != "" {
		s, err := sink.NewSheetsSink(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, cfg.SpreadsheetRange)
		if err != nil {
			log.Error("failed to build sheets sink", "error", err)
			os.Exit(1)
		}
		sheetSink = s
		log.Info("sheets sink configured", "range", cfg.SpreadsheetRange)
	} else {
		log.Warn("SPREADSHEET_ID not set, sink pushes disabled")
	}

	// Dedicated synchronizer goroutine fed by a coalescing trigger.
	syncer := sink.NewSynchronizer(recordStore, sheetSink, cfg.CO2Threshold, log)
	notifier := sink.NewNotifier()
	go notifier.Run(ctx, syncer)

	// Periodic reconciliation heals the sheet after sink outages and picks
	// up HTTP-ingested records.
	sched := scheduler.New(cfg.SyncInterval, notifier.Trigger, log)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	// Latest-payload cache, optionally mirrored to Redis for dashboards.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
	}
	latest := ingest.NewLatestCache(rdb, log)

	// Asynchronous ingress: MQTT subscription listener.
	listener := ingest.NewListener(ingest.Options{
		BrokerURL: cfg.MQTTBroker,
		ClientID:  cfg.MQTTClientID,
		Topic:     cfg.MQTTTopic,
	}, recordStore, latest, notifier.Trigger, log)
	if err := listener.Start(); err != nil {
		log.Error("failed to connect to mqtt broker", "error", err)
		os.Exit(1)
	}
	defer listener.Close()

	// Synchronous ingress + query API.
	app := fiber.New(fiber.Config{
		AppName:               "medidor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "medidor"})
	})

	httpapi.RegisterRoutes(app, recordStore, latest)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()
	log.Info("medidor running", "port", cfg.Port, "topic", cfg.MQTTTopic)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}
