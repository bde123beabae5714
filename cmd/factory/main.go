package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/factory/internal/api"
	"github.com/Spok95/factory/internal/config"
	"github.com/Spok95/factory/internal/domain/delivery"
	"github.com/Spok95/factory/internal/domain/inventory"
	"github.com/Spok95/factory/internal/domain/materials"
	"github.com/Spok95/factory/internal/domain/products"
	"github.com/Spok95/factory/internal/domain/warehouses"
	"github.com/Spok95/factory/internal/infra/db"
	"github.com/Spok95/factory/internal/infra/events"
	httpx "github.com/Spok95/factory/internal/infra/http"
	"github.com/Spok95/factory/internal/infra/idempotency"
	"github.com/Spok95/factory/internal/infra/logger"
	"github.com/Spok95/factory/internal/infra/metrics"
	"github.com/Spok95/factory/internal/infra/notify"
	"github.com/Spok95/factory/internal/infra/tracing"
	"github.com/Spok95/factory/internal/store/memory"
	"github.com/Spok95/factory/migrations"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/subosito/gotenv"
)

func runMigrations(dsn string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, ".")
}

func main() {
	// .env необязателен
	_ = gotenv.Load()

	path := flag.String("config", "config/example.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env, cfg.App.Name)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing.Endpoint, cfg.App.Name, cfg.App.Version)
	if err != nil {
		log.Error("tracing setup failed", "err", err)
		return
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	deps := api.Deps{Log: log}
	var store delivery.Store

	if cfg.Postgres.DSN == "" {
		mem := memory.New()
		deps.Materials, deps.Warehouses, deps.Products, deps.Stock = mem.Materials(), mem.Warehouses(), mem.Products(), mem.Stock()
		store = mem
		log.Warn("postgres dsn is empty, using in-memory store")
	} else {
		if err := runMigrations(cfg.Postgres.DSN); err != nil {
			log.Error("migrations failed", "err", err)
			return
		}
		log.Info("migrations applied")

		pool, err := db.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			log.Error("db connect failed", "err", err)
			return
		}
		defer pool.Close()
		log.Info("db connected")

		deps.Materials = materials.NewRepo(pool)
		deps.Warehouses = warehouses.NewRepo(pool)
		deps.Products = products.NewRepo(pool)
		deps.Stock = inventory.NewRepo(pool)
		store = delivery.NewPGStore(pool)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	deps.Middleware = []mux.MiddlewareFunc{m.Middleware}
	opts := []delivery.Option{delivery.WithRecorder(m)}

	if cfg.Redis.Addr != "" {
		rdb, err := idempotency.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Error("redis connect failed", "err", err)
			return
		}
		defer func() { _ = rdb.Close() }()
		deps.Idempotency = idempotency.New(rdb, cfg.Redis.IdempotencyTTL, log)
		log.Info("idempotency enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.IdempotencyTTL)
	}

	if cfg.RabbitMQ.URL != "" {
		conn, ch, err := events.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Error("rabbitmq connect failed", "err", err)
			return
		}
		defer func() { _ = conn.Close() }()
		defer func() { _ = ch.Close() }()
		pub, err := events.NewPublisher(ch, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Error("rabbitmq setup failed", "err", err)
			return
		}
		opts = append(opts, delivery.WithPublisher(pub))
		log.Info("delivery events enabled", "exchange", cfg.RabbitMQ.Exchange)
	}

	if cfg.Telegram.Token != "" && cfg.Telegram.AdminChatID != 0 {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram bot init failed", "err", err)
			return
		}
		opts = append(opts, delivery.WithAlerter(
			notify.NewCapacityAlerts(bot, cfg.Telegram.AdminChatID, cfg.Telegram.LowCapacityRatio)))
		log.Info("capacity alerts enabled", "bot", bot.Self.UserName)
	}

	deps.Delivery = delivery.NewService(store, log, opts...)

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, api.New(deps), httpx.Options{
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
	log.Info("graceful shutdown complete")
}
