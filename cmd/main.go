// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/config"
	"github.com/Shivanand-hulikatti/event-checkin/internal/database"
	"github.com/Shivanand-hulikatti/event-checkin/internal/handler"
	"github.com/Shivanand-hulikatti/event-checkin/internal/live"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository/memstore"
	"github.com/Shivanand-hulikatti/event-checkin/internal/scanlog"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
	"github.com/go-redis/redis/v8"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Record store ─────────────────────────────────────────────────────
	deps := service.Deps{Logger: logger, Hub: live.NewHub(logger)}
	switch cfg.Store {
	case config.StoreMemory:
		store := memstore.New()
		deps.Events, deps.Attendees, deps.Users = store.Events(), store.Attendees(), store.Users()
		logger.Warn("using in-memory store; data is lost on exit")
	default:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		logger.Info("connected to PostgreSQL", "host", cfg.Database.Host, "db", cfg.Database.Name)

		deps.Events = repository.NewEventRepository(pool)
		deps.Attendees = repository.NewAttendeeRepository(pool)
		deps.Users = repository.NewUserRepository(pool)
	}

	// ── 2. Change relay and scan history ───────────────────────────────────
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}

		relay := live.NewRedisRelay(client, cfg.Redis.Channel, deps.Hub, logger)
		deps.Notifier = relay
		deps.Scans = scanlog.NewRedisStore(client)
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error("change relay stopped", "error", err)
			}
		}()
	} else {
		deps.Scans = scanlog.NewMemoryStore()
		logger.Info("redis not configured; live updates stay within this instance")
	}

	// ── 3. Wire up layers ───────────────────────────────────────────────────
	svc := service.NewEventService(deps)
	eventHandler := handler.NewEventHandler(svc, logger)
	router := handler.NewRouter(eventHandler, logger, cfg.HTTP.WebDir)

	// ── 4. Start server with graceful shutdown ─────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", "http://localhost:"+cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Block until SIGINT/SIGTERM or a server failure.
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel() // validated by config.Load
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
