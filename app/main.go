package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lysyi3m/sanskrithi-site/app/api"
	"github.com/lysyi3m/sanskrithi-site/app/cfg"
	"github.com/lysyi3m/sanskrithi-site/app/content"
	"github.com/lysyi3m/sanskrithi-site/app/database"
	"github.com/lysyi3m/sanskrithi-site/app/media"
	"github.com/lysyi3m/sanskrithi-site/app/metrics"
	"github.com/lysyi3m/sanskrithi-site/app/session"
	"github.com/lysyi3m/sanskrithi-site/app/store"
	"github.com/lysyi3m/sanskrithi-site/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: appCfg.LogLevel()})))

	if err := run(appCfg); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func run(appCfg *cfg.Cfg) error {
	slog.Info("Starting Sanskrithi content server", "version", appCfg.Version)

	db, err := database.Open(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	configCache := content.NewConfigCache(appCfg.CollectionsDir)
	if err := configCache.Run(); err != nil {
		return fmt.Errorf("failed to load collection configurations: %w", err)
	}
	slog.Info("Collection configurations loaded", "count", configCache.GetConfigCount(), "dir", appCfg.CollectionsDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appMetrics := metrics.New()
	repo := database.NewDocumentRepository(db)
	hub := store.NewHub()

	storeOpts := []store.Option{store.WithObserver(appMetrics)}

	var bridgeDone <-chan struct{}
	if appCfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: appCfg.RedisAddr})
		defer client.Close()

		bridge := store.NewBridge(client, hub, appCfg.RedisChannel, content.CollectionNames())
		storeOpts = append(storeOpts, store.WithBroadcaster(bridge))
		bridgeDone = bridge.Run(ctx)
		slog.Info("Change bridge enabled", "redis", appCfg.RedisAddr, "origin", bridge.Origin())
	}

	contentStore := store.New(repo, hub, content.CollectionNames(), storeOpts...)

	passwordHash := []byte(appCfg.AdminPasswordHash)
	if appCfg.AdminPassword != "" {
		passwordHash, err = session.HashPassword(appCfg.AdminPassword)
		if err != nil {
			return err
		}
	}

	sessions, err := session.NewManager(session.Options{
		Secret:       []byte(appCfg.SessionSecret),
		PasswordHash: passwordHash,
		TTL:          appCfg.SessionTTL,
		LoginRate:    appCfg.LoginRate,
		LoginBurst:   appCfg.LoginBurst,
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	scheduler := tasks.NewScheduler(configCache, repo, contentStore, appMetrics,
		appCfg.WorkerCount, time.Duration(appCfg.SchedulerInterval)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)

	handler := api.NewHandler(repo, contentStore, configCache, content.NewSanitizer(), sessions,
		media.NewProcessor(appCfg.MaxUploadBytes), appMetrics.Handler(), api.SiteInfo{
			Title:       appCfg.SiteTitle,
			Description: appCfg.SiteTitle + " blog",
			BaseURL:     appCfg.PublicURL(),
			Version:     appCfg.Version,
		})

	httpServer := &http.Server{
		Addr:        ":" + appCfg.Port,
		Handler:     api.NewServer(handler, appMetrics, appCfg.Debug),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "url", appCfg.PublicURL())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case runErr = <-serverErrChan:
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	cancel()
	if bridgeDone != nil {
		<-bridgeDone
	}

	slog.Info("Server shutdown complete")
	return runErr
}
