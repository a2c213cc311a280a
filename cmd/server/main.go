// Package main is the entry point for the rental calendar sync server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/delloop-lab/homes-sub001/internal/api"
	"github.com/delloop-lab/homes-sub001/internal/calendar"
	"github.com/delloop-lab/homes-sub001/internal/config"
	"github.com/delloop-lab/homes-sub001/internal/storage"
	"github.com/delloop-lab/homes-sub001/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	configPath := flag.String("config", "/data/config.yaml", "Path to YAML configuration file")
	addr := flag.String("addr", "", "HTTP server address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Listen = *addr
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(cfg.Listen); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	log.Printf("Starting rental calendar sync server (version: %s)...", version)

	db, err := storage.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	hub := websocket.NewHub()
	go hub.Run()

	bookingRepo := storage.NewBookingRepository(db)

	syncService := calendar.NewSyncService(bookingRepo, calendar.SyncOptions{
		FetchTimeout:   time.Duration(cfg.Sync.FetchTimeoutSec) * time.Second,
		MaxFeedBytes:   cfg.Sync.MaxFeedBytes,
		MaxConcurrent:  cfg.Sync.MaxConcurrentSources,
		Deadline:       time.Duration(cfg.Sync.DeadlineSec) * time.Second,
		DefaultSources: cfg.DefaultSources,
	})

	scheduler := calendar.NewScheduler(syncService, hub, cfg.Sync.Cron, cfg.Sync.PropertyIDs)
	if err := scheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start sync scheduler: %v", err)
	}

	router := api.NewRouter(db, cfg, hub, syncService, bookingRepo)

	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // sync runs answer synchronously
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Listen)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}
