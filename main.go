package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"gopkg.in/natefinch/lumberjack.v2"

	"showtrack/api"
	"showtrack/config"
	"showtrack/handlers"
	"showtrack/services/cache"
	"showtrack/services/catalog"
	"showtrack/services/tracking"
	"showtrack/services/tvmaze"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	configPath := os.Getenv("SHOWTRACK_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			log.Printf("warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			log.SetOutput(io.MultiWriter(os.Stdout, fileWriter))
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	if err := os.MkdirAll(settings.Storage.DataDir, 0o755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}

	// Core construction, leaves first: cache gateway, remote client, catalog
	// service, tracking store, statistics.
	gateway := cache.New(settings.Storage.CacheDir)
	client := tvmaze.NewClient(settings.TVMaze.BaseURL, &http.Client{
		Timeout: time.Duration(settings.TVMaze.TimeoutSeconds) * time.Second,
	})
	catalogService := catalog.NewService(gateway, client)

	store, err := tracking.Open(settings.DatabasePath())
	if err != nil {
		log.Fatalf("failed to open tracking store: %v", err)
	}
	defer store.Close()

	statistics := tracking.NewStatistics(store, client)

	r := mux.NewRouter()
	api.RegisterRoutes(r,
		handlers.NewCatalogHandler(catalogService),
		handlers.NewTrackingHandler(store, catalogService),
		handlers.NewStatisticsHandler(statistics),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	log.Printf("server starting on %s", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownChan
	log.Println("shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	log.Println("shutdown complete")
}
