package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medialib/internal/database"
	"medialib/internal/handlers"
	"medialib/internal/logging"
	"medialib/internal/mediainfo"
	"medialib/internal/middleware"
	"medialib/internal/startup"
	"medialib/internal/thumbnail"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Check external tools
	startup.LogFFmpegInit()

	// Initialize libvips for fast image decoding; the pipeline falls
	// back to pure-Go decoders if this fails
	if err := thumbnail.InitVips(); err != nil {
		logging.Warn("libvips initialization failed: %v", err)
	}
	defer thumbnail.ShutdownVips()

	// Shared decode limiter across single and batch thumbnail requests
	limiter := semaphore.NewWeighted(config.ThumbnailConcurrency)

	thumbGen := thumbnail.New(config.ThumbnailDir, limiter)
	metaCache := mediainfo.NewCache(db)

	// Initialize handlers
	h := handlers.New(db, metaCache, thumbGen)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)

	// Apply metrics middleware
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	// Create server
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics server on its own port
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:         ":" + config.MetricsPort,
			Handler:      metricsMux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Metadata
	api.HandleFunc("/media/info", h.GetMediaInfo).Methods("GET")
	api.HandleFunc("/media", h.ListMedia).Methods("GET")

	// Thumbnails
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/thumbnail/exists", h.ThumbnailExists).Methods("GET")
	api.HandleFunc("/thumbnail/batch", h.BatchThumbnails).Methods("POST")
	api.HandleFunc("/thumbnail/cache", h.ClearThumbnailCache).Methods("DELETE")
	api.HandleFunc("/thumbnail/cache/size", h.ThumbnailCacheSize).Methods("GET")

	// Folder scanning
	api.HandleFunc("/scan", h.ScanFolder).Methods("POST")
	api.HandleFunc("/folders", h.ListScannedFolders).Methods("GET")
	api.HandleFunc("/folders/{id}", h.DeleteScannedFolder).Methods("DELETE")

	// Preferences
	api.HandleFunc("/preferences", h.ListPreferences).Methods("GET")
	api.HandleFunc("/preferences/{key}", h.GetPreference).Methods("GET")
	api.HandleFunc("/preferences/{key}", h.SetPreference).Methods("PUT")
	api.HandleFunc("/preferences/{key}", h.DeletePreference).Methods("DELETE")

	return r
}

func handleShutdown(srv *http.Server, metricsSrv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownComplete()
}
