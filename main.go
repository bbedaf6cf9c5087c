package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmurillo/asociacion-backend/shared/utils"
	v1 "github.com/jmurillo/asociacion-backend/v1"
	v1handlers "github.com/jmurillo/asociacion-backend/v1/handlers"
	v1middleware "github.com/jmurillo/asociacion-backend/v1/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	slog.SetDefault(logger)

	slog.Info("Starting Asociacion Backend initialization")

	// Initialize GORM database connection for V1
	v1DbConfig := v1.NewDatabaseConfig()
	gormDB, err := v1.ConnectGormDB(v1DbConfig)
	if err != nil {
		slog.Error("Failed to connect to GORM database", "error", err)
		os.Exit(1)
	}

	// Initialize V1 handlers
	v1Handler, err := v1handlers.NewV1Handler(gormDB, v1DbConfig)
	if err != nil {
		slog.Error("Failed to initialize V1 handler", "error", err)
		os.Exit(1)
	}

	// Create a mux for API routes
	apiMux := http.NewServeMux()
	v1Handler.SetupV1Routes(apiMux) // All /api/v1/... routes go here

	// Apply middleware chain (CORS -> metrics) to the API mux ONLY.
	// Session auth is applied per-route inside SetupV1Routes.
	corsMiddleware := v1middleware.NewCORSMiddleware()
	metricsMiddleware := v1middleware.NewMetricsMiddleware()
	apiHandler := corsMiddleware(metricsMiddleware(apiMux))

	// Create the MAIN (top-level) mux for all incoming traffic
	topLevelMux := http.NewServeMux()

	topLevelMux.Handle("/health", utils.PanicRecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		type DBHealth struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
			Driver string `json:"driver,omitempty"`
		}
		type HealthStatus struct {
			Status   string   `json:"status"`
			Service  string   `json:"service"`
			Database DBHealth `json:"database"`
		}

		status := HealthStatus{
			Status:   "healthy",
			Service:  "asociacion-backend",
			Database: DBHealth{Status: "unknown"},
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		sqlDB, err := gormDB.DB()
		if err != nil {
			status.Database = DBHealth{Status: "unhealthy", Error: fmt.Sprintf("failed to get sql.DB: %v", err)}
			status.Status = "unhealthy"
		} else if err := sqlDB.PingContext(ctx); err != nil {
			status.Database = DBHealth{Status: "unhealthy", Error: err.Error()}
			status.Status = "unhealthy"
		} else {
			status.Database = DBHealth{Status: "healthy", Driver: v1DbConfig.Driver}
		}

		statusCode := http.StatusOK
		if status.Status != "healthy" {
			statusCode = http.StatusServiceUnavailable
		}

		utils.RespondWithJSON(w, statusCode, status)
	})))

	topLevelMux.Handle("/metrics", promhttp.Handler())

	// Register the API routes to the top-level mux
	topLevelMux.Handle("/api/v1/", apiHandler)

	// Start the backup worker loop; it drains queued jobs until shutdown
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go v1Handler.BackupWorker().Start(workerCtx)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	addr := ":" + port
	server := &http.Server{
		Addr:         addr,
		Handler:      topLevelMux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Asociacion Backend starting", "port", port, "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start Asociacion Backend", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down Asociacion Backend...")
	stopWorker()

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Gracefully close database connection
	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}

	slog.Info("Asociacion Backend exited")
}
