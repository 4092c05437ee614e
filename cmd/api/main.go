package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"pickleballshannon/internal/api"
	"pickleballshannon/internal/config"
	"pickleballshannon/internal/database"
	"pickleballshannon/internal/metrics"
	"pickleballshannon/internal/services"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second

	dbStatsInterval = 30 * time.Second
)

func main() {
	// Initialize structured logging
	log.SetPrefix("[API] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate critical configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	log.Printf("Starting %s v%s", cfg.App.Name, cfg.App.Version)
	log.Printf("Environment: debug=%v, port=%s, host=%s", cfg.App.Debug, cfg.App.Port, cfg.App.Host)

	// Initialize database. An unset DATABASE_URL is allowed: the server
	// starts degraded and the contact endpoint answers 503.
	var db *gorm.DB
	if cfg.Database.IsConfigured() {
		log.Println("Initializing database connection...")
		if err := database.Init(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		db = database.GetDB()
		defer func() {
			log.Println("Closing database connections...")
			if sqlDB, err := db.DB(); err == nil {
				if closeErr := sqlDB.Close(); closeErr != nil {
					log.Printf("Error closing database: %v", closeErr)
				}
			}
		}()

		go reportDBStats()
	} else {
		log.Println("WARNING: DATABASE_URL not set; contact submissions will be rejected with 503")
	}

	if cfg.Turnstile.SecretKey == "" {
		// Open by default: an explicit operational choice for deployments
		// that have not enabled the challenge widget.
		log.Println("TURNSTILE_SECRET_KEY not set; challenge verification is disabled")
	}
	if !cfg.Email.Enabled {
		log.Println("EMAIL_ENABLED is false; inquiry notifications will be logged only")
	}

	// Create service instances
	log.Println("Initializing services...")
	emailSvc := services.NewEmailService(&cfg.Email)
	turnstileSvc := services.NewTurnstileService(&cfg.Turnstile)
	contactSvc := services.NewContactService(db, turnstileSvc, emailSvc, cfg.Email.NotifyTo)

	// Create HTTP handlers and router
	log.Println("Mounting HTTP handlers...")
	contactHandler := api.NewContactHandler(contactSvc)
	healthHandler := api.NewHealthHandler(cfg)
	router := api.NewRouter(cfg, contactHandler, healthHandler)

	// Create a wrapper handler that routes /metrics to Prometheus and
	// everything else to the API router
	rootHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			promhttp.Handler().ServeHTTP(w, r)
			return
		}
		router.ServeHTTP(w, r)
	})

	// Setup middleware chain: Prometheus -> Logging -> Security -> Handler
	handler := setupSecurityHeaders(requestLogging(metrics.PrometheusMiddleware(rootHandler)), cfg)

	// Create HTTP server with timeouts
	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     log.New(os.Stderr, "[HTTP] ", log.LstdFlags),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatalf("Server failed to start: %v", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v. Starting graceful shutdown...", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Error during graceful shutdown: %v", err)
		if err == context.DeadlineExceeded {
			log.Println("Shutdown timeout exceeded, forcing close...")
			httpServer.Close()
		}
	}

	log.Println("Server shutdown complete")
}

// validateConfig validates critical configuration values
func validateConfig(cfg *config.Config) error {
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	return nil
}

// reportDBStats periodically exports connection pool statistics
func reportDBStats() {
	ticker := time.NewTicker(dbStatsInterval)
	defer ticker.Stop()

	for range ticker.C {
		stats, err := database.GetStats()
		if err != nil {
			continue
		}
		metrics.UpdateDBConnections(stats.InUse, stats.Idle)
	}
}

// setupSecurityHeaders adds security headers to responses
func setupSecurityHeaders(handler http.Handler, cfg *config.Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Security headers
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		// Remove server identification
		w.Header().Set("Server", "")

		// HSTS (only in production with HTTPS)
		if !cfg.App.Debug && r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		handler.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLogging logs all incoming requests and their responses
func requestLogging(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip logging for health checks to reduce noise
		if r.URL.Path == "/health" {
			handler.ServeHTTP(w, r)
			return
		}

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		// Log request start
		log.Printf("[REQUEST] %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		// Handle request
		handler.ServeHTTP(wrapped, r)

		// Log request completion
		duration := time.Since(start)
		statusText := "OK"
		if wrapped.statusCode >= 400 {
			statusText = "ERROR"
		}
		log.Printf("[RESPONSE] %s %s -> %d %s (%v)", r.Method, r.URL.Path, wrapped.statusCode, statusText, duration)
	})
}
