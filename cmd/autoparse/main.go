// autoparse - Turns open WooCommerce orders into a printable worklist.
// Serves the worklist as JSON, as a .docx download, and as MCP tools.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"autoparse/internal/config"
	"autoparse/internal/document"
	"autoparse/internal/handler"
	"autoparse/internal/middleware"
	"autoparse/internal/transport"
	"autoparse/internal/woocommerce"
	"autoparse/internal/worklist"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Initialize structured logger
	logger, closeLog := initLogger(cfg)
	defer closeLog()

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("store", cfg.WooCommerce.BaseURL),
		slog.String("output_dir", cfg.OutputDir),
		slog.Int("max_pages", cfg.WooCommerce.MaxPages),
	)

	store, err := woocommerce.New(woocommerce.Config{
		BaseURL:        cfg.WooCommerce.BaseURL,
		ConsumerKey:    cfg.WooCommerce.ConsumerKey,
		ConsumerSecret: cfg.WooCommerce.ConsumerSecret,
		MaxPages:       cfg.WooCommerce.MaxPages,
		Transport: transport.Options{
			Timeout:     30 * time.Second,
			Fingerprint: cfg.WooCommerce.TLSFingerprint,
			UserAgent:   cfg.WooCommerce.UserAgent,
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("creating store client: %w", err)
	}

	orders := worklist.NewService(store, logger)
	documents := document.NewGenerator(orders, store, document.Options{
		OutputDir: cfg.OutputDir,
		Logger:    logger,
	})

	h := handler.New(orders, documents, logger)

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request id → logging → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
	)(mux)

	// Create HTTP server with timeouts. Generating a document walks every
	// order page and one product per order, so writes get a long deadline.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
// When LOG_FILE is set, output is also written to a rotated file.
func initLogger(cfg *config.Config) (*slog.Logger, func()) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	var out io.Writer = os.Stdout
	closeLog := func() {}
	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closeLog = func() { rotator.Close() }
	}

	// JSON for production (Cloud Logging compatible), text for development
	if cfg.Environment == "production" {
		return slog.New(slog.NewJSONHandler(out, opts)), closeLog
	}
	return slog.New(slog.NewTextHandler(out, opts)), closeLog
}
