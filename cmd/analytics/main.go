// Command analytics aggregates the search events the searcher publishes to
// Kafka and serves the totals at GET /api/v1/analytics. It lets several
// searcher replicas share one view of query traffic.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml] [-port 5001]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/middleware"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	envFile := flag.String("env", ".env", "optional dotenv file")
	port := flag.Int("port", 5001, "HTTP port")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if len(cfg.Kafka.Brokers) == 0 {
		slog.Error("analytics service needs kafka.brokers")
		os.Exit(1)
	}
	slog.Info("starting analytics service", "port", *port, "topic", cfg.Kafka.Topics.SearchEvents)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := analytics.NewAggregator()
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, aggregator.HandleEvent())
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("analytics consumer error", "error", err)
		}
	}()

	checker := health.NewChecker()
	checker.SetReady()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(aggregator).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      middleware.RequestID(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Exit only after in-flight requests have drained.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-shutdownDone
	slog.Info("analytics service stopped")
}
