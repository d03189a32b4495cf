package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/articles"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/postgres"
)

// populate replaces the article table with every training and test article
// of the corpus.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	docs, err := corpus.Load(os.DirFS(cfg.Corpus.Root), corpus.Options{Encoding: cfg.Corpus.Encoding})
	if err != nil {
		slog.Error("failed to load corpus", "root", cfg.Corpus.Root, "error", err)
		os.Exit(1)
	}

	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := articles.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("failed to create article schema", "error", err)
		os.Exit(1)
	}
	n, err := store.Replace(ctx, articles.FromCorpus(docs.Articles()))
	if err != nil {
		slog.Error("failed to populate articles", "error", err)
		os.Exit(1)
	}
	slog.Info("article table populated",
		"articles", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
