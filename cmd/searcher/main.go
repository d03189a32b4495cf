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
	"time"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/articles"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/history"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/resilience"
	"github.com/prometheus/client_golang/prometheus"
)

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
	slog.Info("starting search service", "port", cfg.Server.Port, "corpus", cfg.Corpus.Root)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, prometheus.DefaultGatherer)
		defer shutdownMetrics(context.Background())
	}
	checker := health.NewChecker()

	stopwords := tokenizer.DefaultStopwords()
	if cfg.Corpus.StopwordsPath != "" {
		stopwords, err = tokenizer.LoadStopwords(cfg.Corpus.StopwordsPath)
		if err != nil {
			slog.Error("failed to load stopwords", "path", cfg.Corpus.StopwordsPath, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("stopwords loaded", "count", stopwords.Len())

	docs, err := corpus.Load(os.DirFS(cfg.Corpus.Root), corpus.Options{Encoding: cfg.Corpus.Encoding})
	if err != nil {
		slog.Error("failed to load corpus", "root", cfg.Corpus.Root, "error", err)
		os.Exit(1)
	}

	// Nothing is served until the index is fitted.
	var idx *indexer.FittedIndex
	err = resilience.WithTimeout(ctx, cfg.Search.FitTimeout, "fit-index", func(ctx context.Context) error {
		var err error
		idx, err = indexer.Initialize(ctx, docs.Documents(cfg.Corpus.TrainingPrefix), indexer.Options{
			Tokenizer: tokenizer.Options{
				DropStopwords: cfg.Search.DropStopwords,
				Stem:          cfg.Search.Stemming,
			},
			Stopwords: stopwords,
			Workers:   cfg.Search.Workers,
		})
		return err
	})
	if err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}
	stats := idx.Stats()
	m.DocsIndexed.Set(float64(stats.Documents))
	m.VocabularySize.Set(float64(stats.VocabularySize))
	m.FitDuration.Set(stats.FitDuration.Seconds())

	var db *postgres.Client
	if cfg.Postgres.Enabled {
		db, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		checker.Register("postgres", db.HealthCheck())
	}

	store, err := articleStore(ctx, db, docs)
	if err != nil {
		slog.Error("failed to prepare article store", "error", err)
		os.Exit(1)
	}
	recorder, err := historyRecorder(ctx, cfg.History, db)
	if err != nil {
		slog.Error("failed to prepare history sink", "error", err)
		os.Exit(1)
	}

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL)
			checker.Register("redis", redisClient.HealthCheck())
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	aggregator := analytics.NewAggregator()
	var tracker analytics.Tracker = aggregator
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		collector := analytics.NewCollector(producer, analytics.CollectorConfig{})
		// The collector outlives the signal so in-flight requests still publish.
		collector.Start(context.Background())
		defer func() {
			collector.Close()
			producer.Close()
		}()
		tracker = collector

		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, aggregator.HandleEvent())
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("analytics consumer error", "error", err)
			}
		}()
		slog.Info("analytics pipeline started", "topic", cfg.Kafka.Topics.SearchEvents)
	}

	h := handler.New(handler.Options{
		Executor:     executor.New(idx),
		Normalizer:   idx,
		Model:        idx.Fingerprint(),
		Cache:        queryCache,
		Corpus:       docs,
		Articles:     store,
		History:      recorder,
		Tracker:      tracker,
		Metrics:      m,
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
	})

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(aggregator).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	limiter := middleware.NewClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, 10*time.Minute)
	go sweep(ctx, limiter)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.CORS.AllowOrigins

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	chain = middleware.RateLimit(limiter)(chain)
	chain = middleware.CORS(corsCfg)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Deferred closes must wait until in-flight requests have drained.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		checker.SetNotReady("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	checker.SetReady()
	slog.Info("search service listening",
		"addr", server.Addr,
		"documents", stats.Documents,
		"vocabulary_size", stats.VocabularySize,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-shutdownDone

	slog.Info("search service stopped")
}

// articleStore serves articles from Postgres when it is configured and from
// the loaded corpus otherwise.
func articleStore(ctx context.Context, db *postgres.Client, docs *corpus.Corpus) (articles.Store, error) {
	if db == nil {
		slog.Info("postgres disabled, serving articles from the corpus")
		return articles.NewMemoryStore(articles.FromCorpus(docs.Articles())), nil
	}
	store := articles.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func historyRecorder(ctx context.Context, cfg config.HistoryConfig, db *postgres.Client) (history.Recorder, error) {
	switch cfg.Sink {
	case "file":
		slog.Info("recording history to file", "path", cfg.FilePath)
		return history.NewFileRecorder(cfg.FilePath), nil
	case "postgres":
		rec := history.NewPostgresRecorder(db)
		if err := rec.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		slog.Info("recording history to postgres")
		return rec, nil
	}
	return history.Nop{}, nil
}

func sweep(ctx context.Context, limiter *middleware.ClientLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				slog.Debug("rate limiter swept idle clients", "removed", n)
			}
		}
	}
}
