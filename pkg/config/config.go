// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. An optional .env file is read first so
// local overrides work without exporting variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Search    SearchConfig    `yaml:"search"`
	CORS      CORSConfig      `yaml:"cors"`
	History   HistoryConfig   `yaml:"history"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	SearchEvents string `yaml:"searchEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// CorpusConfig locates the Reuters-style corpus on disk.
type CorpusConfig struct {
	Root           string `yaml:"root"`
	StopwordsPath  string `yaml:"stopwordsPath"`
	TrainingPrefix string `yaml:"trainingPrefix"`
	Encoding       string `yaml:"encoding"`
}

// SearchConfig controls fitting and query execution.
type SearchConfig struct {
	DefaultLimit  int           `yaml:"defaultLimit"`
	MaxResults    int           `yaml:"maxResults"`
	Workers       int           `yaml:"workers"`
	FitTimeout    time.Duration `yaml:"fitTimeout"`
	DropStopwords bool          `yaml:"dropStopwords"`
	Stemming      bool          `yaml:"stemming"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allowOrigins"`
}

// HistoryConfig selects where API events are recorded: file, postgres or none.
type HistoryConfig struct {
	Sink     string `yaml:"sink"`
	FilePath string `yaml:"filePath"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads envFile (if it exists), then the YAML config file (if provided),
// and applies SP_* environment-variable overrides on top. Missing values
// keep their defaults.
func Load(path string, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading env file %s: %w", envFile, err)
		}
	}
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Search.DefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("search.defaultLimit must be positive, got %d", c.Search.DefaultLimit))
	}
	if c.Search.MaxResults < c.Search.DefaultLimit {
		errs = append(errs, fmt.Errorf("search.maxResults %d below defaultLimit %d", c.Search.MaxResults, c.Search.DefaultLimit))
	}
	if c.Search.Workers < 0 {
		errs = append(errs, fmt.Errorf("search.workers must not be negative"))
	}
	if c.Corpus.Root == "" {
		errs = append(errs, fmt.Errorf("corpus.root is required"))
	}
	switch c.History.Sink {
	case "file":
		if c.History.FilePath == "" {
			errs = append(errs, fmt.Errorf("history.filePath is required for the file sink"))
		}
	case "postgres":
		if !c.Postgres.Enabled {
			errs = append(errs, fmt.Errorf("history.sink postgres requires postgres.enabled"))
		}
	case "none", "":
	default:
		errs = append(errs, fmt.Errorf("unknown history.sink %q", c.History.Sink))
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, fmt.Errorf("rateLimit values must not be negative"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, fmt.Errorf("kafka.brokers is required when kafka is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// defaultConfig returns a Config with defaults suitable for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            5000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "reuters",
			User:            "reuters",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "reuters-search-analytics",
			Topics: KafkaTopics{
				SearchEvents: "search-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Corpus: CorpusConfig{
			Root:           "reuters",
			TrainingPrefix: "training",
			Encoding:       "iso-8859-2",
		},
		Search: SearchConfig{
			DefaultLimit:  5,
			MaxResults:    100,
			FitTimeout:    5 * time.Minute,
			DropStopwords: true,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
		},
		History: HistoryConfig{
			Sink:     "file",
			FilePath: "search_results.json",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields. Unparseable numbers are ignored.
func applyEnvOverrides(cfg *Config) {
	setInt("SP_SERVER_PORT", &cfg.Server.Port)
	setBool("SP_POSTGRES_ENABLED", &cfg.Postgres.Enabled)
	setString("SP_POSTGRES_HOST", &cfg.Postgres.Host)
	setInt("SP_POSTGRES_PORT", &cfg.Postgres.Port)
	setString("SP_POSTGRES_DATABASE", &cfg.Postgres.Database)
	setString("SP_POSTGRES_USER", &cfg.Postgres.User)
	setString("SP_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	setString("SP_POSTGRES_SSLMODE", &cfg.Postgres.SSLMode)
	setBool("SP_KAFKA_ENABLED", &cfg.Kafka.Enabled)
	if v := os.Getenv("SP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	setBool("SP_REDIS_ENABLED", &cfg.Redis.Enabled)
	setString("SP_REDIS_ADDR", &cfg.Redis.Addr)
	setString("SP_REDIS_PASSWORD", &cfg.Redis.Password)
	setString("SP_CORPUS_ROOT", &cfg.Corpus.Root)
	setString("SP_CORPUS_STOPWORDS", &cfg.Corpus.StopwordsPath)
	setInt("SP_SEARCH_DEFAULT_LIMIT", &cfg.Search.DefaultLimit)
	setInt("SP_SEARCH_WORKERS", &cfg.Search.Workers)
	setBool("SP_SEARCH_STEMMING", &cfg.Search.Stemming)
	if v := os.Getenv("SP_CORS_ALLOW_ORIGINS"); v != "" {
		cfg.CORS.AllowOrigins = strings.Split(v, ",")
	}
	setString("SP_HISTORY_SINK", &cfg.History.Sink)
	setString("SP_HISTORY_FILE", &cfg.History.FilePath)
	setString("SP_LOGGING_LEVEL", &cfg.Logging.Level)
	setString("SP_LOGGING_FORMAT", &cfg.Logging.Format)
	setInt("SP_METRICS_PORT", &cfg.Metrics.Port)
}

func setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
