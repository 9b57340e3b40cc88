package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/airquality-ingest-service/internal/pipeline"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	DatabaseURL     string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Ingestion defaults, overridable per upload.
	IngestSeparator rune
	IngestChunkSize int
	IngestLocation  *time.Location
	MaxUploadBytes  int64

	// Progress broadcaster settings.
	ProgressReplaySize int
	JobRetention       time.Duration

	// Kafka progress events.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaProgressTopic string

	// InfluxDB measurement mirror.
	InfluxEnabled bool
	InfluxURL     string
	InfluxToken   string
	InfluxOrg     string
	InfluxBucket  string
}

// Load reads configuration from environment variables (and an optional .env
// file), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load() // a missing .env file is not an error

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	separator, err := parseSeparator(sharedcfg.EnvOrDefault("INGEST_SEPARATOR", ";"))
	if err != nil {
		return nil, err
	}

	chunkSize, err := parsePositiveInt("INGEST_CHUNK_SIZE", 500)
	if err != nil {
		return nil, err
	}

	replaySize, err := parsePositiveInt("PROGRESS_REPLAY_SIZE", 50)
	if err != nil {
		return nil, err
	}

	maxUpload, err := parsePositiveInt("MAX_UPLOAD_BYTES", 50<<20)
	if err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(sharedcfg.EnvOrDefault("INGEST_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_TIMEZONE: %w", err)
	}

	retention, err := time.ParseDuration(sharedcfg.EnvOrDefault("JOB_RETENTION", "15m"))
	if err != nil || retention < 0 {
		return nil, errors.New("invalid JOB_RETENTION")
	}

	brokers := os.Getenv("KAFKA_BROKERS")
	kafkaEnabled := brokers != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	influxURL := os.Getenv("INFLUXDB_URL")
	influxEnabled := influxURL != ""
	if v := os.Getenv("INFLUXDB_ENABLED"); v != "" {
		influxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		IngestSeparator: separator,
		IngestChunkSize: chunkSize,
		IngestLocation:  location,
		MaxUploadBytes:  int64(maxUpload),

		ProgressReplaySize: replaySize,
		JobRetention:       retention,

		KafkaEnabled:       kafkaEnabled,
		KafkaBrokers:       parseBrokers(brokers),
		KafkaProgressTopic: sharedcfg.EnvOrDefault("KAFKA_PROGRESS_TOPIC", "ingestion-progress"),

		InfluxEnabled: influxEnabled,
		InfluxURL:     influxURL,
		InfluxToken:   os.Getenv("INFLUXDB_TOKEN"),
		InfluxOrg:     os.Getenv("INFLUXDB_ORG"),
		InfluxBucket:  sharedcfg.EnvOrDefault("INFLUXDB_BUCKET", "airquality"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaProgressTopic == "" {
		return nil, errors.New("KAFKA_PROGRESS_TOPIC is required")
	}
	if cfg.InfluxEnabled {
		if cfg.InfluxURL == "" {
			return nil, errors.New("INFLUXDB_ENABLED is true but INFLUXDB_URL is not set")
		}
		if cfg.InfluxToken == "" || cfg.InfluxOrg == "" {
			return nil, errors.New("INFLUXDB_TOKEN and INFLUXDB_ORG are required when InfluxDB is enabled")
		}
	}

	return cfg, nil
}

func parseSeparator(s string) (rune, error) {
	r, err := pipeline.ParseSeparator(s)
	if err != nil {
		return 0, fmt.Errorf("invalid INGEST_SEPARATOR: %w", err)
	}
	return r, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(s)
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
