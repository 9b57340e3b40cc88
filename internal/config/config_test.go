package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDatabaseURL = "postgres://aq:aq@localhost:5432/aq?sslmode=disable"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", testDatabaseURL)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, testDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, ';', cfg.IngestSeparator)
	assert.Equal(t, 500, cfg.IngestChunkSize)
	assert.Equal(t, time.UTC, cfg.IngestLocation)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 50, cfg.ProgressReplaySize)
	assert.Equal(t, 15*time.Minute, cfg.JobRetention)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, "ingestion-progress", cfg.KafkaProgressTopic)
	assert.False(t, cfg.InfluxEnabled)
	assert.Equal(t, "airquality", cfg.InfluxBucket)
}

func TestLoad_CustomEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("INGEST_SEPARATOR", ",")
	t.Setenv("INGEST_CHUNK_SIZE", "1000")
	t.Setenv("INGEST_TIMEZONE", "Europe/Rome")
	t.Setenv("PROGRESS_REPLAY_SIZE", "10")
	t.Setenv("JOB_RETENTION", "1h")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_PROGRESS_TOPIC", "custom-progress")
	t.Setenv("INFLUXDB_URL", "http://influx:8086")
	t.Setenv("INFLUXDB_TOKEN", "token")
	t.Setenv("INFLUXDB_ORG", "org")
	t.Setenv("INFLUXDB_BUCKET", "bucket")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, ',', cfg.IngestSeparator)
	assert.Equal(t, 1000, cfg.IngestChunkSize)
	assert.Equal(t, "Europe/Rome", cfg.IngestLocation.String())
	assert.Equal(t, 10, cfg.ProgressReplaySize)
	assert.Equal(t, time.Hour, cfg.JobRetention)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-progress", cfg.KafkaProgressTopic)
	assert.True(t, cfg.InfluxEnabled)
	assert.Equal(t, "http://influx:8086", cfg.InfluxURL)
	assert.Equal(t, "bucket", cfg.InfluxBucket)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidSeparator(t *testing.T) {
	setRequired(t)
	for _, sep := range []string{";;", `"`} {
		t.Setenv("INGEST_SEPARATOR", sep)
		_, err := Load()
		require.Error(t, err, "separator %q", sep)
		assert.Contains(t, err.Error(), "INGEST_SEPARATOR")
	}
}

func TestLoad_InvalidChunkSize(t *testing.T) {
	setRequired(t)
	t.Setenv("INGEST_CHUNK_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INGEST_CHUNK_SIZE")
}

func TestLoad_InvalidReplaySize(t *testing.T) {
	setRequired(t)
	t.Setenv("PROGRESS_REPLAY_SIZE", "-5")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROGRESS_REPLAY_SIZE")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("INGEST_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INGEST_TIMEZONE")
}

func TestLoad_InvalidRetention(t *testing.T) {
	setRequired(t)
	t.Setenv("JOB_RETENTION", "-1m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOB_RETENTION")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "broker:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_InfluxEnabledWithoutCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("INFLUXDB_URL", "http://influx:8086")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INFLUXDB_TOKEN")
}
