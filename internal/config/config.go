package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Ingest source names.
const (
	IngestNone  = "none"
	IngestKafka = "kafka"
	IngestMock  = "mock"
)

// Config holds all service configuration.
type Config struct {
	Service       ServiceConfig
	Upload        UploadConfig
	Kafka         KafkaConfig
	Ingest        IngestConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Principal       string
	HTTPPort        string
	Env             string
	ShutdownTimeout time.Duration
}

// UploadConfig bounds accepted evaluation documents.
type UploadConfig struct {
	MaxBytes int64
}

// KafkaConfig holds Kafka publisher and consumer configuration.
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	TopicLoaded   string
	TopicRejected string
	TopicIngest   string
	GroupID       string
	Principal     string
}

// IngestConfig selects where evaluations arrive from besides browser uploads.
type IngestConfig struct {
	Source string
}

// ObservabilityConfig holds logging and metrics configuration.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	LogFile     string
	MetricsAddr string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; variables already set win.
func Load() *Config {
	_ = godotenv.Load()

	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-cdim-evaluator")

	return &Config{
		Service: ServiceConfig{
			Principal:       principal,
			HTTPPort:        envOrDefault("HTTP_PORT", "8080"),
			Env:             envOrDefault("ENV", "local"),
			ShutdownTimeout: envOrDefaultDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Upload: UploadConfig{
			MaxBytes: envOrDefaultInt64("UPLOAD_MAX_BYTES", 2*1024*1024),
		},
		Kafka: KafkaConfig{
			Enabled:       envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:       envOrDefaultList("KAFKA_BROKERS", []string{"localhost:9092"}),
			TopicLoaded:   envOrDefault("KAFKA_TOPIC_LOADED", "cdim.evaluation.loaded"),
			TopicRejected: envOrDefault("KAFKA_TOPIC_REJECTED", "cdim.evaluation.rejected"),
			TopicIngest:   envOrDefault("KAFKA_TOPIC_INGEST", "cdim.evaluation.ingest"),
			GroupID:       envOrDefault("KAFKA_GROUP_ID", "cdim-evaluator"),
			Principal:     envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Ingest: IngestConfig{
			Source: envOrDefaultChoice("INGEST_SOURCE", IngestNone, IngestNone, IngestKafka, IngestMock),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			LogFile:     os.Getenv("LOG_FILE"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func envOrDefaultChoice(key, def string, allowed ...string) string {
	v := strings.ToLower(os.Getenv(key))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}
