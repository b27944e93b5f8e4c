package config

import (
	"os"
	"testing"
	"time"
)

var envVars = []string{
	"SERVICE_PRINCIPAL", "HTTP_PORT", "ENV", "SHUTDOWN_TIMEOUT", "UPLOAD_MAX_BYTES",
	"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_LOADED", "KAFKA_TOPIC_REJECTED",
	"KAFKA_TOPIC_INGEST", "KAFKA_GROUP_ID", "KAFKA_PRINCIPAL", "INGEST_SOURCE",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "METRICS_ADDR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	// Service defaults
	if cfg.Service.Principal != "svc-cdim-evaluator" {
		t.Errorf("expected default principal 'svc-cdim-evaluator', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default port '8080', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Service.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected default shutdown timeout 10s, got %v", cfg.Service.ShutdownTimeout)
	}

	// Upload defaults
	if cfg.Upload.MaxBytes != 2*1024*1024 {
		t.Errorf("expected default max bytes 2MiB, got %d", cfg.Upload.MaxBytes)
	}

	// Kafka defaults
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka to be disabled by default")
	}
	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "localhost:9092" {
		t.Errorf("expected default broker localhost:9092, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Kafka.TopicLoaded != "cdim.evaluation.loaded" {
		t.Errorf("expected default loaded topic, got %s", cfg.Kafka.TopicLoaded)
	}
	if cfg.Kafka.TopicRejected != "cdim.evaluation.rejected" {
		t.Errorf("expected default rejected topic, got %s", cfg.Kafka.TopicRejected)
	}

	// Ingest defaults
	if cfg.Ingest.Source != IngestNone {
		t.Errorf("expected default ingest source 'none', got %s", cfg.Ingest.Source)
	}

	// Observability defaults
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Observability.LogFormat != "json" {
		t.Errorf("expected default log format 'json', got %s", cfg.Observability.LogFormat)
	}
	if cfg.Observability.MetricsAddr != ":9090" {
		t.Errorf("expected default metrics addr ':9090', got %s", cfg.Observability.MetricsAddr)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("UPLOAD_MAX_BYTES", "1048576")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("INGEST_SOURCE", "Kafka")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FILE", "/var/log/cdim.log")

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Service.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected shutdown timeout 30s, got %v", cfg.Service.ShutdownTimeout)
	}
	if cfg.Upload.MaxBytes != 1048576 {
		t.Errorf("expected max bytes 1048576, got %d", cfg.Upload.MaxBytes)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka to be enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("expected two trimmed brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Ingest.Source != IngestKafka {
		t.Errorf("expected ingest source 'kafka', got %s", cfg.Ingest.Source)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Observability.LogFile != "/var/log/cdim.log" {
		t.Errorf("expected log file, got %s", cfg.Observability.LogFile)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPLOAD_MAX_BYTES", "invalid")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	t.Setenv("KAFKA_ENABLED", "maybe")
	t.Setenv("KAFKA_BROKERS", " , ")
	t.Setenv("INGEST_SOURCE", "ftp")

	cfg := Load()

	// Should fall back to defaults on parse errors
	if cfg.Upload.MaxBytes != 2*1024*1024 {
		t.Errorf("expected default max bytes on invalid input, got %d", cfg.Upload.MaxBytes)
	}
	if cfg.Service.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected default shutdown timeout on invalid input, got %v", cfg.Service.ShutdownTimeout)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected default Kafka enabled on invalid input")
	}
	if len(cfg.Kafka.Brokers) != 1 {
		t.Errorf("expected default brokers on invalid input, got %v", cfg.Kafka.Brokers)
	}
	if cfg.Ingest.Source != IngestNone {
		t.Errorf("expected default ingest source on invalid input, got %s", cfg.Ingest.Source)
	}
}

func TestLoad_NonPositiveMaxBytes_FallsBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPLOAD_MAX_BYTES", "-5")

	cfg := Load()

	if cfg.Upload.MaxBytes != 2*1024*1024 {
		t.Errorf("expected default max bytes, got %d", cfg.Upload.MaxBytes)
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVICE_PRINCIPAL", "my-service")

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL_VAR", tt.envValue)

			got := envOrDefaultBool("TEST_BOOL_VAR", tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}
