package app

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"cdim-evaluator/internal/config"
	"cdim-evaluator/internal/events"
	"cdim-evaluator/internal/observability/logging"
	"cdim-evaluator/internal/observability/metrics"
	"cdim-evaluator/internal/schema"
	"cdim-evaluator/internal/service/ingest"
	kafkaingest "cdim-evaluator/internal/service/ingest/kafka"
	"cdim-evaluator/internal/service/ingest/mock"
	"cdim-evaluator/internal/service/session"
	"cdim-evaluator/internal/service/upload"
)

// mockInterval paces the demo replay source.
const mockInterval = 3 * time.Second

// Application holds process-wide state for the viewer.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Config

	Validator *schema.Validator
	Store     *session.Store
	Uploads   *upload.Handler
	Publisher *events.Publisher
	Metrics   *metrics.Metrics

	mu        sync.RWMutex
	listeners []func(session.Change)
	ready     atomic.Bool
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Config) *Application {
	a := &Application{
		Cfg:       cfg,
		Logger:    logging.WithComponent("application"),
		Validator: schema.New(),
		Store:     session.NewStore(),
		Metrics:   metrics.DefaultMetrics,
		Publisher: events.New(&events.Config{
			Brokers:       cfg.Kafka.Brokers,
			TopicLoaded:   cfg.Kafka.TopicLoaded,
			TopicRejected: cfg.Kafka.TopicRejected,
			Principal:     cfg.Kafka.Principal,
			Enabled:       cfg.Kafka.Enabled,
		}),
	}
	a.Uploads = upload.NewHandlerWithLimits(a.Validator, a.Store, a.Publisher,
		upload.Limits{MaxBytes: cfg.Upload.MaxBytes})
	a.Store.SetChangeCallback(a.onChange)

	a.Logger.Info().
		Str("method", "New").
		Strs("schemaRevisions", a.Validator.Revisions()).
		Bool("kafkaEnabled", a.Publisher.Enabled()).
		Str("ingestSource", cfg.Ingest.Source).
		Msg("CDIM evaluator application created")
	return a
}

// Subscribe registers fn to receive every session store change.
func (a *Application) Subscribe(fn func(session.Change)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

func (a *Application) onChange(c session.Change) {
	switch c.Kind {
	case session.ChangeLoaded:
		a.Metrics.SetSessionActive(true)
	case session.ChangeDiscarded:
		a.Metrics.SetSessionActive(false)
	}

	a.mu.RLock()
	listeners := append([]func(session.Change){}, a.listeners...)
	a.mu.RUnlock()
	for _, fn := range listeners {
		fn(c)
	}
}

// IngestSource builds the configured document feed. It returns nil when no feed is
// configured.
func (a *Application) IngestSource() (ingest.Source, error) {
	switch a.Cfg.Ingest.Source {
	case config.IngestKafka:
		src, err := kafkaingest.New(kafkaingest.Config{
			Brokers:  a.Cfg.Kafka.Brokers,
			Topic:    a.Cfg.Kafka.TopicIngest,
			GroupID:  a.Cfg.Kafka.GroupID,
			MaxBytes: int(a.Cfg.Upload.MaxBytes),
		})
		if err != nil {
			return nil, fmt.Errorf("kafka ingest source: %w", err)
		}
		return src, nil
	case config.IngestMock:
		return mock.New(mockInterval), nil
	default:
		return nil, nil
	}
}

// Ready reports whether Start has completed and Shutdown has not begun.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.ready.Store(true)
	a.Logger.Info().
		Str("method", "Start").
		Time("startupTime", a.StartupTime).
		Str("env", a.Cfg.Service.Env).
		Msg("CDIM evaluator starting")
	return nil
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.ready.Store(false)
	if err := a.Publisher.Close(); err != nil {
		a.Logger.Warn().Err(err).Str("method", "Shutdown").Msg("Failed to close event publisher")
	}
	a.Logger.Info().Str("method", "Shutdown").Msg("CDIM evaluator shutting down")
}
