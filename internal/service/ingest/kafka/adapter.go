// Package kafka provides an ingest source that consumes evaluation documents from a
// Kafka topic as part of a consumer group.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"cdim-evaluator/internal/observability/logging"
	"cdim-evaluator/internal/observability/metrics"
	"cdim-evaluator/internal/service/ingest"
)

// FileNameHeader carries the original file name of a published document.
const FileNameHeader = "fileName"

// messageReader is the part of *kafka.Reader the adapter uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds consumer configuration.
type Config struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MaxBytes int
}

// Adapter implements ingest.Source over a Kafka consumer group.
// Messages are committed after the callback returns, so a document is delivered at
// least once.
type Adapter struct {
	reader     messageReader
	topic      string
	retryDelay time.Duration
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// New creates a Kafka ingest source.
func New(cfg Config) (*Adapter, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka ingest: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka ingest: no topic configured")
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: maxBytes,
		MaxWait:  500 * time.Millisecond,
		Dialer:   &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true},
	})
	return newAdapter(reader, cfg.Topic), nil
}

func newAdapter(reader messageReader, topic string) *Adapter {
	return &Adapter{
		reader:     reader,
		topic:      topic,
		retryDelay: time.Second,
		metrics:    metrics.DefaultMetrics,
		logger:     logging.WithComponent("ingest-kafka").With().Str("topic", topic).Logger(),
	}
}

// Name identifies the source.
func (a *Adapter) Name() string {
	return ingest.OriginKafka
}

// Run consumes messages until ctx is cancelled or the reader is closed.
func (a *Adapter) Run(ctx context.Context, cb ingest.Callback) error {
	a.logger.Info().Msg("Kafka ingest started")
	for {
		msg, err := a.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				a.logger.Info().Msg("Kafka ingest stopped")
				return nil
			}
			a.metrics.RecordIngestError(a.Name())
			cb.OnError(fmt.Errorf("fetch from %s: %w", a.topic, err))
			if !sleep(ctx, a.retryDelay) {
				return nil
			}
			continue
		}

		a.metrics.RecordIngest(a.Name())
		name := DocumentName(msg)
		a.logger.Debug().
			Str("fileName", name).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Int("bytes", len(msg.Value)).
			Msg("Document received")

		cb.OnDocument(ctx, ingest.Document{Name: name, Origin: ingest.OriginKafka, Data: msg.Value})

		if err := a.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			a.metrics.RecordIngestError(a.Name())
			cb.OnError(fmt.Errorf("commit offset %d: %w", msg.Offset, err))
		}
	}
}

// Close closes the reader, which stops Run.
func (a *Adapter) Close() error {
	return a.reader.Close()
}

// DocumentName picks the display name of a message: the fileName header, else the
// key, else the topic position.
func DocumentName(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == FileNameHeader && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	if len(msg.Key) > 0 {
		return string(msg.Key)
	}
	return fmt.Sprintf("%s-%d-%d.json", msg.Topic, msg.Partition, msg.Offset)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
