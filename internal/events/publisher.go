// Package events publishes evaluation audit events.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"cdim-evaluator/internal/models"
	"cdim-evaluator/internal/observability/metrics"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher publishes evaluation events to separate Kafka topics for loaded and
// rejected documents.
type Publisher struct {
	writerLoaded   messageWriter
	writerRejected messageWriter
	principal      string
	topicLoaded    string
	topicRejected  string
	enabled        bool
	metrics        *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers       []string
	TopicLoaded   string
	TopicRejected string
	Principal     string
	Enabled       bool
}

// New creates a Kafka event publisher. A nil or disabled config, or one without
// brokers, yields a publisher that only logs.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:     cfg.Principal,
			topicLoaded:   cfg.TopicLoaded,
			topicRejected: cfg.TopicRejected,
			metrics:       m,
		}
	}

	transport := &kafka.Transport{
		Dial: (&kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}).DialFunc,
	}
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicLoaded", cfg.TopicLoaded).
		Str("topicRejected", cfg.TopicRejected).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerLoaded:   newWriter(cfg.TopicLoaded),
		writerRejected: newWriter(cfg.TopicRejected),
		principal:      cfg.Principal,
		topicLoaded:    cfg.TopicLoaded,
		topicRejected:  cfg.TopicRejected,
		enabled:        true,
		metrics:        m,
	}
}

// Enabled reports whether events reach Kafka.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// PublishLoaded publishes a loaded event keyed by session id.
func (p *Publisher) PublishLoaded(ctx context.Context, event models.EvaluationLoaded) error {
	if event.EventType == "" {
		event.EventType = models.EventEvaluationLoaded
	}
	return p.publish(ctx, p.writerLoaded, p.topicLoaded, event.EventType, event.SessionID, event)
}

// PublishRejected publishes a rejected event keyed by file name.
func (p *Publisher) PublishRejected(ctx context.Context, event models.EvaluationRejected) error {
	if event.EventType == "" {
		event.EventType = models.EventEvaluationRejected
	}
	return p.publish(ctx, p.writerRejected, p.topicRejected, event.EventType, event.FileName, event)
}

func (p *Publisher) publish(ctx context.Context, writer messageWriter, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerLoaded != nil {
		if e := p.writerLoaded.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing loaded writer")
			err = e
		}
	}
	if p.writerRejected != nil {
		if e := p.writerRejected.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing rejected writer")
			err = e
		}
	}
	return err
}
