// Package ingest defines sources that deliver evaluation documents from outside the
// browser upload form.
package ingest

import "context"

// Origins recorded for documents and their metrics.
const (
	OriginUpload = "upload"
	OriginAPI    = "api"
	OriginKafka  = "kafka"
	OriginMock   = "mock"
)

// Document is one raw evaluation document as received.
type Document struct {
	Name   string
	Origin string
	Data   []byte
}

// Callback receives documents from a source.
type Callback interface {
	// OnDocument is called once per received document, in arrival order.
	OnDocument(ctx context.Context, doc Document)

	// OnError is called when the source fails to receive a document. The source keeps running.
	OnError(err error)
}

// Source defines the interface for document feeds (Kafka topic, demo replay, ...).
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string

	// Run delivers documents to cb until ctx is cancelled or the source is closed.
	Run(ctx context.Context, cb Callback) error

	// Close releases resources and stops Run.
	Close() error
}
