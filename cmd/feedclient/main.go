package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/segmentio/kafka-go"

	"cdim-evaluator/internal/schema"
	ingestkafka "cdim-evaluator/internal/service/ingest/kafka"
)

// Publishes an evaluation document to the ingest topic so a running viewer with
// INGEST_SOURCE=kafka loads it.
func main() {
	file := flag.String("file", "internal/samples/contoso.json", "Path to evaluation JSON file")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "cdim.evaluation.ingest", "Ingest topic")
	name := flag.String("name", "", "Document name shown in the viewer (default: file base name)")
	check := flag.Bool("check", true, "Validate the document locally before publishing")
	flag.Parse()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read evaluation file: %v", err)
	}
	if *name == "" {
		*name = filepath.Base(*file)
	}

	if *check {
		if _, err := schema.New().Load(data); err != nil {
			log.Fatalf("Document is not a valid evaluation: %v", err)
		}
		log.Printf("Validated %s (%s)", *name, humanize.Bytes(uint64(len(data))))
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:        *topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(*name),
		Value: data,
		Headers: []kafka.Header{
			{Key: ingestkafka.FileNameHeader, Value: []byte(*name)},
		},
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		log.Fatalf("Failed to publish: %v", err)
	}

	log.Printf("Published %s to %s via %s", *name, *topic, *brokers)
}
