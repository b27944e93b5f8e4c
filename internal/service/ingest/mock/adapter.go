// Package mock provides a demo ingest source that replays the bundled sample
// evaluations without any broker.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cdim-evaluator/internal/samples"
	"cdim-evaluator/internal/service/ingest"
)

// Adapter implements ingest.Source by replaying sample documents at a fixed interval.
// After the last sample it idles until closed or cancelled.
type Adapter struct {
	names    []string
	interval time.Duration
	read     func(name string) ([]byte, error)

	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// New creates a replay source. With no names every bundled sample is replayed.
func New(interval time.Duration, names ...string) *Adapter {
	if len(names) == 0 {
		names = samples.Names()
	}
	return &Adapter{
		names:    names,
		interval: interval,
		read:     samples.Read,
		done:     make(chan struct{}),
	}
}

// Name identifies the source.
func (a *Adapter) Name() string {
	return ingest.OriginMock
}

// Run delivers each sample once, waiting interval before each delivery.
func (a *Adapter) Run(ctx context.Context, cb ingest.Callback) error {
	for _, name := range a.names {
		if !a.wait(ctx) {
			return nil
		}
		data, err := a.read(name)
		if err != nil {
			cb.OnError(fmt.Errorf("read sample %s: %w", name, err))
			continue
		}
		cb.OnDocument(ctx, ingest.Document{Name: name, Origin: ingest.OriginMock, Data: data})
	}

	select {
	case <-ctx.Done():
	case <-a.done:
	}
	return nil
}

// wait sleeps for the interval; it reports false if the source should stop.
func (a *Adapter) wait(ctx context.Context) bool {
	timer := time.NewTimer(a.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-a.done:
		return false
	case <-timer.C:
		return true
	}
}

// Close stops Run. Idempotent.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.closed {
		a.closed = true
		close(a.done)
	}
	return nil
}
