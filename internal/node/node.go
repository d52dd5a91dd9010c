// Package node simulates the sensor node: it refreshes a synthetic reading on
// a fixed period and serves the latest one by value.
package node

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/go-sod/sensord/internal/logging"
	"github.com/go-sod/sensord/internal/metrics"
	"github.com/go-sod/sensord/internal/reading/model"
)

const DefaultInterval = time.Second

// Generator produces one reading per call. It is only called from the
// refresher goroutine and the constructor.
type Generator interface {
	Next() model.Reading
}

// Publisher forwards generated readings to an external bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type Option func(*Source)

func WithInterval(t time.Duration) Option {
	return func(s *Source) {
		s.interval = t
	}
}

func WithPublisher(p Publisher, topic string) Option {
	return func(s *Source) {
		s.publisher = p
		s.topic = topic
	}
}

func New(gen Generator, opts ...Option) *Source {
	s := &Source{
		gen:      gen,
		interval: DefaultInterval,
	}
	for _, f := range opts {
		f(s)
	}
	s.current.Store(gen.Next())
	return s
}

// Source is safe for any number of concurrent readers.
type Source struct {
	current   atomic.Value
	gen       Generator
	interval  time.Duration
	publisher Publisher
	topic     string
}

// Current returns the latest snapshot. It never blocks on the refresher.
func (s *Source) Current() model.Reading {
	return s.current.Load().(model.Reading)
}

// Run refreshes the snapshot every interval until ctx is done.
func (s *Source) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r := s.gen.Next()
			s.current.Store(r)
			metrics.RecordGenerated(ctx)
			s.publish(ctx, r)
		case <-ctx.Done():
			logger.Debugf("node refresher stopped")
			return nil
		}
	}
}

func (s *Source) publish(ctx context.Context, r model.Reading) {
	if s.publisher == nil {
		return
	}
	logger := logging.FromContext(ctx)
	payload, err := json.Marshal(r)
	if err != nil {
		logger.Errorf("unable encode reading: %v", err)
		return
	}
	if err := s.publisher.Publish(ctx, s.topic, payload); err != nil {
		logger.Warnf("unable publish reading to %s: %v", s.topic, err)
	}
}
