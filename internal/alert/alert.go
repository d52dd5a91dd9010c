// Package alert batches anomalous readings and delivers them to the
// configured sinks. Delivery is at least once: an alert stays queued until
// every sink acknowledged it, and the queue survives restarts.
package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	alertDb "github.com/go-sod/sensord/internal/alert/database"
	"github.com/go-sod/sensord/internal/alert/model"
	"github.com/go-sod/sensord/internal/alert/sink"
	"github.com/go-sod/sensord/internal/logging"
	"github.com/go-sod/sensord/internal/metrics"
	readingModel "github.com/go-sod/sensord/internal/reading/model"
	"github.com/go-sod/sensord/pkg/rworker"
)

type ProvideFn = func() (Manager, error)

type Option func(*manager)

func WithMaxConcurrentRequest(n int) Option {
	return func(m *manager) {
		m.maxConcurrentRequest = n
	}
}

func WithInterval(t time.Duration) Option {
	return func(m *manager) {
		m.interval = t
	}
}

func WithRequestTimeout(t time.Duration) Option {
	return func(m *manager) {
		m.requestTimeout = t
	}
}

type Notifier interface {
	Notify(rows ...readingModel.LabeledReading)
}

type Manager interface {
	Notifier
	// Run flushes buffered alerts every interval until ctx is done, then
	// persists whatever has not been delivered.
	Run(ctx context.Context) error
}

func New(db *alertDb.DB, sinks []sink.Sink, opts ...Option) (*manager, error) {
	if len(sinks) == 0 {
		return nil, fmt.Errorf("alert manager requires at least one sink")
	}
	m := &manager{
		alertDb:              db,
		sinks:                map[string]sink.Sink{},
		interval:             5 * time.Second,
		requestTimeout:       5 * time.Second,
		maxConcurrentRequest: 8,
	}
	for _, s := range sinks {
		if _, ok := m.sinks[s.Name()]; ok {
			return nil, fmt.Errorf("duplicate sink name %q", s.Name())
		}
		m.sinks[s.Name()] = s
		m.names = append(m.names, s.Name())
	}
	for _, f := range opts {
		f(m)
	}
	if m.maxConcurrentRequest < 1 {
		m.maxConcurrentRequest = 1
	}
	return m, nil
}

type manager struct {
	mtx      sync.Mutex
	buffered []readingModel.LabeledReading

	alertDb *alertDb.DB
	sinks   map[string]sink.Sink
	names   []string
	// queue is owned by the Run goroutine.
	queue []model.Alert

	interval             time.Duration
	requestTimeout       time.Duration
	maxConcurrentRequest int
}

func (m *manager) Notify(rows ...readingModel.LabeledReading) {
	m.mtx.Lock()
	m.buffered = append(m.buffered, rows...)
	m.mtx.Unlock()
}

func (m *manager) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	// requeue must finish even when stop was requested during startup
	if err := m.initialize(context.WithoutCancel(ctx)); err != nil {
		return errors.Join(fmt.Errorf("can not start alert manager: %w", err), m.shutdown())
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.flush(ctx)
		case <-ctx.Done():
			logger.Info("alert manager stopping")
			return m.shutdown()
		}
	}
}

// initialize requeues the alerts persisted by the previous shutdown.
func (m *manager) initialize(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	alerts, err := m.alertDb.FindAll(ctx)
	if err != nil {
		return err
	}
	for i := range alerts {
		remaining := alerts[i].Remaining[:0]
		for _, name := range alerts[i].Remaining {
			if _, ok := m.sinks[name]; ok {
				remaining = append(remaining, name)
			} else {
				logger.Warnf("alert %s: sink %q is no longer configured", alerts[i].ID, name)
			}
		}
		alerts[i].Remaining = remaining
		if !alerts[i].Done() {
			m.queue = append(m.queue, alerts[i])
		}
	}
	if err := m.alertDb.Delete(ctx, alerts...); err != nil {
		return fmt.Errorf("unable delete alerts on initialize: %w", err)
	}
	if len(m.queue) > 0 {
		logger.Infof("requeued %d pending alerts", len(m.queue))
	}
	return nil
}

func (m *manager) takeBuffered() {
	m.mtx.Lock()
	rows := m.buffered
	m.buffered = nil
	m.mtx.Unlock()
	if len(rows) > 0 {
		m.queue = append(m.queue, model.NewAlert(rows, append([]string(nil), m.names...)))
	}
}

func (m *manager) flush(ctx context.Context) {
	logger := logging.FromContext(ctx)
	m.takeBuffered()
	if len(m.queue) == 0 {
		return
	}

	type delivery struct {
		alert int
		sink  string
	}
	var (
		mtx       sync.Mutex
		delivered []delivery
	)
	pool := rworker.New(m.maxConcurrentRequest)
	for i := range m.queue {
		alert := m.queue[i]
		idx := i
		for _, name := range alert.Remaining {
			s := m.sinks[name]
			pool.Go(ctx, func(ctx context.Context) error {
				sendCtx, cancel := context.WithTimeout(ctx, m.requestTimeout)
				defer cancel()
				if err := s.Send(sendCtx, alert); err != nil {
					return fmt.Errorf("alert %s to %s: %w", alert.ID, s.Name(), err)
				}
				metrics.RecordAlertsSent(ctx, s.Name(), len(alert.Readings))
				mtx.Lock()
				delivered = append(delivered, delivery{alert: idx, sink: s.Name()})
				mtx.Unlock()
				return nil
			})
		}
	}
	for _, err := range pool.Wait() {
		logger.Errorf("alert error: %v", err)
	}

	for _, d := range delivered {
		m.queue[d.alert].Delivered(d.sink)
	}
	pending := m.queue[:0]
	for i := range m.queue {
		if !m.queue[i].Done() {
			pending = append(pending, m.queue[i])
		}
	}
	m.queue = pending
}

func (m *manager) shutdown() error {
	m.takeBuffered()
	defer func() {
		for _, s := range m.sinks {
			_ = s.Close()
		}
	}()
	if len(m.queue) == 0 {
		return nil
	}
	if err := m.alertDb.Store(context.Background(), m.queue...); err != nil {
		return fmt.Errorf("alert shutdown: unable store alerts: %w", err)
	}
	return nil
}
