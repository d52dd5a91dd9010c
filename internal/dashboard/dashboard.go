// Package dashboard runs the refresh loop: it pulls the node's reading,
// submits it for classification, pulls the recent history and renders the
// result. A failing step never aborts the cycle or the loop.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/go-sod/sensord/internal/logging"
	"github.com/go-sod/sensord/internal/reading/model"
)

const ReadingsLimit = 10

type Node interface {
	NodeData(ctx context.Context) (model.Reading, error)
}

type Service interface {
	Predict(ctx context.Context, r model.Reading) (bool, error)
	LatestReadings(ctx context.Context, limit int) ([]model.LabeledReading, error)
	LatestAnomalies(ctx context.Context, limit int) ([]model.LabeledReading, error)
}

type Display interface {
	Render(s State) error
}

type Option func(*Loop)

func WithInterval(t time.Duration) Option {
	return func(l *Loop) {
		l.interval = t
	}
}

func WithMaxBackoff(t time.Duration) Option {
	return func(l *Loop) {
		l.maxBackoff = t
	}
}

func WithAnomalyLimit(n int) Option {
	return func(l *Loop) {
		l.anomalyLimit = n
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		l.now = now
	}
}

func New(node Node, svc Service, display Display, opts ...Option) *Loop {
	l := &Loop{
		node:         node,
		svc:          svc,
		display:      display,
		interval:     time.Second,
		maxBackoff:   10 * time.Second,
		anomalyLimit: 5,
		now:          time.Now,
	}
	for _, f := range opts {
		f(l)
	}
	return l
}

type Loop struct {
	node    Node
	svc     Service
	display Display

	interval     time.Duration
	maxBackoff   time.Duration
	anomalyLimit int
	now          func() time.Time

	mtx      sync.Mutex
	state    State
	failures int
}

// CycleError lists the steps that failed in one cycle.
type CycleError struct {
	Errors map[Step]error
}

func (e *CycleError) Error() string {
	steps := make([]string, 0, len(e.Errors))
	for s, err := range e.Errors {
		steps = append(steps, fmt.Sprintf("%s: %v", s, err))
	}
	sort.Strings(steps)
	return "dashboard cycle: " + strings.Join(steps, "; ")
}

func (l *Loop) State() State {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.state.clone()
}

// Cycle runs one refresh and renders the resulting state.
func (l *Loop) Cycle(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	l.mtx.Lock()
	next := l.state.clone()
	l.mtx.Unlock()
	next.Cycle++
	next.Errors = map[Step]error{}

	if r, err := l.node.NodeData(ctx); err != nil {
		next.Errors[StepNode] = err
	} else {
		next.Current = r
		if isAnomaly, err := l.svc.Predict(ctx, r); err != nil {
			next.Errors[StepPredict] = err
		} else {
			next.Status = statusOf(isAnomaly)
		}
	}

	var (
		readings, anomalies       []model.LabeledReading
		readingsErr, anomaliesErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		readings, readingsErr = l.svc.LatestReadings(gctx, ReadingsLimit)
		return nil
	})
	g.Go(func() error {
		anomalies, anomaliesErr = l.svc.LatestAnomalies(gctx, l.anomalyLimit)
		return nil
	})
	_ = g.Wait()
	if readingsErr != nil {
		next.Errors[StepReadings] = readingsErr
	} else {
		next.Readings = readings
	}
	if anomaliesErr != nil {
		next.Errors[StepAnomalies] = anomaliesErr
	} else {
		next.Anomalies = anomalies
	}
	next.UpdatedAt = l.now()

	if err := l.display.Render(next); err != nil {
		next.Errors[StepRender] = err
	}
	for step, err := range next.Errors {
		logger.Warnf("dashboard step %s failed: %v", step, err)
	}

	l.mtx.Lock()
	l.state = next
	if len(next.Errors) > 0 {
		l.failures++
	} else {
		l.failures = 0
	}
	l.mtx.Unlock()

	if len(next.Errors) > 0 {
		return &CycleError{Errors: next.Errors}
	}
	return nil
}

// Run repeats Cycle until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	for {
		_ = l.Cycle(ctx)
		wait := l.wait()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Debugf("dashboard loop stopped")
			return nil
		case <-timer.C:
		}
	}
}

// wait doubles the interval for every consecutive failed cycle, up to
// maxBackoff.
func (l *Loop) wait() time.Duration {
	l.mtx.Lock()
	failures := l.failures
	l.mtx.Unlock()
	wait := l.interval
	for i := 0; i < failures && wait < l.maxBackoff; i++ {
		wait *= 2
	}
	if wait > l.maxBackoff {
		wait = l.maxBackoff
	}
	return wait
}
