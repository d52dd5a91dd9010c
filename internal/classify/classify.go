// Package classify validates readings, labels them with a predictor and
// records the result in the reading log.
package classify

import (
	"context"
	"time"

	"github.com/go-sod/sensord/internal/logging"
	"github.com/go-sod/sensord/internal/metrics"
	"github.com/go-sod/sensord/internal/predictor"
	"github.com/go-sod/sensord/internal/reading"
	"github.com/go-sod/sensord/internal/reading/model"
)

const DefaultMaxLimit = 100

// Notifier receives anomalous rows after they have been persisted. Notify must
// not block.
type Notifier interface {
	Notify(rows ...model.LabeledReading)
}

type Predicter interface {
	Predict(ctx context.Context, r model.Reading) (bool, error)
}

type Historian interface {
	LatestReadings(ctx context.Context, limit int) ([]model.LabeledReading, error)
	LatestAnomalies(ctx context.Context, limit int) ([]model.LabeledReading, error)
}

var (
	_ Predicter = (*Service)(nil)
	_ Historian = (*Service)(nil)
)

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithMaxLimit(n int) Option {
	return func(s *Service) {
		s.maxLimit = n
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func New(store reading.Store, p predictor.Predictor, opts ...Option) *Service {
	s := &Service{
		store:     store,
		predictor: p,
		now:       time.Now,
		maxLimit:  DefaultMaxLimit,
	}
	for _, f := range opts {
		f(s)
	}
	return s
}

// Service is safe for concurrent use. Predict is its only mutating operation.
type Service struct {
	store     reading.Store
	predictor predictor.Predictor
	notifier  Notifier
	now       func() time.Time
	maxLimit  int
}

// Predict classifies r and appends the labeled row to the log. The label is
// returned only once the row is durable.
func (s *Service) Predict(ctx context.Context, r model.Reading) (bool, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()
	if err := r.Validate(); err != nil {
		return false, &ValidationError{Err: err}
	}

	isAnomaly, err := s.predictor.Predict(ctx, r)
	if err != nil {
		return false, &ClassifierError{Err: err}
	}

	row := model.NewLabeledReading(r, isAnomaly, s.now())
	if err := s.store.Append(ctx, &row); err != nil {
		metrics.RecordAppendError(ctx)
		return false, &PersistenceError{Err: err}
	}
	metrics.RecordPrediction(ctx, isAnomaly, time.Since(start))
	logger.Debugf("reading %s labeled is_anomaly=%v", row.ID, isAnomaly)

	if isAnomaly && s.notifier != nil {
		s.notifier.Notify(row)
	}
	return isAnomaly, nil
}

func (s *Service) LatestReadings(ctx context.Context, limit int) ([]model.LabeledReading, error) {
	return s.latest(ctx, limit, false)
}

func (s *Service) LatestAnomalies(ctx context.Context, limit int) ([]model.LabeledReading, error) {
	return s.latest(ctx, limit, true)
}

// Count reports the number of rows in the log.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

func (s *Service) latest(ctx context.Context, limit int, anomaliesOnly bool) ([]model.LabeledReading, error) {
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	if limit <= 0 {
		return []model.LabeledReading{}, nil
	}
	rows, err := s.store.Latest(ctx, limit, anomaliesOnly)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	return rows, nil
}
