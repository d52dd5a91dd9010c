// Package srvenv holds the resources built at startup and shared by the
// service components.
package srvenv

import (
	"context"
	"errors"

	"github.com/go-sod/sensord/internal/alert"
	"github.com/go-sod/sensord/internal/database"
	"github.com/go-sod/sensord/internal/predictor"
	"github.com/go-sod/sensord/internal/reading"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

// StoreCloser is a reading store owning resources beyond the bolt database.
type StoreCloser interface {
	reading.Store
	Close(ctx context.Context) error
}

type SrvEnv struct {
	database  *database.DB
	store     reading.Store
	predictor predictor.ProvideFn
	notifier  alert.ProvideFn
}

func (s *SrvEnv) ProvideNotifier() alert.ProvideFn {
	return s.notifier
}

func (s *SrvEnv) ProvidePredictor() predictor.ProvideFn {
	return s.predictor
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func (s *SrvEnv) Store() reading.Store {
	return s.store
}

func WithNotifier(fn alert.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.notifier = fn
		return s
	}
}

func WithPredictor(fn predictor.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.predictor = fn
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func WithStore(store reading.Store) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.store = store
		return s
	}
}

// Close releases the store and then the database.
func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs []error
	if c, ok := s.store.(StoreCloser); ok {
		errs = append(errs, c.Close(ctx))
	}
	if s.database != nil {
		errs = append(errs, s.database.Close(ctx))
	}
	return errors.Join(errs...)
}
