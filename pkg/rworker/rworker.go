// Package rworker runs jobs on goroutines with a bound on how many run at
// once.
package rworker

import (
	"context"
	"sync"
)

type Pool struct {
	wg   sync.WaitGroup
	rate chan struct{}

	mtx  sync.Mutex
	errs []error
}

// New returns a pool running at most limit jobs concurrently. A limit below
// one is treated as one.
func New(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{rate: make(chan struct{}, limit)}
}

// Go schedules fn. A job still waiting for a slot when ctx is done is not
// run and reports ctx.Err() instead.
func (p *Pool) Go(ctx context.Context, fn func(context.Context) error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		select {
		case p.rate <- struct{}{}:
		case <-ctx.Done():
			p.fail(ctx.Err())
			return
		}
		defer func() { <-p.rate }()
		if err := fn(ctx); err != nil {
			p.fail(err)
		}
	}()
}

// Wait blocks until every scheduled job returns and hands back their errors.
// The pool can be reused afterwards.
func (p *Pool) Wait() []error {
	p.wg.Wait()
	p.mtx.Lock()
	defer p.mtx.Unlock()
	errs := p.errs
	p.errs = nil
	return errs
}

func (p *Pool) fail(err error) {
	p.mtx.Lock()
	p.errs = append(p.errs, err)
	p.mtx.Unlock()
}
