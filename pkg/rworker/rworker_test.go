package rworker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_Limit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		limit    int
		expected int32
	}{
		{name: "one", limit: 1, expected: 1},
		{name: "zero_is_one", limit: 0, expected: 1},
		{name: "four", limit: 4, expected: 4},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			var running, peak int32
			p := New(test.limit)
			for i := 0; i < 16; i++ {
				p.Go(context.Background(), func(context.Context) error {
					n := atomic.AddInt32(&running, 1)
					for {
						old := atomic.LoadInt32(&peak)
						if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
							break
						}
					}
					time.Sleep(5 * time.Millisecond)
					atomic.AddInt32(&running, -1)
					return nil
				})
			}
			if errs := p.Wait(); len(errs) != 0 {
				t.Fatalf("errs got: %v, expected: none", errs)
			}
			if got := atomic.LoadInt32(&peak); got > test.expected {
				t.Errorf("peak got: %d, expected at most: %d", got, test.expected)
			}
		})
	}
}

func TestPool_Errors(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")
	p := New(2)
	for i := 0; i < 5; i++ {
		i := i
		p.Go(context.Background(), func(context.Context) error {
			if i%2 == 0 {
				return errBoom
			}
			return nil
		})
	}
	if errs := p.Wait(); len(errs) != 3 {
		t.Errorf("errs got: %d, expected: 3", len(errs))
	}
	if errs := p.Wait(); len(errs) != 0 {
		t.Errorf("second wait got: %d, expected: 0", len(errs))
	}
}

func TestPool_CancelledWhileWaiting(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	started, release := make(chan struct{}), make(chan struct{})
	p := New(1)
	p.Go(ctx, func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started
	var ran int32
	p.Go(ctx, func(context.Context) error {
		atomic.StoreInt32(&ran, 1)
		return nil
	})
	time.Sleep(10 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)
	close(release)
	errs := p.Wait()
	if atomic.LoadInt32(&ran) != 0 {
		t.Errorf("queued job ran after cancel")
	}
	if len(errs) != 1 || !errors.Is(errs[0], context.Canceled) {
		t.Errorf("errs got: %v, expected: [%v]", errs, context.Canceled)
	}
}
