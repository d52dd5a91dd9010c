// Package shutdown provides a context that is cancelled on interrupt.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// New returns a context that is cancelled when the process receives SIGINT
// or SIGTERM, and a function to release the signal handler.
func New() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-signalCh:
		case <-ctx.Done():
		}
		cancel()
	}()

	return ctx, func() {
		signal.Stop(signalCh)
		cancel()
	}
}
