package pipeline

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

// exit is swapped out in tests.
var exit = os.Exit

// WithSignals returns a context that is canceled on the first SIGINT or
// SIGTERM. A second signal exits the process immediately. Call stop to
// release the signal handler.
func WithSignals(parent context.Context, logger zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigChan:
		case <-done:
			return
		}
		logger.Info().Msg("Shutdown signal received, finishing current lookup")
		cancel()

		select {
		case <-sigChan:
		case <-done:
			return
		}
		logger.Warn().Msg("Second shutdown signal received, forcing exit")
		exit(1)
	}()

	stop := func() {
		signal.Stop(sigChan)
		select {
		case <-done:
		default:
			close(done)
		}
		cancel()
	}
	return ctx, stop
}
