package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// withSignals returns a context that ends on SIGINT or SIGTERM
func withSignals(ctx context.Context, log *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signalChan)

		select {
		case <-signalChan:
			log.Info("caught SIGINT or SIGTERM, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
