package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finwise/internal/cli"
	"finwise/internal/log"
	"finwise/internal/notify"
)

// sessionSweepInterval is how often expired sessions are purged.
const sessionSweepInterval = time.Hour

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentNotifier)

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notifier",
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()
	if be.Consumer == nil {
		logger.Error("Message broker unavailable", "exchange", cfg.AMQPExchange)
		os.Exit(1)
	}

	handler := notify.NewHandler(be.Store, be.Store, be.Store, nil, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		return be.Consumer.Consume(gctx, handler.Handle)
	})
	g.Go(func() error {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := be.Store.DeleteExpiredSessions(gctx)
				if err != nil {
					logger.Warn("Session sweep failed", log.FieldError, err)
					continue
				}
				if n > 0 {
					logger.Info("Expired sessions removed", "count", n)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Notifier stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Notifier stopped")
}
