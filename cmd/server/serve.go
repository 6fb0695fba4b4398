package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/coinledger/internal/infrastructure/config"
	"github.com/iho/coinledger/internal/infrastructure/logger"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterMaxIdle         = 30 * time.Minute
)

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer a.close()
	log.Info().Str("store", cfg.StoreDriver).Msg("ledger ready")

	if a.rateLimiter != nil {
		go every(ctx, limiterCleanupInterval, func() {
			if n := a.rateLimiter.CleanupIdle(limiterMaxIdle); n > 0 {
				log.Debug().Int("clients", n).Msg("dropped idle rate limiters")
			}
		})
	}
	if cfg.ReconcileInterval > 0 {
		go every(ctx, cfg.ReconcileInterval, func() { a.reconcile(ctx, log) })
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// reconcile runs one reconciliation pass and publishes the result as metrics.
func (a *app) reconcile(ctx context.Context, log zerolog.Logger) {
	report, err := a.reconciliation.GenerateReconciliationReport(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reconciliation failed")
		return
	}

	a.metrics.ObserveReconciliation(report.LedgerConsistent, len(report.Discrepancies))

	if !report.LedgerConsistent || len(report.Discrepancies) > 0 {
		log.Warn().
			Bool("ledger_consistent", report.LedgerConsistent).
			Int("discrepancies", len(report.Discrepancies)).
			Msg("ledger out of balance")
	}
}

func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
