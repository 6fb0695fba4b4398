package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iho/coinledger/internal/adapter/http/dto"
	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/infrastructure/auth"
	"github.com/iho/coinledger/internal/infrastructure/config"
	"github.com/iho/coinledger/internal/infrastructure/logger"
	"github.com/iho/coinledger/internal/infrastructure/postgres"
)

type migrateDirection int

const (
	migrateUp migrateDirection = iota
	migrateDown
	migrateVersion
)

func runMigrate(out io.Writer, direction migrateDirection) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	g, err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		return err
	}
	defer g.Close()

	switch direction {
	case migrateUp:
		applied, err := g.Up()
		if err != nil {
			return err
		}
		if !applied {
			fmt.Fprintln(out, "schema is up to date")
			return nil
		}
		fmt.Fprintln(out, "migrations applied")
	case migrateDown:
		if err := g.Down(); err != nil {
			return err
		}
		fmt.Fprintln(out, "migrations rolled back")
	case migrateVersion:
		version, dirty, err := g.Version()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "version %d (dirty: %v)\n", version, dirty)
	}

	return nil
}

// errOutOfBalance makes the reconcile command exit non-zero.
var errOutOfBalance = errors.New("ledger out of balance")

func runReconcile(ctx context.Context, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The report is printed; the HTTP server is not started.
	cfg.RedisEnabled = false
	cfg.RateLimitEnabled = false

	log := logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, io.Discard)

	a, err := buildApp(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.reconciliation.GenerateReconciliationReport(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dto.ReconciliationFromUseCase(report)); err != nil {
		return err
	}

	if !report.LedgerConsistent || len(report.Discrepancies) > 0 {
		return errOutOfBalance
	}

	return nil
}

func runToken(out io.Writer, callerID, role string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required to issue tokens")
	}

	if err := domain.ValidateExternalID(callerID); err != nil {
		return err
	}

	token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration).Generate(callerID, domain.Role(role))
	if err != nil {
		return err
	}

	fmt.Fprintln(out, token)
	return nil
}
