package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/coinledger/internal/adapter/command"
	httpAdapter "github.com/iho/coinledger/internal/adapter/http"
	"github.com/iho/coinledger/internal/adapter/http/handler"
	"github.com/iho/coinledger/internal/adapter/http/middleware"
	"github.com/iho/coinledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/coinledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/coinledger/internal/adapter/repository/redis"
	"github.com/iho/coinledger/internal/infrastructure/auth"
	"github.com/iho/coinledger/internal/infrastructure/config"
	applog "github.com/iho/coinledger/internal/infrastructure/logger"
	"github.com/iho/coinledger/internal/infrastructure/logging"
	"github.com/iho/coinledger/internal/infrastructure/metrics"
	"github.com/iho/coinledger/internal/infrastructure/postgres"
	"github.com/iho/coinledger/internal/infrastructure/redis"
	"github.com/iho/coinledger/internal/usecase"
)

// stores is one storage backend for the ledger.
type stores struct {
	txManager usecase.TransactionManager
	accounts  usecase.AccountRepository
	catalog   usecase.CatalogRepository
	ownership usecase.OwnershipRepository
	entries   usecase.EntryRepository
	ledger    usecase.LedgerRepository
	idGen     usecase.IDGenerator
	retrier   usecase.Retrier
	checks    map[string]handler.Pinger
	close     func()
}

func openStores(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return openMemory(cfg), nil
	}
	return openPostgres(ctx, cfg, m)
}

func openMemory(cfg *config.Config) *stores {
	store := memory.NewStore(memory.WithLockTimeout(cfg.DatabaseLockTimeout))

	return &stores{
		txManager: memory.NewTxManager(store),
		accounts:  memory.NewAccountRepository(store),
		catalog:   memory.NewCatalogRepository(store),
		ownership: memory.NewOwnershipRepository(store),
		entries:   memory.NewEntryRepository(store),
		ledger:    memory.NewLedgerRepository(store),
		idGen:     postgresRepo.NewULIDGenerator(),
		checks:    map[string]handler.Pinger{},
		close:     func() {},
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*stores, error) {
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
		LockTimeout:    cfg.DatabaseLockTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	retryLogger := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	return &stores{
		txManager: postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(cfg.DatabaseLockTimeout)),
		accounts:  postgresRepo.NewAccountRepository(pool),
		catalog:   postgresRepo.NewCatalogRepository(pool),
		ownership: postgresRepo.NewOwnershipRepository(pool),
		entries:   postgresRepo.NewEntryRepository(pool),
		ledger:    postgresRepo.NewLedgerRepository(pool),
		idGen:     postgresRepo.NewULIDGenerator(),
		retrier: postgresRepo.NewRetrier(
			postgresRepo.WithMaxRetries(cfg.TxMaxRetries),
			postgresRepo.WithRetryLogger(retryLogger),
			postgresRepo.WithOnRetry(m.ObserveRetry),
		),
		checks: map[string]handler.Pinger{"postgres": pool},
		close:  pool.Close,
	}, nil
}

// app is the wired server.
type app struct {
	handler        http.Handler
	rateLimiter    *middleware.RateLimiter
	reconciliation *usecase.ReconciliationUseCase
	metrics        *metrics.Metrics
	close          func()
}

func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg prometheus.Registerer) (*app, error) {
	m := metrics.NewWithRegisterer(reg)

	st, err := openStores(ctx, cfg, m)
	if err != nil {
		return nil, err
	}
	closers := []func(){st.close}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	catalog := st.catalog
	routerOpts := []command.RouterOption{
		command.WithMetrics(m),
		command.WithLogger(applog.Component(logger, "command")),
	}

	if cfg.RedisEnabled {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL,
			redis.WithPoolSize(cfg.RedisPoolSize),
			redis.WithKeyTimeouts(cfg.RedisTimeout),
		)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		logger.Info().Msg("connected to redis")

		catalog = redisRepo.NewCachedCatalogRepository(st.catalog, redisRepo.NewCache(redisClient), cfg.CatalogCacheTTL, applog.Component(logger, "catalog_cache"))
		routerOpts = append(routerOpts, command.WithIdempotencyStore(redisRepo.NewIdempotencyStore(redisClient), cfg.IdempotencyTTL))
		st.checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	ledgerOpts := []usecase.LedgerOption{
		usecase.WithStartingBalance(cfg.StartingBalance),
		usecase.WithTransactionTimeout(cfg.DatabaseTimeout),
	}
	if st.retrier != nil {
		ledgerOpts = append(ledgerOpts, usecase.WithRetrier(st.retrier))
	}

	ledgerUC := usecase.NewLedgerUseCase(st.txManager, st.accounts, catalog, st.ownership, st.entries, st.idGen, ledgerOpts...)
	entryUC := usecase.NewEntryUseCase(st.accounts, st.entries)
	reconciliationUC := usecase.NewReconciliationUseCase(st.accounts, st.entries, st.ledger)

	routerCfg := httpAdapter.RouterConfig{
		CommandHandler: handler.NewCommandHandler(command.NewRouter(ledgerUC, routerOpts...)),
		AccountHandler: handler.NewAccountHandler(ledgerUC),
		EntryHandler:   handler.NewEntryHandler(entryUC),
		CatalogHandler: handler.NewCatalogHandler(ledgerUC),
		LedgerHandler:  handler.NewLedgerHandler(reconciliationUC),
		HealthHandler:  handler.NewHealthHandler(st.checks),
		AuthEnabled:    cfg.AuthEnabled,
		Logger:         applog.Component(logger, "http"),
	}
	if cfg.AuthEnabled {
		routerCfg.JWTManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}
	if cfg.RateLimitEnabled {
		routerCfg.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	return &app{
		handler:        httpAdapter.NewRouter(routerCfg),
		rateLimiter:    routerCfg.RateLimiter,
		reconciliation: reconciliationUC,
		metrics:        m,
		close:          closeAll,
	}, nil
}
