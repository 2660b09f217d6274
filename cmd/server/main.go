package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/adamsbarry18/innov-stocker/internal/config"
	"github.com/adamsbarry18/innov-stocker/internal/gateway/pg"
	"github.com/adamsbarry18/innov-stocker/internal/imports"
	"github.com/adamsbarry18/innov-stocker/internal/logging"
	"github.com/adamsbarry18/innov-stocker/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"import_workers", cfg.Importer.Workers,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	store := imports.NewPGStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure batch schema", "error", err)
		os.Exit(1)
	}

	// Register one definition per importable entity type; the dispatcher
	// routes batches through this registry.
	imports.Register(imports.Products(pg.NewProducts(pool)))
	imports.Register(imports.Customers(pg.NewCustomers(pool)))
	imports.Register(imports.Suppliers(pg.NewSuppliers(pool)))
	imports.Register(imports.Categories(pg.NewCategories(pool)))
	imports.Register(imports.OpeningStock(pg.NewStock(pool)))
	imports.Register(imports.SalesOrders(pg.NewSalesOrders(pool)))
	imports.Register(imports.PurchaseOrders(pg.NewPurchaseOrders(pool)))

	slog.Info("entity types registered", "count", imports.Count())

	service := imports.NewService(store, imports.Options{
		Workers:       cfg.Importer.Workers,
		QueueSize:     cfg.Importer.QueueSize,
		MaxConcurrent: cfg.Importer.MaxConcurrent,
		MaxRows:       cfg.Importer.MaxRows,
		BatchTimeout:  cfg.Importer.BatchTimeout,
		SweepInterval: cfg.Importer.SweepInterval,
		RecoveryAge:   cfg.Importer.RecoveryAge,
	})

	server := web.NewServer(service, cfg, pool)

	// Cancellable context for the worker pool and sweep
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	service.StartWorkers(jobCtx)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let in-flight batches finish so none is stuck in PROCESSING
		status := service.LimiterStatus()
		if status.Active > 0 {
			slog.Info("waiting for batches to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("batches did not complete in time", "error", err)
			} else {
				slog.Info("all batches completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
