package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dejobratic/puravida/internal/analytics"
	analyticshttp "github.com/dejobratic/puravida/internal/analytics/adapters/http"
	catalogadapters "github.com/dejobratic/puravida/internal/catalog/adapters"
	cataloghttp "github.com/dejobratic/puravida/internal/catalog/adapters/http"
	catalogmemory "github.com/dejobratic/puravida/internal/catalog/adapters/memory"
	catalogpostgres "github.com/dejobratic/puravida/internal/catalog/adapters/postgres"
	catalogapp "github.com/dejobratic/puravida/internal/catalog/app"
	catalogports "github.com/dejobratic/puravida/internal/catalog/ports"
	"github.com/dejobratic/puravida/internal/clock"
	"github.com/dejobratic/puravida/internal/config"
	customerhttp "github.com/dejobratic/puravida/internal/customers/adapters/http"
	customermemory "github.com/dejobratic/puravida/internal/customers/adapters/memory"
	customerpostgres "github.com/dejobratic/puravida/internal/customers/adapters/postgres"
	customerapp "github.com/dejobratic/puravida/internal/customers/app"
	customerports "github.com/dejobratic/puravida/internal/customers/ports"
	"github.com/dejobratic/puravida/internal/database"
	"github.com/dejobratic/puravida/internal/events"
	"github.com/dejobratic/puravida/internal/httpx"
	idemmemory "github.com/dejobratic/puravida/internal/idempotency/memory"
	idempostgres "github.com/dejobratic/puravida/internal/idempotency/postgres"
	orderadapters "github.com/dejobratic/puravida/internal/orders/adapters"
	orderhttp "github.com/dejobratic/puravida/internal/orders/adapters/http"
	ordermemory "github.com/dejobratic/puravida/internal/orders/adapters/memory"
	orderpostgres "github.com/dejobratic/puravida/internal/orders/adapters/postgres"
	ordersqlite "github.com/dejobratic/puravida/internal/orders/adapters/sqlite"
	ordersapp "github.com/dejobratic/puravida/internal/orders/app"
	"github.com/dejobratic/puravida/internal/orders/invoice"
	ordermetrics "github.com/dejobratic/puravida/internal/orders/metrics"
	"github.com/dejobratic/puravida/internal/orders/payment"
	orderports "github.com/dejobratic/puravida/internal/orders/ports"
	"github.com/dejobratic/puravida/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
)

const meterName = "github.com/dejobratic/puravida"

type storage struct {
	products    catalogports.Repository
	customers   customerports.Repository
	orders      orderports.OrderRepository
	idempotency orderports.IdempotencyStore
	pool        *pgxpool.Pool
}

func main() {
	if err := run(); err != nil {
		slog.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := telemetry.ParseLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		return err
	}
	logger := telemetry.NewLogger(level, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.OTelEndpoint != "" {
		tel, err := telemetry.Initialize(ctx, telemetry.Config{
			ServiceName:    cfg.Service.Name,
			ServiceVersion: cfg.Service.Version,
			Environment:    cfg.Service.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
			Insecure:       cfg.Telemetry.OTelInsecure,
			EnableTracing:  cfg.Telemetry.EnableTracing,
			EnableMetrics:  cfg.Telemetry.EnableMetrics,
			SampleRate:     cfg.Telemetry.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("initialize telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tel.Shutdown(shutdownCtx); err != nil {
				logger.Error("telemetry shutdown failed", "error", err)
			}
		}()
	}

	meter := otel.Meter(meterName)
	orderMetrics, err := ordermetrics.NewMetrics(meter)
	if err != nil {
		return err
	}
	dbMetrics, err := database.NewMetrics(meter, string(cfg.Database.Backend))
	if err != nil {
		return err
	}
	eventMetrics, err := events.NewMetrics(meter)
	if err != nil {
		return err
	}
	httpMetrics, err := httpx.NewMetrics(meter)
	if err != nil {
		return err
	}

	clk := clock.NewSystem()
	strategies := orderadapters.NewObservableStrategyResolver(
		payment.NewFactory(
			payment.WithCardLimit(cfg.Payment.CardLimit),
			payment.WithTransferApprovalRate(cfg.Payment.TransferApprovalRate),
		),
		orderMetrics,
	)

	store, err := openStorage(ctx, cfg, strategies, clk, logger)
	if err != nil {
		return err
	}
	if store.pool != nil {
		defer store.pool.Close()
	}

	products := catalogadapters.NewObservableRepository(store.products, dbMetrics)
	orders := orderadapters.NewObservableRepository(store.orders, dbMetrics)

	generator, err := invoice.NewGenerator(cfg.Invoice.Secret, cfg.Invoice.OutputDir, clk)
	if err != nil {
		return fmt.Errorf("create invoice generator: %w", err)
	}

	var invoiceLog orderports.InvoiceLog = ordermemory.NewInvoiceLog()
	if cfg.Invoice.LogPath != "" {
		sqliteLog, err := ordersqlite.Open(cfg.Invoice.LogPath)
		if err != nil {
			return fmt.Errorf("open invoice log: %w", err)
		}
		defer sqliteLog.Close()
		invoiceLog = sqliteLog
		logger.Info("invoice log opened", "path", cfg.Invoice.LogPath)
	}

	orderService := ordersapp.NewService(ordersapp.Dependencies{
		Orders:      orders,
		Catalog:     products,
		Strategies:  strategies,
		Invoices:    generator,
		InvoiceLog:  invoiceLog,
		Events:      orderadapters.NewObservableEventBus(events.NewLogBus(logger), eventMetrics),
		Idempotency: store.idempotency,
		Clock:       clk,
		Logger:      logger,
		Metrics:     orderMetrics,
		TaxRate:     cfg.Payment.TaxRate,
	})
	catalogService := catalogapp.NewService(products, clk)
	customerService := customerapp.NewService(store.customers, clk)

	dashboard := analytics.NewDashboard(products, store.customers, orders, cfg.Loyalty.FrequentThreshold, cfg.Loyalty.CriticalThreshold)
	loyalty := analytics.NewLoyaltyTask(store.customers, orders, clk, analytics.LoyaltyOptions{
		StepDelay:         cfg.Loyalty.StepDelay,
		FrequentThreshold: cfg.Loyalty.FrequentThreshold,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpx.WithLogging(logger))
	r.Use(middleware.Recoverer)
	r.Use(httpx.WithMetrics(httpMetrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if store.pool != nil {
			if err := database.CheckHealth(r.Context(), store.pool); err != nil {
				httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
				return
			}
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle(cfg.HTTP.MetricsPath, telemetry.PromHandler(
		telemetry.NewPromRegistry(cfg.Service.Name, cfg.Service.Version, cfg.Service.Environment),
	))

	orderhttp.NewHandler(orderService, generator).Register(r)
	cataloghttp.NewHandler(catalogService).Register(r)
	customerhttp.NewHandler(customerService).Register(r)
	analyticshttp.NewHandler(dashboard, loyalty).Register(r)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port, "backend", cfg.Database.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, strategies orderports.StrategyResolver, clk clock.Clock, logger *slog.Logger) (storage, error) {
	if cfg.Database.Backend == config.BackendMemory {
		return storage{
			products:    catalogmemory.NewRepository(),
			customers:   customermemory.NewRepository(),
			orders:      ordermemory.NewRepository(),
			idempotency: idemmemory.NewStore(cfg.Database.IdempotencyTTL, clk),
		}, nil
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return storage{}, fmt.Errorf("create database pool: %w", err)
	}

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		version, err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath)
		if err != nil {
			pool.Close()
			return storage{}, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations completed successfully", "version", version)
	}

	return storage{
		products:    catalogpostgres.NewRepository(pool),
		customers:   customerpostgres.NewRepository(pool),
		orders:      orderpostgres.NewRepository(pool, strategies),
		idempotency: idempostgres.NewStore(pool, cfg.Database.IdempotencyTTL, clk),
		pool:        pool,
	}, nil
}
