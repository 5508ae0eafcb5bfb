package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"goalplan/internal/audit"
	"goalplan/internal/dta"
	"goalplan/internal/jwtauth"
	"goalplan/internal/ledger"
	"goalplan/internal/liability"
	"goalplan/internal/liability/handler"
	"goalplan/internal/liability/metrics"
	"goalplan/internal/platform/config"
	"goalplan/internal/platform/httpserver"
	"goalplan/internal/platform/kafka"
	"goalplan/internal/platform/logger"
	platformredis "goalplan/internal/platform/redis"
	"goalplan/internal/residency"
	"goalplan/internal/scenario"
	"goalplan/internal/taxconfig"
	httptransport "goalplan/internal/transport/http"
	id "goalplan/pkg/domain"
)

const (
	jwtIssuer   = "goalplan"
	jwtAudience = "goalplan-api"

	auditInboxSize      = 64
	scenarioParallelism = 4
	shutdownTimeout     = 10 * time.Second
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configs, err := buildConfigRepository(log)
	if err != nil {
		return err
	}

	records, closeStore, err := buildAuditStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var sink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(ctx, cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer producer.Close()
		sink = producer
		log.Info("audit events publishing to kafka", "topic", cfg.Kafka.Topic)
	}
	publisher := audit.NewPublisher(records, sink, cfg.Kafka.Topic, log)

	var cache liability.ResultCache
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = liability.NewRedisCache(redisClient, cfg.Redis.ResultTTL)
		log.Info("result cache enabled", "ttl", cfg.Redis.ResultTTL)
	}

	engine := residency.NewEngine()
	service := liability.NewService(liability.Deps{
		Configs:        configs,
		Incomes:        ledger.NewInMemoryIncomeLedger(),
		Facts:          ledger.NewInMemoryFactsProvider(),
		FX:             seedFXRates(),
		Residency:      engine,
		Determinations: residency.NewInMemoryStore(),
		DTA:            dta.NewCalculator(),
		Publisher:      publisher,
		Cache:          cache,
		Metrics:        metrics.New(),
		Logger:         log,
	})

	// Scenario batch summaries go through the worker so what-if runs never
	// block on the audit path.
	inbox := make(chan audit.CalculationAuditRecord, auditInboxSize)
	worker := audit.NewWorker(publisher, inbox, log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	runner := scenario.NewRunner(service, inbox, scenarioParallelism, log)
	tokens := jwtauth.NewService(cfg.Server.JWTSigningKey, jwtIssuer, jwtAudience)
	h := handler.New(service, engine, records, configs, runner, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Handler: h,
		Auth:    tokens,
		Logger:  log,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting goalplan tax server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildConfigRepository publishes the seeded tax years plus any YAML
// overlays from TAX_CONFIG_DIR.
func buildConfigRepository(log *slog.Logger) (*taxconfig.Repository, error) {
	repo, err := taxconfig.NewRepository(taxconfig.Seed()...)
	if err != nil {
		return nil, err
	}
	dir := config.ConfigOverlayDir()
	if dir == "" {
		return repo, nil
	}
	overlays, err := taxconfig.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if err := repo.Publish(overlays...); err != nil {
		return nil, err
	}
	log.Info("published tax config overlays", "dir", dir, "count", len(overlays))
	return repo, nil
}

// buildAuditStore returns Postgres when a DSN is configured, the in-memory
// store otherwise. The returned func closes whatever was opened.
func buildAuditStore(cfg config.Config, log *slog.Logger) (audit.Store, func(), error) {
	if cfg.Postgres.DSN == "" {
		log.Warn("no POSTGRES_DSN set, audit records are in-memory only")
		return audit.NewInMemoryStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if _, err := db.Exec(audit.Schema); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return audit.NewPostgresStore(db), func() { _ = db.Close() }, nil
}

// seedFXRates configures the conversion rates the composite calculation
// uses until a live rate feed is wired in.
func seedFXRates() *ledger.StaticFXConverter {
	d := decimal.RequireFromString
	fx := ledger.NewStaticFXConverter()
	fx.SetRate(id.CurrencyGBP, id.CurrencyZAR, d("23.50"))
	fx.SetRate(id.CurrencyUSD, id.CurrencyZAR, d("18.20"))
	fx.SetRate(id.CurrencyGBP, id.CurrencyUSD, d("1.29"))
	fx.SetRate(id.CurrencyEUR, id.CurrencyGBP, d("0.85"))
	fx.SetRate(id.CurrencyEUR, id.CurrencyZAR, d("19.90"))
	return fx
}
