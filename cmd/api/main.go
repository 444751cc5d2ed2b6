package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	httpadp "invoice-ledger/internal/adapter/http"
	"invoice-ledger/internal/adapter/middleware"
	"invoice-ledger/internal/adapter/repository/mysql"
	"invoice-ledger/internal/adapter/scheduler"
	"invoice-ledger/internal/config"
	"invoice-ledger/internal/infrastructure/cache"
	"invoice-ledger/internal/infrastructure/db"
	"invoice-ledger/internal/infrastructure/logging"
	"invoice-ledger/internal/infrastructure/metrics"
	"invoice-ledger/internal/infrastructure/tracing"
	accessuc "invoice-ledger/internal/usecase/access"
	fundsuc "invoice-ledger/internal/usecase/funds"
	invoiceuc "invoice-ledger/internal/usecase/invoice"
	loanuc "invoice-ledger/internal/usecase/loan"
	pooluc "invoice-ledger/internal/usecase/pool"
	"invoice-ledger/internal/usecase/relay"
	statsuc "invoice-ledger/internal/usecase/stats"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, os.Stdout)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.OTLPEndpoint, cfg.OTELServiceName, log)
	if err != nil {
		return err
	}

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		return err
	}
	if cfg.DBAutoMigrate {
		if err := mysql.Migrate(gdb); err != nil {
			return err
		}
	}
	rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics, err := metrics.NewLedger(reg)
	if err != nil {
		return err
	}
	httpMetrics, err := middleware.NewPrometheus(reg)
	if err != nil {
		return err
	}

	// usecases
	repos := mysql.NewRepos(gdb)
	tx := mysql.NewGormUoW(gdb)

	access := accessuc.NewUsecase(repos.Grants, tx, log)
	if err := access.Bootstrap(ctx, cfg.RoleAdminAddress); err != nil {
		return err
	}
	invoices := invoiceuc.NewUsecase(repos.Invoices, repos.Events, tx,
		invoiceuc.WithMetrics(ledgerMetrics), invoiceuc.WithLogger(log))
	loans := loanuc.NewUsecase(repos.Loans, repos.Grants, repos.Events, tx, loanuc.Config{
		FeeBps:         cfg.FeeBps,
		FeeReceiver:    cfg.FeeReceiver,
		Treasury:       cfg.TreasuryAddress,
		MaxInterestBps: cfg.MaxInterestBps,
	}, loanuc.WithMetrics(ledgerMetrics), loanuc.WithLogger(log))
	pool := pooluc.NewUsecase(repos.Pools, repos.Funds, repos.Events, tx, loans,
		pooluc.Config{Address: cfg.PoolAddress, Treasury: cfg.TreasuryAddress},
		pooluc.WithMetrics(ledgerMetrics), pooluc.WithLogger(log))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.HTTPErrorHandler = httpadp.ErrorHandler
	e.Use(middleware.RequestID(), middleware.RequestLogger(log), echomw.Recover(), httpMetrics.Handler())
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	httpadp.Router{
		Health:   httpadp.NewHandler(statsuc.NewUsecase(repos.Loans, repos.Pools)),
		Loans:    httpadp.NewLoanHandler(loans),
		Invoices: httpadp.NewInvoiceHandler(invoices),
		Access:   httpadp.NewAccessHandler(access),
		Funds:    httpadp.NewFundsHandler(fundsuc.NewUsecase(repos.Funds, tx, log)),
		Pool:     httpadp.NewPoolHandler(pool),
		Webhook:  httpadp.NewWebhookHandler(relay.NewUsecase(invoices, cfg.RelayAddress, cfg.WebhookSecret, log)),
	}.Register(e,
		middleware.JWTAuth([]byte(cfg.JWTSecret)),
		middleware.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL(), log),
	)

	var sweeper *scheduler.Sweeper
	if cfg.SweeperAddress != "" {
		if sweeper, err = scheduler.NewSweeper(cfg.SweepSpec, loans, cfg.SweeperAddress, log); err != nil {
			return err
		}
		sweeper.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.AppPort
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if sweeper != nil {
		sweeper.Stop(shutdownCtx)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracing shutdown")
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
