package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solventa/solventa-backend/internal/api"
	"github.com/solventa/solventa-backend/internal/api/handlers"
	"github.com/solventa/solventa-backend/internal/auth"
	"github.com/solventa/solventa-backend/internal/config"
	"github.com/solventa/solventa-backend/internal/db"
	"github.com/solventa/solventa-backend/internal/logger"
	"github.com/solventa/solventa-backend/internal/metrics"
	"github.com/solventa/solventa-backend/internal/redisdb"
	"github.com/solventa/solventa-backend/internal/repository/postgres"
	"github.com/solventa/solventa-backend/internal/services"
	"github.com/solventa/solventa-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	rdb, err := redisdb.NewClient(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		// rate limiting and the idempotency fast path fail open
		log.Warn("redis connect", "err", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	metrics.Init()

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	auditor := services.NewAuditor(repos.AuditLogs, wp)
	notify := services.NewNotifier(services.LogMailer{}, wp)
	var idem services.IdemCache
	if rdb != nil {
		idem = redisdb.NewIdemCache(rdb)
	}

	userSvc := services.NewUserService(repos.Runner, repos.Users, repos.Accounts, auditor, notify)
	accountSvc := services.NewAccountService(repos.Accounts, auditor)
	transferSvc := services.NewTransferService(repos.Runner, repos.Transactions, repos.Accounts, repos.Users, auditor, notify, idem, cfg)
	cardSvc := services.NewCardService(repos.Cards, repos.Transactions, repos.Users, accountSvc, transferSvc, auditor, notify)
	goalSvc := services.NewGoalService(repos.Runner, repos.SavingsGoals, repos.Accounts, repos.Transactions, auditor)
	kycSvc := services.NewVerificationService(repos.Runner, repos.Verifications, repos.Users, auditor, notify)

	tm := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)

	r := api.NewRouter(api.Deps{
		Cfg:       cfg,
		RDB:       rdb,
		TM:        tm,
		Auth:      handlers.NewAuthHandler(userSvc, tm),
		Accounts:  handlers.NewAccountsHandler(accountSvc),
		Transfers: handlers.NewTransfersHandler(transferSvc),
		Cards:     handlers.NewCardsHandler(cardSvc),
		Goals:     handlers.NewGoalsHandler(goalSvc),
		KYC:       handlers.NewKYCHandler(kycSvc),
		Admin:     handlers.NewAdminHandler(userSvc, accountSvc, transferSvc, kycSvc, repos.AuditLogs),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
