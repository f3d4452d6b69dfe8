package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/solventa/solventa-backend/internal/api/handlers"
	"github.com/solventa/solventa-backend/internal/auth"
	"github.com/solventa/solventa-backend/internal/config"
	"github.com/solventa/solventa-backend/internal/metrics"
	"github.com/solventa/solventa-backend/internal/middleware"
)

type Deps struct {
	Cfg config.Config
	RDB *redis.Client
	TM  *auth.TokenManager

	Auth      *handlers.AuthHandler
	Accounts  *handlers.AccountsHandler
	Transfers *handlers.TransfersHandler
	Cards     *handlers.CardsHandler
	Goals     *handlers.GoalsHandler
	KYC       *handlers.KYCHandler
	Admin     *handlers.AdminHandler
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics)
	r.Use(middleware.RateLimit(d.RDB, d.Cfg.RateLimitRPM))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	authmw := middleware.NewAuthMiddleware(d.TM)

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", d.Auth.Register)
		r.Post("/auth/login", d.Auth.Login)
		r.Post("/auth/refresh", d.Auth.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authmw.Auth)

			r.Get("/users/me", d.Auth.Me)
			r.Put("/users/me", d.Auth.UpdateMe)

			r.Post("/accounts", d.Accounts.Open)
			r.Get("/accounts", d.Accounts.List)
			r.Get("/accounts/{id}", d.Accounts.Get)
			r.Delete("/accounts/{id}", d.Accounts.Close)
			r.Get("/accounts/{id}/transactions", d.Transfers.ListByAccount)
			r.Post("/accounts/{id}/cards", d.Cards.Issue)
			r.Get("/accounts/{id}/cards", d.Cards.List)

			r.Post("/transfers", d.Transfers.Transfer)
			r.Post("/transfers/deposit", d.Transfers.Deposit)
			r.Post("/transfers/withdraw", d.Transfers.Withdraw)
			r.Post("/transfers/p2p", d.Transfers.P2P)
			r.Get("/transactions/{id}", d.Transfers.Get)

			r.Get("/cards/{id}", d.Cards.Get)
			r.Delete("/cards/{id}", d.Cards.Cancel)
			r.Post("/cards/{id}/freeze", d.Cards.Freeze)
			r.Post("/cards/{id}/unfreeze", d.Cards.Unfreeze)
			r.Put("/cards/{id}/limit", d.Cards.SetLimit)
			r.Post("/cards/{id}/authorize", d.Cards.Authorize)

			r.Post("/goals", d.Goals.Create)
			r.Get("/goals", d.Goals.List)
			r.Get("/goals/{id}", d.Goals.Get)
			r.Delete("/goals/{id}", d.Goals.Cancel)
			r.Post("/goals/{id}/contribute", d.Goals.Contribute)
			r.Post("/goals/{id}/withdraw", d.Goals.Withdraw)

			r.Post("/kyc", d.KYC.Submit)
			r.Get("/kyc", d.KYC.Mine)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))

				r.Get("/users", d.Admin.ListUsers)
				r.Get("/users/{id}", d.Admin.GetUser)
				r.Get("/users/{id}/accounts", d.Admin.ListUserAccounts)
				r.Post("/accounts/{id}/freeze", d.Admin.FreezeAccount)
				r.Post("/accounts/{id}/unfreeze", d.Admin.UnfreezeAccount)
				r.Get("/transactions", d.Admin.ListTransactions)
				r.Get("/audit-logs", d.Admin.ListAuditLogs)
				r.Get("/kyc/pending", d.Admin.ListPendingKYC)
				r.Post("/kyc/{id}/approve", d.Admin.ApproveKYC)
				r.Post("/kyc/{id}/reject", d.Admin.RejectKYC)
			})
		})
	})

	return r
}
