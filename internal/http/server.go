// Package http exposes the JSON API. Routing uses the standard library mux
// with method patterns; every route goes through the security middleware
// and the API routes additionally require a valid JWT.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/auth"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

type Server struct {
	http.Server

	transactions *services.TransactionService
	debtors      *services.DebtorService
	repo         *storage.SQLiteRepository

	authenticator *auth.PasswordAuthenticator
	jwtManager    *auth.JWTManager

	rateLimiter *rateLimiter
	metrics     *metrics

	// Dashboard aggregates are cached per year-month and purged on every
	// transaction write.
	summaryCache  *cache.LRUCache[core.MonthSummary]
	cashFlowCache *cache.LRUCache[[]core.CashFlowPoint]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// Deps bundles what the server needs. Logger is optional; when set it is
// attached to every request context.
type Deps struct {
	Transactions  *services.TransactionService
	Debtors       *services.DebtorService
	Repo          *storage.SQLiteRepository
	Authenticator *auth.PasswordAuthenticator
	JWTManager    *auth.JWTManager
	Logger        *applog.Logger
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	var handler http.Handler = mux
	if deps.Logger != nil {
		handler = applog.Middleware(deps.Logger.WithComponent(applog.ComponentHTTP))(mux)
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		transactions:  deps.Transactions,
		debtors:       deps.Debtors,
		repo:          deps.Repo,
		authenticator: deps.Authenticator,
		jwtManager:    deps.JWTManager,
		rateLimiter:   newRateLimiter(),
		metrics:       newMetrics(),
		summaryCache:  cache.NewLRUCache[core.MonthSummary](100, 5*time.Minute),
		cashFlowCache: cache.NewLRUCache[[]core.CashFlowPoint](100, 5*time.Minute),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.cashFlowCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.handler())

	mux.HandleFunc("POST /api/auth/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.withSecurityHeaders(s.handleLogin))

	mux.HandleFunc("POST /api/accounts", s.protected(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts", s.protected(s.handleListAccounts))
	mux.HandleFunc("GET /api/accounts/{id}", s.protected(s.handleGetAccount))
	mux.HandleFunc("POST /api/cards", s.protected(s.handleCreateCard))
	mux.HandleFunc("GET /api/cards", s.protected(s.handleListCards))

	mux.HandleFunc("POST /api/transactions", s.protected(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.protected(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions/installments", s.protected(s.handleCreateInstallments))
	mux.HandleFunc("GET /api/transactions/installments/{parentRef}", s.protected(s.handleListInstallments))
	mux.HandleFunc("GET /api/transactions/{id}", s.protected(s.handleGetTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.protected(s.handleDeleteTransaction))

	mux.HandleFunc("POST /api/budgets", s.protected(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets", s.protected(s.handleListBudgets))
	mux.HandleFunc("GET /api/budgets/usage", s.protected(s.handleBudgetUsage))

	mux.HandleFunc("POST /api/recurring", s.protected(s.handleCreateRecurringRule))
	mux.HandleFunc("GET /api/recurring", s.protected(s.handleListRecurringRules))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.protected(s.handleDeactivateRecurringRule))

	mux.HandleFunc("POST /api/debtors", s.protected(s.handleCreateDebtor))
	mux.HandleFunc("GET /api/debtors", s.protected(s.handleListDebtors))
	mux.HandleFunc("GET /api/debtors/totals", s.protected(s.handleDebtorTotals))
	mux.HandleFunc("GET /api/debtors/{id}", s.protected(s.handleGetDebtor))
	mux.HandleFunc("DELETE /api/debtors/{id}", s.protected(s.handleDeleteDebtor))
	mux.HandleFunc("GET /api/debtors/{id}/payments", s.protected(s.handleListPayments))
	mux.HandleFunc("POST /api/debtors/{id}/payments", s.protected(s.handleRegisterPayment))
	mux.HandleFunc("POST /api/debtors/{id}/settle", s.protected(s.handleSettleDebtor))
	mux.HandleFunc("POST /api/debtors/{id}/cancel", s.protected(s.handleCancelDebtor))

	mux.HandleFunc("GET /api/dashboard/summary", s.protected(s.handleDashboardSummary))
	mux.HandleFunc("GET /api/dashboard/cashflow", s.protected(s.handleDashboardCashFlow))
	mux.HandleFunc("GET /api/dashboard/calendar", s.protected(s.handleDashboardCalendar))

	return s
}

// invalidateDashboardCaches drops cached aggregates after any write that
// can change them.
func (s *Server) invalidateDashboardCaches() {
	s.summaryCache.Purge()
	s.cashFlowCache.Purge()
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.ListAccounts(r.Context()); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
			applog.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "database not ready"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
