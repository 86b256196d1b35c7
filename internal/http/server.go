// Package http exposes the JSON API over the account, transaction, loan,
// recurring, shared-expense and projection services.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"moneta/internal/cache"
	"moneta/internal/core"
	applog "moneta/internal/log"
	"moneta/internal/middleware/ratelimit"
	"moneta/internal/middleware/security"
	"moneta/internal/middleware/trace"
	"moneta/internal/projection"
)

// AccountService manages accounts.
type AccountService interface {
	Create(ctx context.Context, a core.Account) (int64, error)
	Get(ctx context.Context, id int64) (core.Account, error)
	List(ctx context.Context) ([]core.Account, error)
	Update(ctx context.Context, a core.Account) error
	Delete(ctx context.Context, id int64) error
}

// TransactionService records and lists postings.
type TransactionService interface {
	Record(ctx context.Context, t core.Transaction) (int64, error)
	RecordTransfer(ctx context.Context, fromID, toID int64, amount core.Money, date core.Date, description string) (int64, int64, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
	ListMonth(ctx context.Context, year int, month time.Month) ([]core.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

// LoanService manages loans and their installment plans.
type LoanService interface {
	Create(ctx context.Context, l core.Loan) (int64, error)
	Get(ctx context.Context, id int64) (core.Loan, error)
	List(ctx context.Context, onlyOpen bool) ([]core.Loan, error)
	Delete(ctx context.Context, id int64) error
	RecordInstallmentPayment(ctx context.Context, loanID int64, sequence int, amount core.Money, accountID int64, date core.Date) error
	Settle(ctx context.Context, loanID int64, accountID int64, date core.Date) error
}

// RecurringService manages recurring templates and their pending
// occurrences.
type RecurringService interface {
	Create(ctx context.Context, rt core.RecurringTransaction) (int64, error)
	Get(ctx context.Context, id int64) (core.RecurringTransaction, error)
	List(ctx context.Context, onlyActive bool) ([]core.RecurringTransaction, error)
	Update(ctx context.Context, rt core.RecurringTransaction) error
	Delete(ctx context.Context, id int64) error
	ListPending(ctx context.Context) ([]core.PendingOccurrence, error)
	Confirm(ctx context.Context, pendingID int64) (int64, error)
	Cancel(ctx context.Context, pendingID int64) error
}

// SharedExpenseService manages split expenses.
type SharedExpenseService interface {
	Create(ctx context.Context, se core.SharedExpense, participants []string) (int64, error)
	Get(ctx context.Context, id int64) (core.SharedExpense, error)
	List(ctx context.Context) ([]core.SharedExpense, error)
	Delete(ctx context.Context, id int64) error
	SettleShare(ctx context.Context, shareID int64, date core.Date) error
}

// ProjectionService computes balance forecasts.
type ProjectionService interface {
	Project(ctx context.Context, target time.Time) (*projection.Result, error)
}

// Services bundles the dependencies the server handles requests with.
type Services struct {
	Accounts     AccountService
	Transactions TransactionService
	Loans        LoanService
	Recurring    RecurringService
	Shared       SharedExpenseService
	Projections  ProjectionService
}

type Server struct {
	http.Server
	svc      Services
	limiter  *ratelimit.Limiter
	resolver *security.Resolver

	// Month listings and projections are the expensive reads; both are
	// invalidated wholesale on any write.
	listCache       *cache.LRUCache[[]core.Transaction]
	projectionCache *cache.LRUCache[*projection.Result]
	cacheManager    *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, svc Services, cacheTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		svc:             svc,
		limiter:         ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		resolver:        security.NewResolver(),
		listCache:       cache.NewLRUCache[[]core.Transaction](100, cacheTTL),
		projectionCache: cache.NewLRUCache[*projection.Result](50, cacheTTL),
		cacheManager:    cache.NewManager(),
	}

	s.cacheManager.Register(s.listCache)
	s.cacheManager.Register(s.projectionCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PUT /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/loans", s.handleCreateLoan)
	mux.HandleFunc("GET /api/loans", s.handleListLoans)
	mux.HandleFunc("GET /api/loans/{id}", s.handleGetLoan)
	mux.HandleFunc("DELETE /api/loans/{id}", s.handleDeleteLoan)
	mux.HandleFunc("POST /api/loans/{id}/payments", s.handleLoanPayment)
	mux.HandleFunc("POST /api/loans/{id}/settle", s.handleLoanSettle)

	mux.HandleFunc("POST /api/recurring", s.handleCreateRecurring)
	mux.HandleFunc("GET /api/recurring", s.handleListRecurring)
	mux.HandleFunc("GET /api/recurring/pending", s.handleListPending)
	mux.HandleFunc("POST /api/recurring/pending/{id}/confirm", s.handleConfirmPending)
	mux.HandleFunc("POST /api/recurring/pending/{id}/cancel", s.handleCancelPending)
	mux.HandleFunc("GET /api/recurring/{id}", s.handleGetRecurring)
	mux.HandleFunc("PUT /api/recurring/{id}", s.handleUpdateRecurring)
	mux.HandleFunc("DELETE /api/recurring/{id}", s.handleDeleteRecurring)

	mux.HandleFunc("POST /api/shared", s.handleCreateShared)
	mux.HandleFunc("GET /api/shared", s.handleListShared)
	mux.HandleFunc("GET /api/shared/{id}", s.handleGetShared)
	mux.HandleFunc("DELETE /api/shared/{id}", s.handleDeleteShared)
	mux.HandleFunc("POST /api/shared/shares/{id}/settle", s.handleSettleShare)

	mux.HandleFunc("GET /api/projection", s.handleProjection)
	mux.HandleFunc("GET /api/projection/export", s.handleProjectionExport)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.resolver.ClientIP)

	// Handlers log through the context logger, which carries the request
	// ID stamped by the trace middleware.
	requestLogger := applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})

	handler := tracer.Handler(
		applog.Middleware(applog.NewComponent(applog.ComponentHTTP))(
			requestLogger(
				headers.Middleware(
					s.limiter.Middleware(s.resolver.ClientIP)(mux)))))

	s.Server = http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// invalidateDerived drops every cached month listing and projection.
// Called after any write that changes balances or scheduled movements.
func (s *Server) invalidateDerived() {
	s.listCache.DeletePrefix("transactions:")
	s.projectionCache.DeletePrefix("projection:")
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
