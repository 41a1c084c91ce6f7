package service

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/expensetracker/internal/auth"
	"github.com/mmynk/expensetracker/internal/metrics"
	"github.com/mmynk/expensetracker/internal/middleware"
)

// Routes mounts both RPC services with their interceptor chains.
type Routes struct {
	Expenses *ExpenseService
	Auth     *AuthService
	JWT      *auth.JWTManager
	Logger   *slog.Logger

	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Register mounts the services on mux. Expense procedures require a valid
// token; auth procedures accept anonymous callers.
func (r Routes) Register(mux *http.ServeMux) {
	mux.Handle(NewExpenseServiceHandler(r.Expenses, connect.WithInterceptors(
		r.chain(middleware.RequireAuth(r.JWT))...,
	)))
	mux.Handle(NewAuthServiceHandler(r.Auth, connect.WithInterceptors(
		r.chain(middleware.OptionalAuth(r.JWT))...,
	)))
}

// chain orders interceptors outermost first: metrics, logging, auth.
func (r Routes) chain(authn connect.Interceptor) []connect.Interceptor {
	var chain []connect.Interceptor
	if r.Metrics != nil {
		chain = append(chain, r.Metrics.Interceptor())
	}
	return append(chain, middleware.LoggingInterceptor(r.Logger), authn)
}
