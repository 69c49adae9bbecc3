package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rollhouse/ledgerd/internal/services/casino"
	"github.com/rollhouse/ledgerd/internal/services/deposits"
)

// NewRouter constructs the router with all API endpoints registered.
func NewRouter(svc *casino.Service, reconciler *deposits.Reconciler, metricsHandler http.Handler) http.Handler {
	h := NewCommandHandler(svc)
	wh := NewWebhookHandler(reconciler)

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Post("/webhook/deposit", wh.DepositHandler)

	r.Post("/user/{userId}/start", h.StartHandler)
	r.Get("/user/{userId}/balance", h.BalanceHandler)
	r.Post("/user/{userId}/roll", h.RollHandler)
	r.Post("/user/{userId}/deposit", h.DepositHandler)
	r.Post("/user/{userId}/withdraw", h.WithdrawHandler)

	return r
}
