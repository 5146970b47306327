package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"shop-admin/internal/observability"
)

type RouterDeps struct {
	Handler       *Handler
	Logger        *observability.Logger
	Metrics       *observability.Metrics
	SecureCookies bool
	// MetricsHandler is mounted at GET /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter wires the pages behind recover, request logging and CSRF
// middleware, in that order.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return observability.RecoverMiddleware(deps.Logger, next)
	})
	r.Use(func(next http.Handler) http.Handler {
		return observability.RequestLoggingMiddleware(deps.Logger, deps.Metrics, next)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(CSRFMiddleware(deps.Logger, deps.SecureCookies))

		h := deps.Handler
		r.Get("/", h.Home)

		r.Route("/products", func(r chi.Router) {
			r.Get("/new", h.NewProduct)
			r.Post("/new", h.CreateProduct)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/edit", h.EditProduct)
				r.Post("/edit", h.UpdateProduct)
				r.Post("/delete", h.DeleteProduct)
			})
		})

		r.Route("/account", func(r chi.Router) {
			r.Get("/login", h.LoginForm)
			r.Post("/login", h.Login)
			r.Get("/register", h.RegisterForm)
			r.Post("/register", h.Register)
			r.Post("/logout", h.Logout)
		})
	})

	return r
}
