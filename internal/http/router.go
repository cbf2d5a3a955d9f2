package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter serves the storefront pages of a over JSON.
func NewRouter(a *app.App, log logrus.FieldLogger, requestTimeout time.Duration) http.Handler {
	catalog := NewCatalogHandler(a, log, requestTimeout)
	cart := NewCartHandler(a, log, requestTimeout)
	checkout := NewCheckoutHandler(a, log, requestTimeout)
	session := NewSessionHandler(a, log, requestTimeout)
	orders := NewOrdersHandler(a, log, requestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", catalog.ListProducts)
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.GetCart)
			r.Post("/items", cart.AddItem)
			r.Patch("/items/{product_id}", cart.ChangeQuantity)
		})
		r.Get("/checkout", checkout.GetSummary)
		r.Post("/checkout", checkout.Submit)
		r.Get("/session", session.GetNavbar)
		r.Post("/session", session.Login)
		r.Delete("/session", session.Logout)
		r.Get("/orders", orders.ListOrders)
	})

	return otelhttp.NewHandler(r, "storefront")
}
