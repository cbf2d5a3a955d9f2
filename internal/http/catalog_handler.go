package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/sirupsen/logrus"
)

type CatalogHandler struct {
	app     *app.App
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewCatalogHandler(a *app.App, log logrus.FieldLogger, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{app: a, log: log, timeout: timeout}
}

// GET /api/v1/products?category=&q=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.app.Load(ctx)
	menu, err := h.app.Menu(ctx, r.URL.Query().Get("category"), r.URL.Query().Get("q"))
	if err != nil {
		handleBackendError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, menu)
}
