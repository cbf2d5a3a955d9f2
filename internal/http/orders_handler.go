package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/sirupsen/logrus"
)

type OrdersHandler struct {
	app     *app.App
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewOrdersHandler(a *app.App, log logrus.FieldLogger, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{app: a, log: log, timeout: timeout}
}

type OrderResponseDTO struct {
	ID        json.RawMessage `json:"id"`
	Status    string          `json:"status"`
	Total     string          `json:"total"`
	ItemCount int             `json:"item_count"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	h.app.Load(ctx)
	orders, err := h.app.Orders(ctx)
	if errors.Is(err, service.ErrAuthRequired) {
		respondError(w, http.StatusUnauthorized, "unauthorized", "sign in to see your orders")
		return
	}
	if err != nil {
		handleBackendError(w, r, h.log, err)
		return
	}

	resp := make([]OrderResponseDTO, len(orders))
	for i, o := range orders {
		resp[i] = OrderResponseDTO{
			ID:        o.ID,
			Status:    o.Status,
			Total:     money(o.Total),
			ItemCount: o.ItemCount(),
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
