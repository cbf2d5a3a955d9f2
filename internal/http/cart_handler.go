package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type CartHandler struct {
	app     *app.App
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewCartHandler(a *app.App, log logrus.FieldLogger, timeout time.Duration) *CartHandler {
	return &CartHandler{app: a, log: log, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
}

// maxDelta bounds one quantity change from a client.
const maxDelta = 99

type ChangeQuantityRequestDTO struct {
	Delta int `json:"delta"`
}

type CartLineDTO struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type CartResponseDTO struct {
	Items         []CartLineDTO `json:"items"`
	TotalQuantity int           `json:"total_quantity"`
	Subtotal      string        `json:"subtotal"`
}

func toCartResponse(c domain.Cart) CartResponseDTO {
	items := make([]CartLineDTO, len(c.Items))
	for i, item := range c.Items {
		items[i] = CartLineDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: money(item.UnitPrice),
			Quantity:  item.Quantity,
			LineTotal: money(item.LineTotal()),
		}
	}
	return CartResponseDTO{
		Items:         items,
		TotalQuantity: c.TotalQuantity(),
		Subtotal:      money(c.Subtotal()),
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.app.Load(r.Context())
	respondJSON(w, http.StatusOK, toCartResponse(h.app.Cart.Cart()))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}

	cart, err := h.app.AddProduct(ctx, req.ProductID)
	switch {
	case errors.Is(err, app.ErrUnknownProduct):
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
		return
	case errors.Is(err, service.ErrQuantityRange):
		respondError(w, http.StatusUnprocessableEntity, "quantity_out_of_range", err.Error())
		return
	case errors.Is(err, service.ErrPersist):
		h.respondPersistError(w, r, err)
		return
	case err != nil:
		handleBackendError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCartResponse(cart))
}

// PATCH /api/v1/cart/items/{product_id}
func (h *CartHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}
	var req ChangeQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Delta == 0 || req.Delta > maxDelta || req.Delta < -maxDelta {
		respondError(w, http.StatusBadRequest, "invalid_delta", "delta must be between -99 and 99 and not zero")
		return
	}

	cart, err := h.app.Cart.ChangeQuantity(r.Context(), productID, req.Delta)
	if errors.Is(err, service.ErrQuantityRange) {
		respondError(w, http.StatusUnprocessableEntity, "quantity_out_of_range", err.Error())
		return
	}
	if err != nil {
		h.respondPersistError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) respondPersistError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context(), h.log).WithError(err).Error("cart change not saved")
	respondError(w, http.StatusInternalServerError, "persist_failed", "cart change could not be saved")
}
