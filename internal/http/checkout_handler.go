package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/sirupsen/logrus"
)

type CheckoutHandler struct {
	app     *app.App
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewCheckoutHandler(a *app.App, log logrus.FieldLogger, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{app: a, log: log, timeout: timeout}
}

type SummaryLineDTO struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type CheckoutSummaryDTO struct {
	Lines         []SummaryLineDTO `json:"lines"`
	Subtotal      string           `json:"subtotal"`
	Shipping      string           `json:"shipping"`
	Total         string           `json:"total"`
	Authenticated bool             `json:"authenticated"`
}

type CheckoutResponseDTO struct {
	AttemptID string                  `json:"attempt_id"`
	Status    domain.CheckoutStatus   `json:"status"`
	Reason    domain.FailureReason    `json:"reason,omitempty"`
	Message   string                  `json:"message"`
	Trail     []domain.CheckoutStatus `json:"trail"`
	Order     *domain.Order           `json:"order,omitempty"`
	Warning   string                  `json:"warning,omitempty"`
}

// GET /api/v1/checkout
func (h *CheckoutHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	h.app.Load(r.Context())
	summary := domain.Summarize(h.app.Cart.Cart())

	lines := make([]SummaryLineDTO, len(summary.Lines))
	for i, l := range summary.Lines {
		lines[i] = SummaryLineDTO{Name: l.Name, Quantity: l.Quantity, LineTotal: money(l.LineTotal)}
	}
	respondJSON(w, http.StatusOK, CheckoutSummaryDTO{
		Lines:         lines,
		Subtotal:      money(summary.Subtotal),
		Shipping:      money(summary.Shipping),
		Total:         money(summary.Total),
		Authenticated: h.app.Session.IsAuthenticated(),
	})
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res := h.app.Checkout.Submit(ctx)
	dto := CheckoutResponseDTO{
		AttemptID: res.AttemptID,
		Status:    res.Status,
		Reason:    res.Reason,
		Message:   res.Message,
		Trail:     res.Trail,
		Order:     res.Order,
	}
	if res.Succeeded() && res.Err != nil {
		dto.Warning = "order confirmed but the cart could not be cleared"
	}
	if !res.Succeeded() && res.Err != nil {
		logger.FromContext(ctx, h.log).WithError(res.Err).WithField("reason", res.Reason).Info("checkout attempt failed")
	}
	respondJSON(w, checkoutStatusCode(res), dto)
}

func checkoutStatusCode(res service.Result) int {
	if res.Succeeded() {
		return http.StatusCreated
	}
	switch res.Reason {
	case domain.ReasonAuthRequired:
		return http.StatusUnauthorized
	case domain.ReasonEmptyCart:
		return http.StatusUnprocessableEntity
	case domain.ReasonInFlight:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
