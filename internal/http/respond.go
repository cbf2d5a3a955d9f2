package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

// money renders an amount the way the storefront shows it, two decimals.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleBackendError maps a failed backend call onto a gateway status.
func handleBackendError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	logger.FromContext(r.Context(), log).WithError(err).Warn("backend call failed")

	switch code := backend.StatusCode(err); {
	case errors.Is(err, backend.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "backend_unavailable", "backend is temporarily unavailable")
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		respondError(w, http.StatusUnauthorized, "unauthenticated", "backend rejected the credential")
	case code == http.StatusNotFound:
		respondError(w, http.StatusNotFound, "not_found", "backend resource not found")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "backend did not answer in time")
	default:
		respondError(w, http.StatusBadGateway, "backend_error", "backend request failed")
	}
}
