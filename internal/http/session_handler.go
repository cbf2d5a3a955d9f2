package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/sirupsen/logrus"
)

type SessionHandler struct {
	app     *app.App
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewSessionHandler(a *app.App, log logrus.FieldLogger, timeout time.Duration) *SessionHandler {
	return &SessionHandler{app: a, log: log, timeout: timeout}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GET /api/v1/session
func (h *SessionHandler) GetNavbar(w http.ResponseWriter, r *http.Request) {
	h.app.Load(r.Context())
	respondJSON(w, http.StatusOK, h.app.Navbar())
}

// POST /api/v1/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "missing_credentials", "email and password are required")
		return
	}

	_, err := h.app.Login(ctx, req.Email, req.Password)
	switch code := backend.StatusCode(err); {
	case err == nil:
		respondJSON(w, http.StatusOK, h.app.Navbar())
	case code == http.StatusBadRequest || code == http.StatusUnauthorized || code == http.StatusForbidden:
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is wrong")
	case errors.Is(err, service.ErrInvalidSession):
		logger.FromContext(ctx, h.log).WithError(err).Error("backend returned an unusable session")
		respondError(w, http.StatusBadGateway, "backend_error", "backend returned an unusable session")
	case errors.Is(err, service.ErrPersist):
		logger.FromContext(ctx, h.log).WithError(err).Error("session not saved")
		respondError(w, http.StatusInternalServerError, "persist_failed", "session could not be saved")
	default:
		handleBackendError(w, r, h.log, err)
	}
}

// DELETE /api/v1/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Logout(r.Context()); err != nil {
		if h.app.Session.IsAuthenticated() {
			respondError(w, http.StatusInternalServerError, "sign_out_failed", "stored session could not be removed")
			return
		}
		logger.FromContext(r.Context(), h.log).WithError(err).Warn("signed out with a partly removed session")
	}
	w.WriteHeader(http.StatusNoContent)
}
