package service

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/sirupsen/logrus"
)

// Submit runs one checkout attempt to completion. It never panics on a
// failed attempt; every outcome is reported in the Result.
func (w *CheckoutWorkflow) Submit(ctx context.Context) Result {
	if !w.inFlight.CompareAndSwap(false, true) {
		a := newAttempt(w.newID())
		res := a.result(domain.ReasonInFlight, MessageInFlight, ErrCheckoutInFlight)
		res.Status = domain.CheckoutStatusFailed
		logger.FromContext(ctx, w.log).Warn("checkout rejected, another attempt is in flight")
		return res
	}
	defer w.inFlight.Store(false)

	a := newAttempt(w.newID())
	log := logger.FromContext(ctx, w.log).WithField("attempt_id", a.id)

	if err := a.moveTo(domain.CheckoutStatusValidating); err != nil {
		return a.result(domain.ReasonSubmissionError, MessageSubmission, err)
	}

	session, cart, reason, err := w.validate()
	if err != nil {
		res := w.fail(a, reason, err)
		log.WithField("reason", reason).Info("checkout validation failed")
		w.publish(ctx, log, res, session, cart)
		return res
	}

	if err := a.moveTo(domain.CheckoutStatusSubmitting); err != nil {
		return a.result(domain.ReasonSubmissionError, MessageSubmission, err)
	}
	order := domain.NewOrder(cart, session.User)

	res := w.submit(ctx, log, a, session, order)
	res.Order = &order
	w.publish(ctx, log, res, session, cart)
	return res
}

// validate checks the session before the cart, both locally.
func (w *CheckoutWorkflow) validate() (domain.Session, domain.Cart, domain.FailureReason, error) {
	session := w.session.Session()
	if !session.IsAuthenticated() {
		return session, domain.Cart{}, domain.ReasonAuthRequired, ErrAuthRequired
	}
	cart := w.cart.Cart()
	if cart.IsEmpty() {
		return session, cart, domain.ReasonEmptyCart, ErrEmptyCart
	}
	return session, cart, domain.ReasonNone, nil
}

func (w *CheckoutWorkflow) submit(
	ctx context.Context,
	log logrus.FieldLogger,
	a *attempt,
	session domain.Session,
	order domain.Order,
) Result {
	if err := w.orders.SubmitOrder(ctx, session.Credential, a.id, order); err != nil {
		log.WithError(err).Warn("order submission failed, cart kept for retry")
		return w.fail(a, domain.ReasonSubmissionError, fmt.Errorf("%w: %w", ErrSubmission, err))
	}

	if err := a.moveTo(domain.CheckoutStatusSucceeded); err != nil {
		return a.result(domain.ReasonNone, MessageOrderConfirmed, err)
	}

	var clearErr error
	if _, err := w.cart.Clear(ctx); err != nil {
		// the order exists on the backend; report success and surface the write failure
		clearErr = fmt.Errorf("order confirmed but clearing the cart failed: %w", err)
		log.WithError(err).Error("failed to clear cart after confirmed order")
	}
	log.WithField("lines", len(order.Items)).Info("order confirmed")
	return a.result(domain.ReasonNone, MessageOrderConfirmed, clearErr)
}

func (w *CheckoutWorkflow) fail(a *attempt, reason domain.FailureReason, err error) Result {
	if moveErr := a.moveTo(domain.CheckoutStatusFailed); moveErr != nil {
		err = fmt.Errorf("%w: %w", moveErr, err)
	}
	return a.result(reason, failureMessage(reason), err)
}

func failureMessage(reason domain.FailureReason) string {
	switch reason {
	case domain.ReasonAuthRequired:
		return MessageAuthRequired
	case domain.ReasonEmptyCart:
		return MessageEmptyCart
	case domain.ReasonInFlight:
		return MessageInFlight
	default:
		return MessageSubmission
	}
}

func (w *CheckoutWorkflow) publish(
	ctx context.Context,
	log logrus.FieldLogger,
	res Result,
	session domain.Session,
	cart domain.Cart,
) {
	if w.events == nil {
		return
	}
	event := domain.CheckoutEvent{
		AttemptID:     res.AttemptID,
		Status:        res.Status,
		Reason:        res.Reason,
		UserID:        session.User.ID(),
		LineCount:     len(cart.Items),
		TotalQuantity: cart.TotalQuantity(),
		Subtotal:      cart.Subtotal(),
		OccurredAt:    w.now().UTC(),
	}
	if err := w.events.PublishCheckout(ctx, event); err != nil {
		log.WithError(err).Warn("failed to publish checkout event")
	}
}
