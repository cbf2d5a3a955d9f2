package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OrderSubmitter sends an order to the backend. A nil error means the
// backend accepted it.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, credential, idempotencyKey string, order domain.Order) error
}

// EventPublisher receives the outcome of each checkout attempt.
type EventPublisher interface {
	PublishCheckout(ctx context.Context, event domain.CheckoutEvent) error
}

const (
	MessageOrderConfirmed = "Order confirmed!"
	MessageAuthRequired   = "You must sign in to confirm your order."
	MessageEmptyCart      = "Your cart is empty."
	MessageSubmission     = "Could not confirm your order."
	MessageInFlight       = "Your order is already being submitted."
)

// Result is what one Submit call reports back to the page.
type Result struct {
	AttemptID string
	Status    domain.CheckoutStatus
	Reason    domain.FailureReason
	Message   string
	// Trail lists every status the attempt passed through, Idle first.
	Trail []domain.CheckoutStatus
	Order *domain.Order
	Err   error
}

func (r Result) Succeeded() bool {
	return r.Status == domain.CheckoutStatusSucceeded
}

// CheckoutWorkflow runs checkout attempts. Each Submit is a fresh attempt;
// only one may be in flight at a time.
type CheckoutWorkflow struct {
	cart     *CartModel
	session  *SessionModel
	orders   OrderSubmitter
	events   EventPublisher
	log      logrus.FieldLogger
	inFlight atomic.Bool
	newID    func() string
	now      func() time.Time
}

// NewCheckoutWorkflow wires a workflow. events may be nil.
func NewCheckoutWorkflow(
	cart *CartModel,
	session *SessionModel,
	orders OrderSubmitter,
	events EventPublisher,
	log logrus.FieldLogger,
) *CheckoutWorkflow {
	return &CheckoutWorkflow{
		cart:    cart,
		session: session,
		orders:  orders,
		events:  events,
		log:     log,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// InFlight reports whether an attempt is currently validating or submitting.
func (w *CheckoutWorkflow) InFlight() bool {
	return w.inFlight.Load()
}

type attempt struct {
	id     string
	status domain.CheckoutStatus
	trail  []domain.CheckoutStatus
}

func newAttempt(id string) *attempt {
	return &attempt{
		id:     id,
		status: domain.CheckoutStatusIdle,
		trail:  []domain.CheckoutStatus{domain.CheckoutStatusIdle},
	}
}

func (a *attempt) moveTo(next domain.CheckoutStatus) error {
	if !domain.CanTransitionTo(a.status, next) {
		return ErrIllegalTransition
	}
	a.status = next
	a.trail = append(a.trail, next)
	return nil
}

func (a *attempt) result(reason domain.FailureReason, message string, err error) Result {
	trail := make([]domain.CheckoutStatus, len(a.trail))
	copy(trail, a.trail)
	return Result{
		AttemptID: a.id,
		Status:    a.status,
		Reason:    reason,
		Message:   message,
		Trail:     trail,
		Err:       err,
	}
}
