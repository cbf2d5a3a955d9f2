package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutEvent describes how one checkout attempt ended.
type CheckoutEvent struct {
	AttemptID     string          `json:"attempt_id"`
	Status        CheckoutStatus  `json:"status"`
	Reason        FailureReason   `json:"reason,omitempty"`
	UserID        json.RawMessage `json:"user_id,omitempty"`
	LineCount     int             `json:"line_count"`
	TotalQuantity int             `json:"total_quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
