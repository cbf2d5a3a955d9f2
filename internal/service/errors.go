package service

import "errors"

var (
	ErrAuthRequired      = errors.New("checkout requires a signed-in session")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrSubmission        = errors.New("order submission failed")
	ErrCheckoutInFlight  = errors.New("a checkout is already being submitted")
	ErrIllegalTransition = errors.New("illegal transition of checkout status")
	ErrInvalidSession    = errors.New("sign in needs both a user record and a credential")
	ErrPersist           = errors.New("store write failed")
	ErrQuantityRange     = errors.New("quantity out of range")
)

// HydrationFallback records why a model started from its empty state
// instead of what the store held. The store is a cache, so none of these
// are errors.
type HydrationFallback string

const (
	Hydrated           HydrationFallback = ""
	FallbackAbsent     HydrationFallback = "absent"
	FallbackUnreadable HydrationFallback = "unreadable"
	FallbackCorrupt    HydrationFallback = "corrupt"
)
