package services

import (
	"errors"
	"fmt"
	"time"
)

// Error taxonomy for the ordering and booking paths. Handlers map these to
// user-facing replies; only a store failure may produce a generic
// retry-later answer.
var (
	ErrUnknownTenant   = errors.New("unknown tenant")
	ErrItemUnavailable = errors.New("item not on the live menu")
	ErrTenantClosed    = errors.New("tenant is closed")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrOrdersDisabled  = errors.New("orders are disabled")
	ErrBookingDisabled = errors.New("booking is disabled")

	// ErrRecipientUnreachable is returned by the gateway when a send fails
	// permanently (recipient blocked the bot or deleted their account).
	ErrRecipientUnreachable = errors.New("recipient unreachable")
)

// RateLimitedError rejects a checkout attempted inside the tenant's
// rate-limit window.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// ValidationError rejects malformed user input (bad quantity, bad date/time,
// bad party size). Hint is shown to the user; the same step is re-entered.
type ValidationError struct {
	Hint string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Hint
}

// StoreError wraps any key-value store failure. Callers must not assume any
// partial write succeeded.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return "store unavailable: " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Err: err}
}

// IsStoreUnavailable reports whether err is a store failure.
func IsStoreUnavailable(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
