package enums

import "fmt"

// CheckoutAttemptStatus records the outcome of a checkout submission in the ledger.
type CheckoutAttemptStatus string

const (
	CheckoutAttemptStatusPlaced          CheckoutAttemptStatus = "placed"
	CheckoutAttemptStatusAwaitingPayment CheckoutAttemptStatus = "awaiting_payment"
	CheckoutAttemptStatusPaid            CheckoutAttemptStatus = "paid"
	CheckoutAttemptStatusCancelled       CheckoutAttemptStatus = "cancelled"
	CheckoutAttemptStatusFailed          CheckoutAttemptStatus = "failed"
)

var validCheckoutAttemptStatuses = []CheckoutAttemptStatus{
	CheckoutAttemptStatusPlaced,
	CheckoutAttemptStatusAwaitingPayment,
	CheckoutAttemptStatusPaid,
	CheckoutAttemptStatusCancelled,
	CheckoutAttemptStatusFailed,
}

// String implements fmt.Stringer.
func (c CheckoutAttemptStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutAttemptStatus.
func (c CheckoutAttemptStatus) IsValid() bool {
	for _, candidate := range validCheckoutAttemptStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutAttemptStatus converts raw input into a CheckoutAttemptStatus.
func ParseCheckoutAttemptStatus(value string) (CheckoutAttemptStatus, error) {
	for _, candidate := range validCheckoutAttemptStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout attempt status %q", value)
}
