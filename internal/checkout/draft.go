package checkout

import (
	"strings"
	"time"

	"github.com/burgnice/storefront/internal/cart"
	"github.com/burgnice/storefront/pkg/enums"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
)

// Reason identifies why a draft cannot be submitted.
type Reason string

const (
	ReasonMissingRequiredField Reason = "MissingRequiredField"
	ReasonMissingAddress       Reason = "MissingAddress"
	ReasonEmptyCart            Reason = "EmptyCart"
	ReasonInvalidOrderType     Reason = "InvalidOrderType"
	ReasonInvalidPaymentMethod Reason = "InvalidPaymentMethod"
)

// Draft is the checkout form of a session. PointsUsed and DiscountAmount are
// derived on submit and only echoed back for display.
type Draft struct {
	OrderType        enums.OrderType     `json:"orderType"`
	CustomerName     string              `json:"customerName"`
	ContactPhone     string              `json:"contactPhone"`
	DeliveryAddress  string              `json:"deliveryAddress"`
	Notes            string              `json:"notes"`
	PaymentMethod    enums.PaymentMethod `json:"paymentMethod"`
	UseLoyaltyPoints bool                `json:"useLoyaltyPoints"`
	PointsUsed       int                 `json:"pointsUsed"`
	DiscountAmount   float64             `json:"discountAmount"`
}

// PendingPayment marks a hosted payment the customer was redirected to.
type PendingPayment struct {
	OrderID   string    `json:"orderId"`
	CreatedAt time.Time `json:"timestamp"`
	Total     float64   `json:"total"`
}

// ExpiredAt reports whether the marker is past ttl at now.
func (p PendingPayment) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return !now.Before(p.CreatedAt.Add(ttl))
}

func newDraft(orderType enums.OrderType) Draft {
	if !orderType.IsValid() {
		orderType = enums.OrderTypeDelivery
	}
	return Draft{OrderType: orderType, PaymentMethod: enums.PaymentMethodCOD}
}

// Normalized trims free-text fields and defaults an unset payment method to
// COD. Other enum values are left as sent so that Validate can reject them.
func (d Draft) Normalized() Draft {
	d.CustomerName = strings.TrimSpace(d.CustomerName)
	d.ContactPhone = strings.TrimSpace(d.ContactPhone)
	d.DeliveryAddress = strings.TrimSpace(d.DeliveryAddress)
	d.Notes = strings.TrimSpace(d.Notes)
	d.OrderType = enums.OrderType(strings.ToLower(strings.TrimSpace(string(d.OrderType))))
	d.PaymentMethod = enums.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(d.PaymentMethod))))
	if d.PaymentMethod == "" {
		d.PaymentMethod = enums.PaymentMethodCOD
	}
	return d
}

// Validate checks a draft against the cart it would submit. It performs no
// I/O.
func Validate(draft Draft, lines []cart.Line) error {
	d := draft.Normalized()

	var missing []string
	if d.CustomerName == "" {
		missing = append(missing, "customerName")
	}
	if d.ContactPhone == "" {
		missing = append(missing, "contactPhone")
	}
	if len(missing) > 0 {
		return validationError(ReasonMissingRequiredField, "name and phone are required", map[string]any{"fields": missing})
	}
	if !d.OrderType.IsValid() {
		return validationError(ReasonInvalidOrderType, "order type must be delivery or pickup", map[string]any{"orderType": string(draft.OrderType)})
	}
	if d.OrderType == enums.OrderTypeDelivery && d.DeliveryAddress == "" {
		return validationError(ReasonMissingAddress, "delivery address is required for delivery orders", nil)
	}
	if !d.PaymentMethod.IsValid() {
		return validationError(ReasonInvalidPaymentMethod, "payment method must be COD or CARD", map[string]any{"paymentMethod": string(draft.PaymentMethod)})
	}
	if len(lines) == 0 {
		return validationError(ReasonEmptyCart, "your cart is empty", nil)
	}
	return nil
}

func validationError(reason Reason, message string, extra map[string]any) error {
	details := map[string]any{"reason": string(reason)}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}

// ReasonOf extracts the validation reason from err, or "".
func ReasonOf(err error) Reason {
	return Reason(pkgerrors.DetailString(err, "reason"))
}
