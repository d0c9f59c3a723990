package controllers

import (
	"net/http"
	"strings"

	"github.com/burgnice/storefront/api/middleware"
	"github.com/burgnice/storefront/api/responses"
	"github.com/burgnice/storefront/api/validators"
	"github.com/burgnice/storefront/internal/checkout"
	"github.com/burgnice/storefront/pkg/enums"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/logger"
)

// CheckoutDraftRequest is the checkout form. Required fields are checked by
// the checkout service so that failures carry a reason code; the tags here
// only bound the payload. pointsUsed and discountAmount are accepted for
// compatibility and recomputed server side.
type CheckoutDraftRequest struct {
	OrderType        string  `json:"orderType" validate:"max=16"`
	CustomerName     string  `json:"customerName" validate:"max=120"`
	ContactPhone     string  `json:"contactPhone" validate:"max=32"`
	DeliveryAddress  string  `json:"deliveryAddress" validate:"max=300"`
	Notes            string  `json:"notes" validate:"max=500"`
	PaymentMethod    string  `json:"paymentMethod" validate:"max=8"`
	UseLoyaltyPoints bool    `json:"useLoyaltyPoints"`
	PointsUsed       int     `json:"pointsUsed"`
	DiscountAmount   float64 `json:"discountAmount"`
}

func (r CheckoutDraftRequest) toDraft() checkout.Draft {
	return checkout.Draft{
		OrderType:        enums.OrderType(r.OrderType),
		CustomerName:     r.CustomerName,
		ContactPhone:     r.ContactPhone,
		DeliveryAddress:  r.DeliveryAddress,
		Notes:            r.Notes,
		PaymentMethod:    enums.PaymentMethod(r.PaymentMethod),
		UseLoyaltyPoints: r.UseLoyaltyPoints,
	}
}

type OrderTypeRequest struct {
	OrderType string `json:"orderType" validate:"required,max=16"`
}

type OrderTypeResponse struct {
	OrderType enums.OrderType `json:"orderType"`
}

type VerifyPaymentRequest struct {
	OrderID string `json:"orderId" validate:"max=128"`
}

type PendingPaymentResponse struct {
	Pending bool                     `json:"pending"`
	Payment *checkout.PendingPayment `json:"payment,omitempty"`
}

func CheckoutDraftFetch(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		draft, err := svc.LoadDraft(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, draft)
	}
}

func CheckoutDraftSave(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body CheckoutDraftRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := svc.SaveDraft(r.Context(), middleware.SessionIDFromContext(r.Context()), body.toDraft())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, draft)
	}
}

func CheckoutOrderTypeFetch(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		orderType, err := svc.OrderType(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, OrderTypeResponse{OrderType: orderType})
	}
}

// CheckoutOrderTypeSet stores the delivery/pickup preference of the tab.
func CheckoutOrderTypeSet(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body OrderTypeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderType := enums.OrderType(strings.ToLower(strings.TrimSpace(body.OrderType)))
		if err := svc.SetOrderType(r.Context(), middleware.SessionIDFromContext(r.Context()), orderType); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, OrderTypeResponse{OrderType: orderType})
	}
}

// CheckoutQuote prices the current cart, optionally redeeming loyalty points
// (?useLoyaltyPoints=true).
func CheckoutQuote(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		useLoyalty, err := validators.ParseQueryBool(r, "useLoyaltyPoints", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), middleware.SessionIDFromContext(r.Context()), useLoyalty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

// CheckoutSubmit places a cash order or starts a hosted card payment.
func CheckoutSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body CheckoutDraftRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), middleware.SessionIDFromContext(r.Context()), body.toDraft())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.PaymentMethod == enums.PaymentMethodCard {
			responses.WriteSuccess(w, result)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func CheckoutPendingPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		marker, ok, err := svc.PendingPayment(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := PendingPaymentResponse{Pending: ok}
		if ok {
			resp.Payment = marker
		}
		responses.WriteSuccess(w, resp)
	}
}

// CheckoutVerifyPayment confirms a hosted payment. The order id defaults to
// the pending marker of the tab.
func CheckoutVerifyPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var body VerifyPaymentRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID := strings.TrimSpace(body.OrderID)
		if orderID == "" {
			orderID = strings.TrimSpace(r.URL.Query().Get("orderId"))
		}

		result, err := svc.VerifyPayment(r.Context(), middleware.SessionIDFromContext(r.Context()), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func CheckoutCancelPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		if err := svc.CancelPayment(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, PendingPaymentResponse{Pending: false})
	}
}
