// Package checkout turns a session's cart and checkout draft into an order,
// either placed directly (cash on fulfillment) or through a hosted payment page
// that is confirmed later.
package checkout

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/burgnice/storefront/internal/cart"
	"github.com/burgnice/storefront/internal/cartsync"
	"github.com/burgnice/storefront/internal/events"
	"github.com/burgnice/storefront/internal/ledger"
	"github.com/burgnice/storefront/internal/loyalty"
	"github.com/burgnice/storefront/internal/session"
	"github.com/burgnice/storefront/pkg/enums"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/logger"
	"github.com/burgnice/storefront/pkg/metrics"
	"github.com/burgnice/storefront/pkg/upstream"
)

const (
	lockOperation     = "checkout_submit"
	defaultPendingTTL = time.Hour
	failedOrderMsg    = "failed to place order"
	ledgerLookback    = 20
)

type sessionLoader interface {
	Load(ctx context.Context, sessionID string) (*session.State, error)
}

type cartService interface {
	View(ctx context.Context, sessionID string) (*cartsync.Result, error)
	Clear(ctx context.Context, sessionID string) (*cartsync.Result, error)
}

type guestClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

type stateStore interface {
	Draft(ctx context.Context, sessionID string) (*Draft, bool, error)
	SaveDraft(ctx context.Context, sessionID string, draft Draft) error
	ClearDraft(ctx context.Context, sessionID string) error
	OrderType(ctx context.Context, sessionID string) (enums.OrderType, bool, error)
	SaveOrderType(ctx context.Context, sessionID string, orderType enums.OrderType) error
	Pending(ctx context.Context, sessionID string) (*PendingPayment, bool, error)
	SavePending(ctx context.Context, sessionID string, marker PendingPayment, ttl time.Duration) error
	ClearPending(ctx context.Context, sessionID string) error
}

type orderAPI interface {
	CreateOrder(ctx context.Context, token string, req upstream.OrderRequest) (upstream.Order, error)
	GetOrderByID(ctx context.Context, token, orderID string) (upstream.Order, error)
	CreatePaymentSession(ctx context.Context, token string, req upstream.OrderRequest) (upstream.PaymentSession, error)
	CheckPaymentStatus(ctx context.Context, token, orderID string) (upstream.PaymentStatus, error)
}

type locker interface {
	TryLock(ctx context.Context, operation, sessionID string) (func(context.Context) error, bool, error)
}

// Service executes checkout orchestration.
type Service interface {
	LoadDraft(ctx context.Context, sessionID string) (*Draft, error)
	SaveDraft(ctx context.Context, sessionID string, draft Draft) (*Draft, error)
	OrderType(ctx context.Context, sessionID string) (enums.OrderType, error)
	SetOrderType(ctx context.Context, sessionID string, orderType enums.OrderType) error

	Quote(ctx context.Context, sessionID string, useLoyalty bool) (*Quote, error)
	Submit(ctx context.Context, sessionID string, draft Draft) (*SubmitResult, error)

	// PendingPayment returns the unexpired marker. An expired marker is
	// deleted and reported absent.
	PendingPayment(ctx context.Context, sessionID string) (*PendingPayment, bool, error)
	HasPendingPayment(ctx context.Context, sessionID string) (bool, error)
	VerifyPayment(ctx context.Context, sessionID, orderID string) (*VerifyResult, error)
	CancelPayment(ctx context.Context, sessionID string) error

	// Discard drops the draft and pending marker, used on logout.
	Discard(ctx context.Context, sessionID string) error
}

// Options tunes the orchestrator. Zero values fall back to defaults.
type Options struct {
	Policy     loyalty.Policy
	PendingTTL time.Duration
	SuccessURL string
	CancelURL  string
	Now        func() time.Time
}

// Quote is the price breakdown of the current cart.
type Quote struct {
	ItemCount        int     `json:"itemCount"`
	Subtotal         float64 `json:"subtotal"`
	PointsAvailable  int     `json:"pointsAvailable"`
	UseLoyaltyPoints bool    `json:"useLoyaltyPoints"`
	PointsUsed       int     `json:"pointsUsed"`
	Discount         float64 `json:"discountAmount"`
	Total            float64 `json:"total"`
	PointsEarned     int     `json:"pointsEarned"`
}

// SubmitResult is returned by Submit. RedirectURL is set for card payments,
// Order for cash orders.
type SubmitResult struct {
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	OrderID       string              `json:"orderId"`
	RedirectURL   string              `json:"redirectUrl,omitempty"`
	Order         *upstream.Order     `json:"order,omitempty"`
	Quote         Quote               `json:"quote"`
	PointsEarned  int                 `json:"pointsEarned"`
	PointsUsed    int                 `json:"pointsUsed"`
}

// VerifyResult reports a payment check. Paid=false leaves every piece of
// session state as it was.
type VerifyResult struct {
	OrderID string          `json:"orderId"`
	Paid    bool            `json:"paid"`
	Status  string          `json:"status,omitempty"`
	Order   *upstream.Order `json:"order,omitempty"`
	Message string          `json:"message,omitempty"`
}

type service struct {
	sessions   sessionLoader
	carts      cartService
	guest      guestClearer
	store      stateStore
	api        orderAPI
	locks      locker
	ledger     ledger.Service
	bus        events.Publisher
	metrics    *metrics.StorefrontMetrics
	logg       *logger.Logger
	policy     loyalty.Policy
	pendingTTL time.Duration
	successURL string
	cancelURL  string
	now        func() time.Time
}

// NewService builds the checkout service.
func NewService(
	sessions sessionLoader,
	carts cartService,
	guest guestClearer,
	store stateStore,
	api orderAPI,
	locks locker,
	ledgerSvc ledger.Service,
	bus events.Publisher,
	m *metrics.StorefrontMetrics,
	logg *logger.Logger,
	opts Options,
) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if guest == nil {
		return nil, fmt.Errorf("guest cart store required")
	}
	if store == nil {
		return nil, fmt.Errorf("checkout store required")
	}
	if api == nil {
		return nil, fmt.Errorf("order api required")
	}
	if locks == nil {
		return nil, fmt.Errorf("locker required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if bus == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	policy := opts.Policy
	if policy == (loyalty.Policy{}) {
		policy = loyalty.DefaultPolicy()
	}
	ttl := opts.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		sessions:   sessions,
		carts:      carts,
		guest:      guest,
		store:      store,
		api:        api,
		locks:      locks,
		ledger:     ledgerSvc,
		bus:        bus,
		metrics:    m,
		logg:       logg,
		policy:     policy,
		pendingTTL: ttl,
		successURL: opts.SuccessURL,
		cancelURL:  opts.CancelURL,
		now:        now,
	}, nil
}

func (s *service) LoadDraft(ctx context.Context, sessionID string) (*Draft, error) {
	draft, ok, err := s.store.Draft(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout draft")
	}
	if ok {
		return draft, nil
	}
	orderType, err := s.OrderType(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	fresh := newDraft(orderType)
	return &fresh, nil
}

// SaveDraft stores the form as typed. A valid order type also becomes the
// session preference.
func (s *service) SaveDraft(ctx context.Context, sessionID string, draft Draft) (*Draft, error) {
	d := draft.Normalized()
	if d.OrderType != "" && !d.OrderType.IsValid() {
		return nil, validationError(ReasonInvalidOrderType, "order type must be delivery or pickup", nil)
	}
	if !d.PaymentMethod.IsValid() {
		return nil, validationError(ReasonInvalidPaymentMethod, "payment method must be COD or CARD", nil)
	}
	if d.OrderType == "" {
		current, err := s.OrderType(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		d.OrderType = current
	}
	if err := s.store.SaveDraft(ctx, sessionID, d); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout draft")
	}
	if err := s.SetOrderType(ctx, sessionID, d.OrderType); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *service) OrderType(ctx context.Context, sessionID string) (enums.OrderType, error) {
	orderType, ok, err := s.store.OrderType(ctx, sessionID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order type")
	}
	if !ok {
		return enums.OrderTypeDelivery, nil
	}
	return orderType, nil
}

// SetOrderType persists the preference and announces it only when it changed.
func (s *service) SetOrderType(ctx context.Context, sessionID string, orderType enums.OrderType) error {
	if !orderType.IsValid() {
		return validationError(ReasonInvalidOrderType, "order type must be delivery or pickup", map[string]any{"orderType": string(orderType)})
	}
	current, ok, err := s.store.OrderType(ctx, sessionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order type")
	}
	if ok && current == orderType {
		return nil
	}
	if err := s.store.SaveOrderType(ctx, sessionID, orderType); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order type")
	}
	s.bus.Publish(sessionID, events.OrderTypeChanged{OrderType: orderType})
	return nil
}

func (s *service) Quote(ctx context.Context, sessionID string, useLoyalty bool) (*Quote, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view, err := s.carts.View(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	q := s.quote(view.Lines, availablePoints(state), useLoyalty)
	return &q, nil
}

func (s *service) quote(lines []cart.Line, available int, useLoyalty bool) Quote {
	totals := cart.ComputeTotals(lines)
	pointsUsed, discount := s.policy.Redemption(available, useLoyalty)
	return Quote{
		ItemCount:        totals.Count,
		Subtotal:         totals.Total,
		PointsAvailable:  available,
		UseLoyaltyPoints: useLoyalty,
		PointsUsed:       pointsUsed,
		Discount:         discount,
		Total:            s.policy.FinalTotal(totals.Total, discount),
		PointsEarned:     s.policy.PointsEarned(totals.Total),
	}
}

func availablePoints(state *session.State) int {
	if !state.Authenticated() {
		return 0
	}
	return state.User.LoyaltyPoints
}

func (s *service) Submit(ctx context.Context, sessionID string, draft Draft) (*SubmitResult, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !state.Authenticated() {
		s.bus.Publish(sessionID, events.OpenAuthModal{Reason: "checkout"})
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "please sign in to place your order")
	}
	draft = draft.Normalized()

	release, ok, err := s.locks.TryLock(ctx, lockOperation, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire checkout lock")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an order is already being submitted")
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", relErr.Error()), "release checkout lock failed")
		}
	}()

	view, err := s.carts.View(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := Validate(draft, view.Lines); err != nil {
		return nil, err
	}

	if draft.PaymentMethod == enums.PaymentMethodCard {
		marker, pending, err := s.PendingPayment(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if pending {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a card payment is already pending for this session").
				WithDetails(map[string]any{"orderId": marker.OrderID})
		}
	}

	done := s.metrics.Track(metrics.OpCheckoutSubmit)
	quote := s.quote(view.Lines, availablePoints(state), draft.UseLoyaltyPoints)
	draft.PointsUsed = quote.PointsUsed
	draft.DiscountAmount = quote.Discount
	req := orderRequest(draft, view.Lines, quote)

	ctx = s.logg.WithFields(ctx, map[string]any{
		"payment_method": string(draft.PaymentMethod),
		"order_type":     string(draft.OrderType),
	})

	var res *SubmitResult
	if draft.PaymentMethod == enums.PaymentMethodCard {
		res, err = s.submitCard(ctx, state, draft, req, quote)
	} else {
		res, err = s.submitCOD(ctx, state, req, quote)
	}
	if err != nil {
		done(metrics.OutcomeFailure)
		s.recordAttempt(ctx, state, draft, quote, "", enums.CheckoutAttemptStatusFailed, pkgerrors.As(err).Message())
		return nil, err
	}
	done(metrics.OutcomeSuccess)
	return res, nil
}

func (s *service) submitCard(ctx context.Context, state *session.State, draft Draft, req upstream.OrderRequest, quote Quote) (*SubmitResult, error) {
	req.SuccessURL = s.successURL
	req.CancelURL = s.cancelURL

	payment, err := s.api.CreatePaymentSession(ctx, state.Token, req)
	if err != nil {
		s.logg.Error(ctx, "payment session creation failed", err)
		return nil, submissionError(err)
	}
	if payment.URL == "" || payment.OrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, failedOrderMsg)
	}

	marker := PendingPayment{OrderID: payment.OrderID, CreatedAt: s.now().UTC(), Total: quote.Total}
	// No redirect without a marker to verify against.
	if err := s.store.SavePending(ctx, state.ID, marker, s.pendingTTL); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "order_id", payment.OrderID), "saving pending payment marker failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not start your payment, please try again")
	}
	if err := s.store.SaveDraft(ctx, state.ID, draft); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "saving checkout draft failed")
	}
	s.recordAttempt(ctx, state, draft, quote, payment.OrderID, enums.CheckoutAttemptStatusAwaitingPayment, "")

	s.logg.Info(s.logg.WithField(ctx, "order_id", payment.OrderID), "redirecting to hosted payment")
	return &SubmitResult{
		PaymentMethod: enums.PaymentMethodCard,
		OrderID:       payment.OrderID,
		RedirectURL:   payment.URL,
		Quote:         quote,
		PointsEarned:  quote.PointsEarned,
		PointsUsed:    quote.PointsUsed,
	}, nil
}

func (s *service) submitCOD(ctx context.Context, state *session.State, req upstream.OrderRequest, quote Quote) (*SubmitResult, error) {
	req.Status = string(enums.OrderStatusPending)

	order, err := s.api.CreateOrder(ctx, state.Token, req)
	if err != nil {
		s.logg.Error(ctx, "order creation failed", err)
		return nil, submissionError(err)
	}

	if err := s.clearAfterOrder(ctx, state.ID); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"order_id": order.ID, "error": err.Error()}), "cleanup after order incomplete")
	}
	draft := Draft{OrderType: enums.OrderType(req.OrderType), PaymentMethod: enums.PaymentMethodCOD, UseLoyaltyPoints: req.UseLoyaltyPoints}
	s.recordAttempt(ctx, state, draft, quote, order.ID, enums.CheckoutAttemptStatusPlaced, "")

	earned := order.LoyaltyPointsEarned
	if earned == 0 {
		earned = quote.PointsEarned
	}
	s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID), "order placed")
	return &SubmitResult{
		PaymentMethod: enums.PaymentMethodCOD,
		OrderID:       order.ID,
		Order:         &order,
		Quote:         quote,
		PointsEarned:  earned,
		PointsUsed:    quote.PointsUsed,
	}, nil
}

// clearAfterOrder empties both cart tiers and the draft. Every step runs even
// when an earlier one fails.
func (s *service) clearAfterOrder(ctx context.Context, sessionID string) error {
	var errs error
	if _, err := s.carts.Clear(ctx, sessionID); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("clear cart: %w", err))
	}
	if err := s.guest.Clear(ctx, sessionID); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("clear guest cart: %w", err))
	}
	if err := s.store.ClearDraft(ctx, sessionID); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

func (s *service) PendingPayment(ctx context.Context, sessionID string) (*PendingPayment, bool, error) {
	marker, ok, err := s.store.Pending(ctx, sessionID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending payment")
	}
	if !ok {
		return nil, false, nil
	}
	if marker.ExpiredAt(s.now(), s.pendingTTL) {
		if err := s.store.ClearPending(ctx, sessionID); err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear expired pending payment")
		}
		return nil, false, nil
	}
	return marker, true, nil
}

func (s *service) HasPendingPayment(ctx context.Context, sessionID string) (bool, error) {
	_, ok, err := s.PendingPayment(ctx, sessionID)
	return ok, err
}

// VerifyPayment confirms a hosted payment. A failed status check is reported
// as not paid rather than as an error.
func (s *service) VerifyPayment(ctx context.Context, sessionID, orderID string) (*VerifyResult, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !state.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "please sign in to confirm your payment")
	}

	marker, hasMarker, err := s.PendingPayment(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if orderID == "" {
		if !hasMarker {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
		}
		orderID = marker.OrderID
	}
	ctx = s.logg.WithField(ctx, "order_id", orderID)
	done := s.metrics.Track(metrics.OpPaymentVerify)

	status, err := s.api.CheckPaymentStatus(ctx, state.Token, orderID)
	if err != nil {
		done(metrics.OutcomeFailure)
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "payment status check failed")
		return &VerifyResult{OrderID: orderID, Message: "we could not confirm your payment yet"}, nil
	}
	if !status.Paid {
		done(metrics.OutcomeUnpaid)
		return &VerifyResult{OrderID: orderID, Status: status.Status, Message: "payment not completed"}, nil
	}

	// Only the payment this session is waiting on may empty its cart.
	current := hasMarker && marker.OrderID == orderID
	if !hasMarker {
		current = s.awaitingInLedger(ctx, sessionID, orderID)
	}
	if current {
		if err := s.clearAfterOrder(ctx, sessionID); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cleanup after payment incomplete")
		}
		if hasMarker {
			if err := s.store.ClearPending(ctx, sessionID); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "clearing pending payment failed")
			}
		}
	} else {
		s.logg.Info(ctx, "paid order is not the pending payment, cart kept")
	}
	s.markOrder(ctx, orderID, enums.CheckoutAttemptStatusPaid, "")

	order := status.Order
	if order == nil {
		fetched, err := s.api.GetOrderByID(ctx, state.Token, orderID)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "loading paid order failed")
		} else {
			order = &fetched
		}
	}
	done(metrics.OutcomeSuccess)
	s.logg.Info(ctx, "payment confirmed")
	return &VerifyResult{OrderID: orderID, Paid: true, Status: status.Status, Order: order}, nil
}

// CancelPayment drops the pending marker and keeps the cart and draft so the
// customer can retry.
func (s *service) CancelPayment(ctx context.Context, sessionID string) error {
	marker, ok, err := s.store.Pending(ctx, sessionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending payment")
	}
	if err := s.store.ClearPending(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear pending payment")
	}
	if ok {
		s.markOrder(ctx, marker.OrderID, enums.CheckoutAttemptStatusCancelled, "cancelled by customer")
	}
	return nil
}

func (s *service) Discard(ctx context.Context, sessionID string) error {
	return multierr.Combine(
		s.store.ClearDraft(ctx, sessionID),
		s.store.ClearPending(ctx, sessionID),
	)
}

// awaitingInLedger reports whether this session submitted orderID and it is
// still awaiting payment, as when the pending marker expired before return.
func (s *service) awaitingInLedger(ctx context.Context, sessionID, orderID string) bool {
	attempts, err := s.ledger.ListForSession(ctx, sessionID, ledgerLookback)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "loading checkout attempts failed")
		return false
	}
	for _, a := range attempts {
		if a.OrderID != nil && *a.OrderID == orderID && a.Status == enums.CheckoutAttemptStatusAwaitingPayment {
			return true
		}
	}
	return false
}

func (s *service) recordAttempt(ctx context.Context, state *session.State, draft Draft, quote Quote, orderID string, status enums.CheckoutAttemptStatus, reason string) {
	_, err := s.ledger.RecordAttempt(ctx, ledger.RecordAttemptInput{
		SessionID:      state.ID,
		UserID:         state.UserID(),
		OrderID:        orderID,
		PaymentMethod:  draft.PaymentMethod,
		OrderType:      draft.OrderType,
		Status:         status,
		Subtotal:       quote.Subtotal,
		DiscountAmount: quote.Discount,
		Total:          quote.Total,
		PointsUsed:     quote.PointsUsed,
		PointsEarned:   quote.PointsEarned,
		FailureReason:  reason,
	})
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "recording checkout attempt failed")
	}
}

func (s *service) markOrder(ctx context.Context, orderID string, status enums.CheckoutAttemptStatus, reason string) {
	err := s.ledger.MarkOrder(ctx, orderID, status, reason)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "updating checkout attempt failed")
	}
}

// submissionError keeps a backend rejection as is and turns anything else into
// the generic failure.
func submissionError(err error) error {
	if pkgerrors.IsCode(err, pkgerrors.CodeUpstream) || pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		return err
	}
	if msg := upstream.UpstreamMessage(err); msg != "" {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, failedOrderMsg)
}

func orderRequest(draft Draft, lines []cart.Line, quote Quote) upstream.OrderRequest {
	items := make([]upstream.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, upstream.OrderItem{
			ItemID:    line.ItemID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	req := upstream.OrderRequest{
		Items:               items,
		OrderType:           string(draft.OrderType),
		CustomerName:        draft.CustomerName,
		ContactPhone:        draft.ContactPhone,
		Notes:               draft.Notes,
		PaymentMethod:       string(draft.PaymentMethod),
		Subtotal:            quote.Subtotal,
		Total:               quote.Total,
		UseLoyaltyPoints:    draft.UseLoyaltyPoints,
		PointsUsed:          quote.PointsUsed,
		DiscountAmount:      quote.Discount,
		LoyaltyPointsEarned: quote.PointsEarned,
	}
	if draft.OrderType == enums.OrderTypeDelivery {
		req.DeliveryAddress = draft.DeliveryAddress
	}
	return req
}
