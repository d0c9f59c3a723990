package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/burgnice/storefront/pkg/db"
	"github.com/burgnice/storefront/pkg/db/models"
	"github.com/burgnice/storefront/pkg/enums"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
)

// Service records checkout submissions and their payment outcomes.
type Service interface {
	RecordAttempt(ctx context.Context, input RecordAttemptInput) (*models.CheckoutAttempt, error)
	MarkOrder(ctx context.Context, orderID string, status enums.CheckoutAttemptStatus, reason string) error
	ListForSession(ctx context.Context, sessionID string, limit int) ([]models.CheckoutAttempt, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

const supersededReason = "superseded by a newer card payment"

type service struct {
	repo Repository
	tx   txRunner
}

// RecordAttemptInput captures one checkout submission.
type RecordAttemptInput struct {
	SessionID      string                      `json:"session_id"`
	UserID         string                      `json:"user_id"`
	OrderID        string                      `json:"order_id"`
	PaymentMethod  enums.PaymentMethod         `json:"payment_method"`
	OrderType      enums.OrderType             `json:"order_type"`
	Status         enums.CheckoutAttemptStatus `json:"status"`
	Subtotal       float64                     `json:"subtotal"`
	DiscountAmount float64                     `json:"discount_amount"`
	Total          float64                     `json:"total"`
	PointsUsed     int                         `json:"points_used"`
	PointsEarned   int                         `json:"points_earned"`
	FailureReason  string                      `json:"failure_reason"`
}

// NewService wires a ledger service with the provided repository and
// transaction runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) RecordAttempt(ctx context.Context, input RecordAttemptInput) (*models.CheckoutAttempt, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, fmt.Errorf("invalid payment method %q", input.PaymentMethod)
	}
	if !input.OrderType.IsValid() {
		return nil, fmt.Errorf("invalid order type %q", input.OrderType)
	}
	if !input.Status.IsValid() {
		return nil, fmt.Errorf("invalid checkout attempt status %q", input.Status)
	}
	if input.PointsUsed < 0 || input.Total < 0 {
		return nil, fmt.Errorf("points used and total must be non-negative")
	}

	attempt := &models.CheckoutAttempt{
		ID:             uuid.NewString(),
		SessionID:      input.SessionID,
		UserID:         input.UserID,
		PaymentMethod:  input.PaymentMethod,
		OrderType:      input.OrderType,
		Status:         input.Status,
		Subtotal:       money(input.Subtotal),
		DiscountAmount: money(input.DiscountAmount),
		Total:          money(input.Total),
		PointsUsed:     input.PointsUsed,
		PointsEarned:   input.PointsEarned,
		FailureReason:  input.FailureReason,
	}
	if id := strings.TrimSpace(input.OrderID); id != "" {
		attempt.OrderID = &id
	}

	if err := s.create(ctx, attempt); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "checkout attempt already recorded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record checkout attempt")
	}
	return attempt, nil
}

// create stores the attempt. A new card attempt replaces any earlier one of
// the session still awaiting payment, so a session awaits at most one payment.
func (s *service) create(ctx context.Context, attempt *models.CheckoutAttempt) error {
	if attempt.Status != enums.CheckoutAttemptStatusAwaitingPayment {
		return s.repo.Create(ctx, attempt)
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.SupersedeAwaiting(ctx, attempt.SessionID, supersededReason); err != nil {
			return err
		}
		return repo.Create(ctx, attempt)
	})
}

func (s *service) MarkOrder(ctx context.Context, orderID string, status enums.CheckoutAttemptStatus, reason string) error {
	if strings.TrimSpace(orderID) == "" {
		return fmt.Errorf("order id is required")
	}
	if !status.IsValid() {
		return fmt.Errorf("invalid checkout attempt status %q", status)
	}

	updated, err := s.repo.UpdateStatusByOrderID(ctx, orderID, status, reason)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update checkout attempt")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "no pending checkout attempt for order").
			WithDetails(map[string]any{"orderId": orderID})
	}
	return nil
}

func (s *service) ListForSession(ctx context.Context, sessionID string, limit int) ([]models.CheckoutAttempt, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	attempts, err := s.repo.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list checkout attempts")
	}
	return attempts, nil
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
