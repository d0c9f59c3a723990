package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/burgnice/storefront/pkg/enums"
)

// CheckoutAttempt is one row of the checkout ledger: a submission and its
// later payment outcome.
type CheckoutAttempt struct {
	ID             string                      `gorm:"column:id;type:varchar(36);primaryKey"`
	SessionID      string                      `gorm:"column:session_id;not null"`
	UserID         string                      `gorm:"column:user_id;not null;default:''"`
	OrderID        *string                     `gorm:"column:order_id"`
	PaymentMethod  enums.PaymentMethod         `gorm:"column:payment_method;not null"`
	OrderType      enums.OrderType             `gorm:"column:order_type;not null"`
	Status         enums.CheckoutAttemptStatus `gorm:"column:status;not null"`
	Subtotal       decimal.Decimal             `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal             `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	Total          decimal.Decimal             `gorm:"column:total;type:numeric(12,2);not null"`
	PointsUsed     int                         `gorm:"column:points_used;not null"`
	PointsEarned   int                         `gorm:"column:points_earned;not null"`
	FailureReason  string                      `gorm:"column:failure_reason;not null;default:''"`
	CreatedAt      time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

func (CheckoutAttempt) TableName() string {
	return "checkout_attempts"
}
