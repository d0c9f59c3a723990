package ledger

import (
	"context"

	"github.com/burgnice/storefront/pkg/db/models"
	"github.com/burgnice/storefront/pkg/enums"
	"gorm.io/gorm"
)

// Repository manages persistence for checkout attempts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, attempt *models.CheckoutAttempt) error
	UpdateStatusByOrderID(ctx context.Context, orderID string, status enums.CheckoutAttemptStatus, reason string) (int64, error)
	SupersedeAwaiting(ctx context.Context, sessionID, reason string) (int64, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.CheckoutAttempt, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, attempt *models.CheckoutAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

// UpdateStatusByOrderID only touches attempts still awaiting payment so a
// late verification cannot rewrite a settled row.
func (r *repository) UpdateStatusByOrderID(ctx context.Context, orderID string, status enums.CheckoutAttemptStatus, reason string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("order_id = ? AND status = ?", orderID, enums.CheckoutAttemptStatusAwaitingPayment).
		Updates(map[string]any{
			"status":         status,
			"failure_reason": reason,
		})
	return res.RowsAffected, res.Error
}

// SupersedeAwaiting cancels every attempt of the session still awaiting payment.
func (r *repository) SupersedeAwaiting(ctx context.Context, sessionID, reason string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CheckoutAttempt{}).
		Where("session_id = ? AND status = ?", sessionID, enums.CheckoutAttemptStatusAwaitingPayment).
		Updates(map[string]any{
			"status":         enums.CheckoutAttemptStatusCancelled,
			"failure_reason": reason,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.CheckoutAttempt, error) {
	var attempts []models.CheckoutAttempt
	q := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
