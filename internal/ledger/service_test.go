package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/burgnice/storefront/pkg/db/models"
	"github.com/burgnice/storefront/pkg/enums"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"gorm.io/gorm"
)

type fakeRepository struct {
	superseded []string
	createFn   func(ctx context.Context, attempt *models.CheckoutAttempt) error
	updateFn   func(ctx context.Context, orderID string, status enums.CheckoutAttemptStatus, reason string) (int64, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, attempt *models.CheckoutAttempt) error {
	if f.createFn != nil {
		return f.createFn(ctx, attempt)
	}
	return nil
}

func (f *fakeRepository) UpdateStatusByOrderID(ctx context.Context, orderID string, status enums.CheckoutAttemptStatus, reason string) (int64, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, orderID, status, reason)
	}
	return 1, nil
}

func (f *fakeRepository) SupersedeAwaiting(_ context.Context, sessionID, _ string) (int64, error) {
	f.superseded = append(f.superseded, sessionID)
	return 1, nil
}

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	return fn(nil)
}

func (f *fakeRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.CheckoutAttempt, error) {
	return nil, nil
}

func validInput() RecordAttemptInput {
	return RecordAttemptInput{
		SessionID:      "sess-1",
		UserID:         "user-1",
		OrderID:        "order-9",
		PaymentMethod:  enums.PaymentMethodCard,
		OrderType:      enums.OrderTypeDelivery,
		Status:         enums.CheckoutAttemptStatusAwaitingPayment,
		Subtotal:       250,
		DiscountAmount: 20,
		Total:          230,
		PointsUsed:     200,
		PointsEarned:   25,
	}
}

func TestService_RecordAttempt(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo, &fakeTx{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	var created *models.CheckoutAttempt
	repo.createFn = func(ctx context.Context, attempt *models.CheckoutAttempt) error {
		created = attempt
		return nil
	}

	got, err := svc.RecordAttempt(context.Background(), validInput())
	if err != nil {
		t.Fatalf("RecordAttempt error: %v", err)
	}
	if created == nil || got != created {
		t.Fatal("expected the created attempt to be returned")
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.OrderID == nil || *created.OrderID != "order-9" {
		t.Fatalf("unexpected order id %v", created.OrderID)
	}
	if created.Total.String() != "230" || created.DiscountAmount.String() != "20" {
		t.Fatalf("unexpected amounts total=%s discount=%s", created.Total, created.DiscountAmount)
	}
}

func TestService_RecordAttemptWithoutOrderID(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo, &fakeTx{})

	input := validInput()
	input.OrderID = ""
	input.Status = enums.CheckoutAttemptStatusFailed
	input.FailureReason = "Restaurant closed"

	got, err := svc.RecordAttempt(context.Background(), input)
	if err != nil {
		t.Fatalf("RecordAttempt error: %v", err)
	}
	if got.OrderID != nil {
		t.Fatalf("expected nil order id, got %v", *got.OrderID)
	}
}

func TestService_RecordAttemptValidation(t *testing.T) {
	svc, _ := NewService(&fakeRepository{}, &fakeTx{})

	cases := map[string]func(in *RecordAttemptInput){
		"session":        func(in *RecordAttemptInput) { in.SessionID = " " },
		"payment method": func(in *RecordAttemptInput) { in.PaymentMethod = "CASH" },
		"order type":     func(in *RecordAttemptInput) { in.OrderType = "drive-thru" },
		"status":         func(in *RecordAttemptInput) { in.Status = "lost" },
		"points":         func(in *RecordAttemptInput) { in.PointsUsed = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInput()
			mutate(&input)
			if _, err := svc.RecordAttempt(context.Background(), input); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestService_RecordAttemptRepoFailure(t *testing.T) {
	repo := &fakeRepository{createFn: func(ctx context.Context, attempt *models.CheckoutAttempt) error {
		return errors.New("disk full")
	}}
	svc, _ := NewService(repo, &fakeTx{})

	_, err := svc.RecordAttempt(context.Background(), validInput())
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestService_RecordAttemptSupersedesAwaitingInTx(t *testing.T) {
	repo := &fakeRepository{}
	tx := &fakeTx{}
	svc, _ := NewService(repo, tx)

	if _, err := svc.RecordAttempt(context.Background(), validInput()); err != nil {
		t.Fatalf("RecordAttempt error: %v", err)
	}
	if tx.calls != 1 || len(repo.superseded) != 1 || repo.superseded[0] != "sess-1" {
		t.Fatalf("expected one transactional supersede, got calls=%d superseded=%v", tx.calls, repo.superseded)
	}

	placed := validInput()
	placed.PaymentMethod = enums.PaymentMethodCOD
	placed.Status = enums.CheckoutAttemptStatusPlaced
	if _, err := svc.RecordAttempt(context.Background(), placed); err != nil {
		t.Fatalf("RecordAttempt error: %v", err)
	}
	if tx.calls != 1 || len(repo.superseded) != 1 {
		t.Fatalf("placed attempt must not supersede, got calls=%d", tx.calls)
	}
}

func TestService_MarkOrder(t *testing.T) {
	var gotStatus enums.CheckoutAttemptStatus
	repo := &fakeRepository{updateFn: func(ctx context.Context, orderID string, status enums.CheckoutAttemptStatus, reason string) (int64, error) {
		gotStatus = status
		return 1, nil
	}}
	svc, _ := NewService(repo, &fakeTx{})

	if err := svc.MarkOrder(context.Background(), "order-9", enums.CheckoutAttemptStatusPaid, ""); err != nil {
		t.Fatalf("MarkOrder error: %v", err)
	}
	if gotStatus != enums.CheckoutAttemptStatusPaid {
		t.Fatalf("unexpected status %q", gotStatus)
	}
}

func TestService_MarkOrderNotFound(t *testing.T) {
	repo := &fakeRepository{updateFn: func(ctx context.Context, orderID string, status enums.CheckoutAttemptStatus, reason string) (int64, error) {
		return 0, nil
	}}
	svc, _ := NewService(repo, &fakeTx{})

	err := svc.MarkOrder(context.Background(), "order-9", enums.CheckoutAttemptStatusPaid, "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewServiceRequiresRepository(t *testing.T) {
	if _, err := NewService(nil, nil); err == nil {
		t.Fatal("expected error for nil repository")
	}
}
