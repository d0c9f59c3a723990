package orders

import (
	"context"
	"testing"
	"time"

	"github.com/burgnice/storefront/internal/session"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/pagination"
	"github.com/burgnice/storefront/pkg/upstream"
)

type stubSessions struct {
	state *session.State
}

func (s stubSessions) Load(context.Context, string) (*session.State, error) {
	if s.state == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session not found or expired")
	}
	return s.state, nil
}

type stubOrderAPI struct {
	orders    []upstream.Order
	lastToken string
	lastID    string
}

func (s *stubOrderAPI) GetOrderHistory(_ context.Context, token string) ([]upstream.Order, error) {
	s.lastToken = token
	return append([]upstream.Order(nil), s.orders...), nil
}

func (s *stubOrderAPI) GetOrderByID(_ context.Context, token, orderID string) (upstream.Order, error) {
	s.lastToken = token
	s.lastID = orderID
	for _, o := range s.orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return upstream.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func at(hours int) *time.Time {
	t := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(hours) * time.Hour)
	return &t
}

func loggedIn() *session.State {
	return &session.State{ID: "s1", User: &upstream.User{ID: "u1"}, Token: "tok"}
}

func TestHistoryNewestFirstWithCursor(t *testing.T) {
	api := &stubOrderAPI{orders: []upstream.Order{
		{ID: "o1", CreatedAt: at(1)},
		{ID: "o3", CreatedAt: at(3)},
		{ID: "o2", CreatedAt: at(2)},
	}}
	svc, err := NewService(stubSessions{state: loggedIn()}, api)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	page, err := svc.History(context.Background(), "s1", pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].ID != "o3" || page.Items[1].ID != "o2" || page.NextCursor == "" {
		t.Fatalf("unexpected first page %+v", page)
	}
	if api.lastToken != "tok" {
		t.Fatalf("expected session token forwarded, got %q", api.lastToken)
	}

	page, err = svc.History(context.Background(), "s1", pagination.Params{Limit: 2, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("History page 2: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "o1" || page.NextCursor != "" {
		t.Fatalf("unexpected second page %+v", page)
	}
}

func TestHistoryRejectsBadCursor(t *testing.T) {
	svc, _ := NewService(stubSessions{state: loggedIn()}, &stubOrderAPI{})
	_, err := svc.History(context.Background(), "s1", pagination.Params{Cursor: "!!"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHistoryRequiresLogin(t *testing.T) {
	svc, _ := NewService(stubSessions{state: &session.State{ID: "s1"}}, &stubOrderAPI{})
	_, err := svc.History(context.Background(), "s1", pagination.Params{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestDetail(t *testing.T) {
	api := &stubOrderAPI{orders: []upstream.Order{{ID: "o1", Status: "pending"}}}
	svc, _ := NewService(stubSessions{state: loggedIn()}, api)

	order, err := svc.Detail(context.Background(), "s1", " o1 ")
	if err != nil {
		t.Fatalf("Detail: %v", err)
	}
	if order.ID != "o1" || api.lastID != "o1" {
		t.Fatalf("unexpected order %+v", order)
	}

	if _, err := svc.Detail(context.Background(), "s1", ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Detail(context.Background(), "s1", "missing"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
