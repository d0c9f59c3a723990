// Package orders exposes the order history of the logged-in customer.
package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/burgnice/storefront/internal/session"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/pagination"
	"github.com/burgnice/storefront/pkg/upstream"
)

type sessionLoader interface {
	Load(ctx context.Context, sessionID string) (*session.State, error)
}

type orderAPI interface {
	GetOrderHistory(ctx context.Context, token string) ([]upstream.Order, error)
	GetOrderByID(ctx context.Context, token, orderID string) (upstream.Order, error)
}

// Service reads orders on behalf of a session.
type Service interface {
	History(ctx context.Context, sessionID string, params pagination.Params) (pagination.Page[upstream.Order], error)
	Detail(ctx context.Context, sessionID, orderID string) (*upstream.Order, error)
}

type service struct {
	sessions sessionLoader
	api      orderAPI
}

func NewService(sessions sessionLoader, api orderAPI) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if api == nil {
		return nil, fmt.Errorf("order api required")
	}
	return &service{sessions: sessions, api: api}, nil
}

// History returns the customer's orders newest first.
func (s *service) History(ctx context.Context, sessionID string, params pagination.Params) (pagination.Page[upstream.Order], error) {
	state, err := s.authenticated(ctx, sessionID)
	if err != nil {
		return pagination.Page[upstream.Order]{}, err
	}
	orders, err := s.api.GetOrderHistory(ctx, state.Token)
	if err != nil {
		return pagination.Page[upstream.Order]{}, err
	}

	sort.SliceStable(orders, func(i, j int) bool {
		return pagination.After(orderCursor(orders[j]), orderCursor(orders[i]))
	})
	page, err := pagination.Slice(orders, params, orderCursor)
	if err != nil {
		return pagination.Page[upstream.Order]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return page, nil
}

func (s *service) Detail(ctx context.Context, sessionID, orderID string) (*upstream.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	state, err := s.authenticated(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	order, err := s.api.GetOrderByID(ctx, state.Token, orderID)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *service) authenticated(ctx context.Context, sessionID string) (*session.State, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !state.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	return state, nil
}

func orderCursor(o upstream.Order) pagination.Cursor {
	var at time.Time
	if o.CreatedAt != nil {
		at = *o.CreatedAt
	}
	return pagination.Cursor{CreatedAt: at, ID: o.ID}
}
