package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/burgnice/storefront/api/middleware"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/pagination"
	"github.com/burgnice/storefront/pkg/upstream"
)

type stubOrdersService struct {
	page       pagination.Page[upstream.Order]
	order      *upstream.Order
	err        error
	lastParams pagination.Params
	lastID     string
	lastSID    string
}

func (s *stubOrdersService) History(_ context.Context, sessionID string, params pagination.Params) (pagination.Page[upstream.Order], error) {
	s.lastSID = sessionID
	s.lastParams = params
	return s.page, s.err
}

func (s *stubOrdersService) Detail(_ context.Context, sessionID, orderID string) (*upstream.Order, error) {
	s.lastSID = sessionID
	s.lastID = orderID
	return s.order, s.err
}

func newRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return req.WithContext(middleware.WithSessionID(req.Context(), "sid-1"))
}

func TestListPassesPagination(t *testing.T) {
	svc := &stubOrdersService{page: pagination.Page[upstream.Order]{
		Items:      []upstream.Order{{ID: "o-2"}, {ID: "o-1"}},
		NextCursor: "next",
	}}

	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, newRequest("/api/v1/orders?limit=2&cursor=abc"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastParams.Limit != 2 || svc.lastParams.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.lastParams)
	}
	if svc.lastSID != "sid-1" {
		t.Fatalf("expected session from context")
	}

	var envelope struct {
		Data pagination.Page[upstream.Order] `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Items) != 2 || envelope.Data.NextCursor != "next" {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}
}

func TestListDefaultsLimit(t *testing.T) {
	svc := &stubOrdersService{}
	List(svc, nil).ServeHTTP(httptest.NewRecorder(), newRequest("/api/v1/orders"))
	if svc.lastParams.Limit != pagination.DefaultLimit {
		t.Fatalf("expected default limit, got %d", svc.lastParams.Limit)
	}
}

func TestListRejectsBadLimit(t *testing.T) {
	svc := &stubOrdersService{}
	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, newRequest("/api/v1/orders?limit=1000"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListRequiresLogin(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")}
	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, newRequest("/api/v1/orders"))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestDetailUsesPathParam(t *testing.T) {
	svc := &stubOrdersService{order: &upstream.Order{ID: "o-9", Status: "pending"}}
	req := newRequest("/api/v1/orders/o-9")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", "o-9")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastID != "o-9" {
		t.Fatalf("expected order id o-9, got %q", svc.lastID)
	}
}

func TestDetailNotFound(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	req := newRequest("/api/v1/orders/missing")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", "missing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
