// Package upstream is the client for the restaurant REST backend: catalog,
// auth, server-side cart, orders and hosted payments.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/burgnice/storefront/pkg/errors"
)

const (
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1 << 20
	errorBodyReadLimit    int64 = 4096
)

var errBaseURLRequired = errors.New("upstream base url is required")

// Client wraps the restaurant backend endpoints consumed by the storefront.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("parse upstream base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	raw, err := c.do(ctx, http.MethodGet, "categories", "", nil)
	if err != nil {
		return nil, err
	}
	return decodeWith(raw, "categories", NormalizeCategories)
}

func (c *Client) ListMenuItems(ctx context.Context, filter MenuFilter) ([]MenuItem, error) {
	query := url.Values{}
	if v := strings.TrimSpace(filter.Category); v != "" {
		query.Set("category", v)
	}
	if v := strings.TrimSpace(filter.Search); v != "" {
		query.Set("search", v)
	}
	path := "menu"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	raw, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	return decodeWith(raw, "menu items", NormalizeMenuItems)
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	raw, err := c.do(ctx, http.MethodPost, "auth/login", "", body)
	if err != nil {
		return AuthResult{}, err
	}
	return decodeWith(raw, "login", NormalizeAuth)
}

func (c *Client) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	raw, err := c.do(ctx, http.MethodPost, "auth/register", "", body)
	if err != nil {
		return AuthResult{}, err
	}
	return decodeWith(raw, "register", NormalizeAuth)
}

func (c *Client) GetProfile(ctx context.Context, token string) (User, error) {
	raw, err := c.do(ctx, http.MethodGet, "auth/profile", token, nil)
	if err != nil {
		return User{}, err
	}
	return decodeWith(raw, "profile", NormalizeUser)
}

func (c *Client) GetCart(ctx context.Context, token string) ([]CartItem, error) {
	raw, err := c.do(ctx, http.MethodGet, "cart", token, nil)
	if err != nil {
		return nil, err
	}
	return decodeWith(raw, "cart", NormalizeCart)
}

// SyncCart merges lines into the server cart in one batch and returns the
// merged cart.
func (c *Client) SyncCart(ctx context.Context, token string, lines []CartLineRequest) ([]CartItem, error) {
	body := map[string]any{"items": lines}
	raw, err := c.do(ctx, http.MethodPost, "cart/sync", token, body)
	if err != nil {
		return nil, err
	}
	return decodeWith(raw, "cart", NormalizeCart)
}

// UpdateCartItem sets the quantity of one server cart line; zero removes it.
func (c *Client) UpdateCartItem(ctx context.Context, token, itemID string, quantity int) ([]CartItem, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if quantity < 0 {
		quantity = 0
	}
	body := map[string]int{"quantity": quantity}
	raw, err := c.do(ctx, http.MethodPut, "cart/items/"+url.PathEscape(itemID), token, body)
	if err != nil {
		return nil, err
	}
	return decodeWith(raw, "cart", NormalizeCart)
}

func (c *Client) ClearCart(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodDelete, "cart", token, nil)
	return err
}

func (c *Client) CreateOrder(ctx context.Context, token string, req OrderRequest) (Order, error) {
	raw, err := c.do(ctx, http.MethodPost, "orders", token, req)
	if err != nil {
		return Order{}, err
	}
	return decodeWith(raw, "order", NormalizeOrder)
}

func (c *Client) GetOrderHistory(ctx context.Context, token string) ([]Order, error) {
	raw, err := c.do(ctx, http.MethodGet, "orders/my-orders", token, nil)
	if err != nil {
		return nil, err
	}
	return decodeWith(raw, "orders", NormalizeOrders)
}

func (c *Client) GetOrderByID(ctx context.Context, token, orderID string) (Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	raw, err := c.do(ctx, http.MethodGet, "orders/"+url.PathEscape(orderID), token, nil)
	if err != nil {
		return Order{}, err
	}
	return decodeWith(raw, "order", NormalizeOrder)
}

// CreatePaymentSession asks the backend to open a hosted checkout for the order.
func (c *Client) CreatePaymentSession(ctx context.Context, token string, req OrderRequest) (PaymentSession, error) {
	raw, err := c.do(ctx, http.MethodPost, "payments/create-checkout-session", token, req)
	if err != nil {
		return PaymentSession{}, err
	}
	return decodeWith(raw, "payment session", NormalizePaymentSession)
}

func (c *Client) CheckPaymentStatus(ctx context.Context, token, orderID string) (PaymentStatus, error) {
	if strings.TrimSpace(orderID) == "" {
		return PaymentStatus{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	raw, err := c.do(ctx, http.MethodGet, "payments/status/"+url.PathEscape(orderID), token, nil)
	if err != nil {
		return PaymentStatus{}, err
	}
	return decodeWith(raw, "payment status", NormalizePaymentStatus)
}

func decodeWith[T any](raw json.RawMessage, family string, normalize func(json.RawMessage) (T, error)) (T, error) {
	out, err := normalize(raw)
	if err != nil {
		var zero T
		return zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unexpected "+family+" response")
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (json.RawMessage, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "upstream client not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal upstream request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute upstream request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, statusError(resp.StatusCode, msg)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read upstream response")
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(payload), nil
}

// statusError keeps the backend's own message so callers can show it verbatim.
func statusError(status int, body []byte) error {
	message := errorMessage(body)
	cause := fmt.Errorf("status %d: %s", status, strings.TrimSpace(string(body)))
	details := map[string]any{"status": status}

	switch {
	case status == http.StatusUnauthorized:
		if message == "" {
			return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, "authentication required").WithDetails(details)
		}
		details["upstreamMessage"] = message
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, cause, message).WithDetails(details)
	case status == http.StatusNotFound:
		if message == "" {
			message = "resource not found"
		}
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, message)
	case message != "":
		details["upstreamMessage"] = message
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, cause, message).WithDetails(details)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "upstream request failed").WithDetails(details)
	}
}

func errorMessage(body []byte) string {
	obj, ok := asObject(body)
	if !ok {
		return ""
	}
	if msg := obj.str("message", "error"); msg != "" {
		return msg
	}
	if inner, ok := obj.nested("error"); ok {
		return inner.str("message")
	}
	return ""
}

// UpstreamMessage returns the backend-provided message carried by err, if any.
func UpstreamMessage(err error) string {
	return pkgerrors.DetailString(err, "upstreamMessage")
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}
