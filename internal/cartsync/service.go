// Package cartsync owns the cart of a session across its two tiers: the guest
// cart kept for anonymous tabs and the server-side cart of a logged-in user.
// It merges the guest cart into the server cart once per login.
package cartsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/burgnice/storefront/internal/cart"
	"github.com/burgnice/storefront/internal/events"
	"github.com/burgnice/storefront/internal/guestcart"
	"github.com/burgnice/storefront/internal/lock"
	"github.com/burgnice/storefront/internal/session"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/logger"
	"github.com/burgnice/storefront/pkg/metrics"
	"github.com/burgnice/storefront/pkg/upstream"
)

const lockOperation = "cart_sync"

type guestStore interface {
	Lines(ctx context.Context, sessionID string) ([]cart.Line, error)
	Mutate(ctx context.Context, sessionID string, fn guestcart.MutateFunc) ([]cart.Unit, error)
	Clear(ctx context.Context, sessionID string) error
	Discard(ctx context.Context, sessionID string) error
}

type sessionStore interface {
	Load(ctx context.Context, sessionID string) (*session.State, error)
	SetAuthCart(ctx context.Context, sessionID string, lines []cart.Line) (*session.State, error)
	MarkSynced(ctx context.Context, sessionID string) (*session.State, error)
}

type cartAPI interface {
	GetCart(ctx context.Context, token string) ([]upstream.CartItem, error)
	SyncCart(ctx context.Context, token string, lines []upstream.CartLineRequest) ([]upstream.CartItem, error)
	UpdateCartItem(ctx context.Context, token, itemID string, quantity int) ([]upstream.CartItem, error)
	ClearCart(ctx context.Context, token string) error
}

type itemLookup interface {
	Item(ctx context.Context, itemID string) (upstream.MenuItem, error)
}

type locker interface {
	TryLock(ctx context.Context, operation, sessionID string) (func(context.Context) error, bool, error)
}

// Service exposes the session cart and the login merge.
type Service interface {
	// SyncOnLogin merges the guest cart into the server cart. An empty guest
	// cart makes no upstream call. On failure the guest cart is kept.
	SyncOnLogin(ctx context.Context, sessionID string) (*Result, error)
	FetchAuthenticatedCart(ctx context.Context, sessionID string) (*Result, error)

	View(ctx context.Context, sessionID string) (*Result, error)
	AddItem(ctx context.Context, sessionID, itemID string, quantity int) (*Result, error)
	SetQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*Result, error)
	QuantityOf(ctx context.Context, sessionID, itemID string) (int, error)
	Clear(ctx context.Context, sessionID string) (*Result, error)
}

// Result is the cart of a session after an operation.
type Result struct {
	Lines         []cart.Line `json:"lines"`
	Totals        cart.Totals `json:"totals"`
	Authenticated bool        `json:"authenticated"`
	// Merged is set when SyncOnLogin pushed guest lines upstream.
	Merged bool `json:"merged,omitempty"`
	// Skipped is set when another merge for the session was in flight.
	Skipped bool `json:"skipped,omitempty"`
}

func newResult(lines []cart.Line, authenticated bool) *Result {
	if lines == nil {
		lines = []cart.Line{}
	}
	return &Result{Lines: lines, Totals: cart.ComputeTotals(lines), Authenticated: authenticated}
}

type service struct {
	guest    guestStore
	sessions sessionStore
	api      cartAPI
	catalog  itemLookup
	locks    locker
	bus      events.Publisher
	metrics  *metrics.StorefrontMetrics
	logg     *logger.Logger
	now      func() time.Time

	// serverCarts serializes writes to the server cart of one session.
	serverCarts *lock.KeyedMutex
}

// NewService builds the cart sync service.
func NewService(
	guest guestStore,
	sessions sessionStore,
	api cartAPI,
	catalog itemLookup,
	locks locker,
	bus events.Publisher,
	m *metrics.StorefrontMetrics,
	logg *logger.Logger,
) (Service, error) {
	if guest == nil {
		return nil, fmt.Errorf("guest cart store required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if api == nil {
		return nil, fmt.Errorf("cart api required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if locks == nil {
		return nil, fmt.Errorf("locker required")
	}
	if bus == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		guest:    guest,
		sessions: sessions,
		api:      api,
		catalog:  catalog,
		locks:    locks,
		bus:      bus,
		metrics:  m,
		logg:     logg,
		now:      time.Now,

		serverCarts: lock.NewKeyedMutex(),
	}, nil
}

func (s *service) SyncOnLogin(ctx context.Context, sessionID string) (*Result, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !state.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required before cart sync")
	}

	release, ok, err := s.locks.TryLock(ctx, lockOperation, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire cart sync lock")
	}
	if !ok {
		s.metrics.IncOutcome(metrics.OpCartSync, metrics.OutcomeSkipped)
		res := newResult(state.AuthCart, true)
		res.Skipped = true
		return res, nil
	}
	defer func() {
		if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", relErr.Error()), "release cart sync lock failed")
		}
	}()
	unlock := s.serverCarts.Lock(sessionID)
	defer unlock()

	done := s.metrics.Track(metrics.OpCartSync)

	lines, err := s.guest.Lines(ctx, sessionID)
	if err != nil {
		done(metrics.OutcomeFailure)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read guest cart")
	}
	if len(lines) == 0 {
		state, err = s.sessions.MarkSynced(ctx, sessionID)
		if err != nil {
			done(metrics.OutcomeFailure)
			return nil, err
		}
		done(metrics.OutcomeSkipped)
		return newResult(state.AuthCart, true), nil
	}

	merged, err := s.api.SyncCart(ctx, state.Token, s.mergeRequest(lines))
	if err != nil {
		done(metrics.OutcomeFailure)
		s.logg.Error(s.logg.WithField(ctx, "guest_lines", len(lines)), "cart sync failed, guest cart kept", err)
		return nil, syncError(err)
	}

	state, err = s.sessions.SetAuthCart(ctx, sessionID, toLines(merged))
	if err != nil {
		done(metrics.OutcomeFailure)
		return nil, err
	}
	// The merged totals below are the only cart-updated event of the merge.
	if err := s.guest.Discard(ctx, sessionID); err != nil {
		done(metrics.OutcomeFailure)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear guest cart after sync")
	}

	res := newResult(state.AuthCart, true)
	res.Merged = true
	s.publish(sessionID, res)
	done(metrics.OutcomeSuccess)
	s.logg.Info(s.logg.WithField(ctx, "lines", len(res.Lines)), "guest cart merged")
	return res, nil
}

func (s *service) mergeRequest(lines []cart.Line) []upstream.CartLineRequest {
	now := s.now().UTC()
	reqs := make([]upstream.CartLineRequest, 0, len(lines))
	for _, line := range lines {
		customizations := line.Customizations
		if customizations == nil {
			customizations = map[string]string{}
		}
		addedAt := now
		if line.AddedAt != nil {
			addedAt = *line.AddedAt
		}
		reqs = append(reqs, upstream.CartLineRequest{
			ItemID:         line.ItemID,
			Quantity:       line.Quantity,
			Customizations: customizations,
			AddedAt:        addedAt,
		})
	}
	return reqs
}

// syncError keeps the backend message when there is one.
func syncError(err error) error {
	msg := upstream.UpstreamMessage(err)
	if msg == "" {
		msg = "could not merge your cart, it is kept on this device"
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func (s *service) FetchAuthenticatedCart(ctx context.Context, sessionID string) (*Result, error) {
	return s.withServerCart(ctx, sessionID, func(state *session.State) ([]upstream.CartItem, error) {
		return s.api.GetCart(ctx, state.Token)
	})
}

func (s *service) View(ctx context.Context, sessionID string) (*Result, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !state.Authenticated() {
		lines, err := s.guest.Lines(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return newResult(lines, false), nil
	}
	if state.AuthCart == nil {
		return s.FetchAuthenticatedCart(ctx, sessionID)
	}
	return newResult(state.AuthCart, true), nil
}

func (s *service) AddItem(ctx context.Context, sessionID, itemID string, quantity int) (*Result, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if quantity <= 0 {
		quantity = 1
	}
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if state.Authenticated() {
		return s.withServerCart(ctx, sessionID, func(state *session.State) ([]upstream.CartItem, error) {
			lines := state.AuthCart
			if lines == nil {
				// Unknown until fetched, as after a login with an empty guest cart.
				items, err := s.api.GetCart(ctx, state.Token)
				if err != nil {
					return nil, err
				}
				lines = toLines(items)
			}
			return s.api.UpdateCartItem(ctx, state.Token, itemID, cart.QuantityOf(lines, itemID)+quantity)
		})
	}

	item, err := s.catalog.Item(ctx, itemID)
	if err != nil {
		return nil, err
	}
	unit := cart.Unit{
		ItemID:      item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		Image:       item.Image,
		Category:    item.Category,
	}
	units, err := s.guest.Mutate(ctx, sessionID, func(units []cart.Unit) ([]cart.Unit, error) {
		return cart.AddUnits(units, unit, quantity), nil
	})
	if err != nil {
		return nil, err
	}
	return newResult(cart.Aggregate(units), false), nil
}

func (s *service) SetQuantity(ctx context.Context, sessionID, itemID string, quantity int) (*Result, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if quantity < 0 {
		quantity = 0
	}
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if state.Authenticated() {
		return s.withServerCart(ctx, sessionID, func(state *session.State) ([]upstream.CartItem, error) {
			return s.api.UpdateCartItem(ctx, state.Token, itemID, quantity)
		})
	}

	units, err := s.guest.Mutate(ctx, sessionID, func(units []cart.Unit) ([]cart.Unit, error) {
		return cart.Flatten(cart.SetQuantity(cart.Aggregate(units), itemID, quantity)), nil
	})
	if err != nil {
		return nil, err
	}
	return newResult(cart.Aggregate(units), false), nil
}

func (s *service) QuantityOf(ctx context.Context, sessionID, itemID string) (int, error) {
	res, err := s.View(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return cart.QuantityOf(res.Lines, strings.TrimSpace(itemID)), nil
}

func (s *service) Clear(ctx context.Context, sessionID string) (*Result, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !state.Authenticated() {
		if err := s.guest.Clear(ctx, sessionID); err != nil {
			return nil, err
		}
		return newResult(nil, false), nil
	}
	return s.withServerCart(ctx, sessionID, func(state *session.State) ([]upstream.CartItem, error) {
		return nil, s.api.ClearCart(ctx, state.Token)
	})
}

// withServerCart runs fn against the latest session state while holding the
// session's server cart lock, then stores the cart fn returns.
func (s *service) withServerCart(ctx context.Context, sessionID string, fn func(state *session.State) ([]upstream.CartItem, error)) (*Result, error) {
	unlock := s.serverCarts.Lock(sessionID)
	defer unlock()

	state, err := s.authenticatedState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	items, err := fn(state)
	if err != nil {
		return nil, err
	}
	return s.storeAuthCart(ctx, sessionID, items)
}

func (s *service) authenticatedState(ctx context.Context, sessionID string) (*session.State, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !state.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	return state, nil
}

func (s *service) storeAuthCart(ctx context.Context, sessionID string, items []upstream.CartItem) (*Result, error) {
	state, err := s.sessions.SetAuthCart(ctx, sessionID, toLines(items))
	if err != nil {
		return nil, err
	}
	res := newResult(state.AuthCart, true)
	s.publish(sessionID, res)
	return res, nil
}

func (s *service) publish(sessionID string, res *Result) {
	s.bus.Publish(sessionID, events.CartUpdated{Count: res.Totals.Count, Total: res.Totals.Total})
}

// toLines converts server cart items, folding duplicate item ids.
func toLines(items []upstream.CartItem) []cart.Line {
	lines := make([]cart.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, cart.Line{
			ItemID:         item.ItemID,
			Name:           item.Name,
			Description:    item.Description,
			UnitPrice:      item.Price,
			Image:          item.Image,
			Category:       item.Category,
			Quantity:       item.Quantity,
			Customizations: item.Customizations,
			AddedAt:        item.AddedAt,
		})
	}
	return cart.MergeLines(lines)
}
