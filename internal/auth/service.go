// Package auth logs a browser tab in and out of the restaurant backend and
// runs the one-time guest cart merge that follows a login.
package auth

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/burgnice/storefront/internal/cartsync"
	"github.com/burgnice/storefront/internal/loyalty"
	"github.com/burgnice/storefront/internal/session"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/logger"
	"github.com/burgnice/storefront/pkg/upstream"
)

const syncFallbackWarning = "we could not merge your cart, it is kept on this device"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, sessionID string, req LoginRequest) (*AuthResponse, error)
	Register(ctx context.Context, sessionID string, req RegisterRequest) (*AuthResponse, error)
	Logout(ctx context.Context, sessionID string) error
	Profile(ctx context.Context, sessionID string) (*ProfileResponse, error)
	Loyalty(ctx context.Context, sessionID string) (*loyalty.Account, error)
}

type authAPI interface {
	Login(ctx context.Context, email, password string) (upstream.AuthResult, error)
	Register(ctx context.Context, username, email, password string) (upstream.AuthResult, error)
	GetProfile(ctx context.Context, token string) (upstream.User, error)
}

type sessionManager interface {
	Load(ctx context.Context, sessionID string) (*session.State, error)
	Authenticate(ctx context.Context, sessionID string, user upstream.User, token string) (*session.State, error)
	SetUser(ctx context.Context, sessionID string, user upstream.User) (*session.State, error)
	Logout(ctx context.Context, sessionID string) (*session.State, error)
}

type cartSyncer interface {
	SyncOnLogin(ctx context.Context, sessionID string) (*cartsync.Result, error)
}

type guestClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

type checkoutDiscarder interface {
	Discard(ctx context.Context, sessionID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	API      authAPI
	Sessions sessionManager
	Carts    cartSyncer
	Guest    guestClearer
	Checkout checkoutDiscarder
	Policy   loyalty.Policy
	Logger   *logger.Logger
}

type service struct {
	api      authAPI
	sessions sessionManager
	carts    cartSyncer
	guest    guestClearer
	checkout checkoutDiscarder
	policy   loyalty.Policy
	logg     *logger.Logger
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.API == nil {
		return nil, fmt.Errorf("auth api is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart sync service is required")
	}
	if params.Guest == nil {
		return nil, fmt.Errorf("guest cart store is required")
	}
	if params.Checkout == nil {
		return nil, fmt.Errorf("checkout service is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	policy := params.Policy
	if policy == (loyalty.Policy{}) {
		policy = loyalty.DefaultPolicy()
	}
	return &service{
		api:      params.API,
		sessions: params.Sessions,
		carts:    params.Carts,
		guest:    params.Guest,
		checkout: params.Checkout,
		policy:   policy,
		logg:     params.Logger,
	}, nil
}

func (s *service) Login(ctx context.Context, sessionID string, req LoginRequest) (*AuthResponse, error) {
	if _, err := s.sessions.Load(ctx, sessionID); err != nil {
		return nil, err
	}
	result, err := s.api.Login(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, sessionID, result)
}

func (s *service) Register(ctx context.Context, sessionID string, req RegisterRequest) (*AuthResponse, error) {
	if _, err := s.sessions.Load(ctx, sessionID); err != nil {
		return nil, err
	}
	result, err := s.api.Register(ctx, strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, sessionID, result)
}

// establish stores the token and user before the merge runs, so a failed
// merge never undoes the login.
func (s *service) establish(ctx context.Context, sessionID string, result upstream.AuthResult) (*AuthResponse, error) {
	if result.Token == "" || result.User.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "login response missing token or user")
	}
	state, err := s.sessions.Authenticate(ctx, sessionID, result.User, result.Token)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithUserID(ctx, state.UserID())

	resp := &AuthResponse{
		User:    result.User,
		Loyalty: s.policy.AccountFor(result.User.LoyaltyPoints),
	}
	merged, err := s.carts.SyncOnLogin(ctx, sessionID)
	if err != nil {
		s.logg.Error(ctx, "guest cart sync after login failed", err)
		resp.SyncWarning = pkgerrors.As(err).Message()
		if resp.SyncWarning == "" {
			resp.SyncWarning = syncFallbackWarning
		}
	} else {
		resp.Cart = merged
	}
	s.logg.Info(ctx, "user logged in")
	return resp, nil
}

// Logout drops the user, both cart tiers held for the tab and any checkout in
// progress. The order-type preference survives.
func (s *service) Logout(ctx context.Context, sessionID string) error {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	cleanup := multierr.Combine(
		s.guest.Clear(ctx, sessionID),
		s.checkout.Discard(ctx, sessionID),
	)
	if _, err := s.sessions.Logout(ctx, sessionID); err != nil {
		return err
	}
	if cleanup != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", cleanup.Error()), "logout cleanup incomplete")
	}
	if state.Authenticated() {
		s.logg.Info(s.logg.WithUserID(ctx, state.UserID()), "user logged out")
	}
	return nil
}

// Profile refreshes the user from the backend. A rejected token ends the
// login.
func (s *service) Profile(ctx context.Context, sessionID string) (*ProfileResponse, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !state.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	user, err := s.api.GetProfile(ctx, state.Token)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			if logoutErr := s.Logout(ctx, sessionID); logoutErr != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", logoutErr.Error()), "logout after rejected token failed")
			}
		}
		return nil, err
	}
	if _, err := s.sessions.SetUser(ctx, sessionID, user); err != nil {
		return nil, err
	}
	return &ProfileResponse{User: user, Loyalty: s.policy.AccountFor(user.LoyaltyPoints)}, nil
}

func (s *service) Loyalty(ctx context.Context, sessionID string) (*loyalty.Account, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !state.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	acct := s.policy.AccountFor(state.User.LoyaltyPoints)
	return &acct, nil
}
