package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/burgnice/storefront/api/middleware"
	"github.com/burgnice/storefront/api/responses"
	"github.com/burgnice/storefront/internal/session"
	pkgAuth "github.com/burgnice/storefront/pkg/auth"
	"github.com/burgnice/storefront/pkg/config"
	"github.com/burgnice/storefront/pkg/enums"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/logger"
	"github.com/burgnice/storefront/pkg/upstream"
)

type sessionCreator interface {
	Create(ctx context.Context) (*session.State, error)
}

type sessionLoader interface {
	Load(ctx context.Context, sessionID string) (*session.State, error)
}

// SessionTokenResponse is returned when a tab opens its key space.
type SessionTokenResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionView is the public projection of the tab state. The upstream token
// never leaves the service.
type SessionView struct {
	SessionID     string          `json:"sessionId"`
	Authenticated bool            `json:"authenticated"`
	User          *upstream.User  `json:"user,omitempty"`
	SyncState     enums.SyncState `json:"syncState"`
}

// SessionCreate opens a new anonymous tab session and returns its token.
func SessionCreate(svc sessionCreator, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		state, err := svc.Create(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		now := time.Now()
		token, err := pkgAuth.MintSessionToken(cfg, now, state.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, SessionTokenResponse{
			Token:     token,
			SessionID: state.ID,
			ExpiresAt: now.Add(cfg.TTL).UTC(),
		})
	}
}

// SessionShow reports who the tab is logged in as.
func SessionShow(svc sessionLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		state, err := svc.Load(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, SessionView{
			SessionID:     state.ID,
			Authenticated: state.Authenticated(),
			User:          state.User,
			SyncState:     state.SyncState,
		})
	}
}
