package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/burgnice/storefront/api/responses"
	"github.com/burgnice/storefront/internal/session"
	pkgAuth "github.com/burgnice/storefront/pkg/auth"
	"github.com/burgnice/storefront/pkg/config"
	pkgerrors "github.com/burgnice/storefront/pkg/errors"
	"github.com/burgnice/storefront/pkg/logger"
)

// SessionHeader carries the tab session token when no Authorization header is set.
const SessionHeader = "X-BNI-Session"

// tokenQueryParam is accepted only because browsers cannot set headers on a
// WebSocket handshake.
const tokenQueryParam = "token"

type sessionResolver interface {
	Load(ctx context.Context, sessionID string) (*session.State, error)
	Touch(ctx context.Context, sessionID string) error
}

// Session validates the tab session token, slides the TTL of the session key
// space and seeds the request context with the session id.
func Session(cfg config.SessionConfig, sessions sessionResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session token"))
				return
			}

			claims, err := pkgAuth.ParseSessionToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token"))
				return
			}

			state, err := sessions.Load(r.Context(), claims.SessionID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if err := sessions.Touch(r.Context(), claims.SessionID); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh session"))
				return
			}

			ctx := WithSessionID(r.Context(), claims.SessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, claims.SessionID)
				if uid := state.UserID(); uid != "" {
					ctx = logg.WithUserID(ctx, uid)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw != "" {
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			return strings.TrimSpace(raw[7:])
		}
		return raw
	}
	if v := strings.TrimSpace(r.Header.Get(SessionHeader)); v != "" {
		return v
	}
	if r.Method == http.MethodGet && strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return strings.TrimSpace(r.URL.Query().Get(tokenQueryParam))
	}
	return ""
}
