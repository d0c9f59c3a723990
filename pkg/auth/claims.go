package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims identifies the browser tab a request belongs to. The token
// carries no user data; authentication state lives server-side under the
// session id.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
