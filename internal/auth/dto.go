package auth

import (
	"github.com/burgnice/storefront/internal/cartsync"
	"github.com/burgnice/storefront/internal/loyalty"
	"github.com/burgnice/storefront/pkg/upstream"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is forwarded to the restaurant backend as is.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResponse is returned by login and registration. Cart is the merged cart
// when the guest cart sync ran; SyncWarning is set when it failed and the
// guest cart was kept.
type AuthResponse struct {
	User        upstream.User    `json:"user"`
	Loyalty     loyalty.Account  `json:"loyalty"`
	Cart        *cartsync.Result `json:"cart,omitempty"`
	SyncWarning string           `json:"syncWarning,omitempty"`
}

// ProfileResponse pairs the refreshed user with the loyalty view.
type ProfileResponse struct {
	User    upstream.User   `json:"user"`
	Loyalty loyalty.Account `json:"loyalty"`
}
