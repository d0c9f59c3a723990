package session

import (
	"time"

	"github.com/burgnice/storefront/internal/cart"
	"github.com/burgnice/storefront/pkg/enums"
	"github.com/burgnice/storefront/pkg/upstream"
)

// State is the server-side application state of one browser tab. It replaces
// any process-wide auth or cart globals: every service receives the state it
// works on explicitly.
type State struct {
	ID        string          `json:"id"`
	User      *upstream.User  `json:"user,omitempty"`
	Token     string          `json:"token,omitempty"`
	SyncState enums.SyncState `json:"syncState"`
	AuthCart  []cart.Line     `json:"authCart"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Authenticated reports whether the tab holds a logged-in user.
func (s *State) Authenticated() bool {
	return s != nil && s.User != nil && s.Token != ""
}

// UserID returns the logged-in user id, or "".
func (s *State) UserID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.ID
}

// AuthTotals derives count and total of the authenticated cart.
func (s *State) AuthTotals() cart.Totals {
	if s == nil {
		return cart.Totals{}
	}
	return cart.ComputeTotals(s.AuthCart)
}
