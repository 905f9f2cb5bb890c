// Package session holds the authenticated identity bound to a browser and
// the in-memory read view derived from persisted session state.
//
// Persisted storage (the sealed envelope cookie) is the source of truth;
// everything in this package is a read view that must be re-derived from it.
package session

import (
	"errors"
	"time"
)

// Role identifies the marketplace role attached to a user account.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleCaterer  Role = "caterer"
	RoleAdmin    Role = "admin"
	RoleOps      Role = "ops"
	RoleFinance  Role = "finance"
	RoleSales    Role = "sales"
)

// KnownRole reports whether the role is one the dashboard understands.
func KnownRole(role Role) bool {
	switch role {
	case RoleCustomer, RoleCaterer, RoleAdmin, RoleOps, RoleFinance, RoleSales:
		return true
	}
	return false
}

// User is the authenticated user identity carried by a session.
type User struct {
	ID            string
	Email         string
	FirstName     string
	LastName      string
	Role          Role
	AccountID     string
	Has2FAEnabled bool
}

// Session is the authenticated identity bound to a browser.
type Session struct {
	ID        string
	User      User
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenData carries the bearer credentials issued by the backend. Both
// tokens are opaque to the dashboard; only the backend interprets them.
type TokenData struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Grant is a freshly issued session together with its tokens, as returned
// by login, token refresh, and passkey authentication.
type Grant struct {
	Session *Session
	Tokens  TokenData
}

// ErrInvalidSession reports a session that violates its own invariants.
var ErrInvalidSession = errors.New("session: invalid session")

// Validate checks the session invariants: a user identity must be present
// and the issue time must precede the expiry time.
func (s *Session) Validate() error {
	if s == nil {
		return ErrInvalidSession
	}
	if s.User.ID == "" {
		return ErrInvalidSession
	}
	if !s.IssuedAt.Before(s.ExpiresAt) {
		return ErrInvalidSession
	}
	return nil
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	return !now.Before(s.ExpiresAt)
}

// RefreshDue reports whether the session has entered its refresh window:
// 80% of the lifetime has elapsed but the session has not yet expired.
func (s *Session) RefreshDue(now time.Time) bool {
	if s == nil || s.Expired(now) {
		return false
	}
	lifetime := s.ExpiresAt.Sub(s.IssuedAt)
	refreshAt := s.IssuedAt.Add(lifetime * 4 / 5)
	return !now.Before(refreshAt)
}

// Clone returns a deep copy so callers cannot mutate the manager's view.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	copied := *s
	return &copied
}
