// Package tokencookie centralizes bearer token cookie behavior.
//
// The access and refresh tokens live in separate HTTP-only cookies. The
// store never inspects token content; decoding and verification belong to
// the backend.
package tokencookie

import (
	"net/http"
	"strings"
	"time"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/platform/requestmeta"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

const (
	// AccessTokenName is the cookie carrying the short-lived access token.
	AccessTokenName = "access_token"
	// RefreshTokenName is the cookie carrying the refresh token.
	RefreshTokenName = "refresh_token"
)

// RefreshTokenLifetime is the fixed ceiling on the refresh cookie lifetime,
// independent of the access token's own lifetime.
const RefreshTokenLifetime = 7 * 24 * time.Hour

// Store reads and writes the token cookies under a scheme policy.
type Store struct {
	policy requestmeta.SchemePolicy
}

// NewStore returns a token cookie store using the given scheme policy to
// decide the Secure attribute.
func NewStore(policy requestmeta.SchemePolicy) *Store {
	return &Store{policy: policy}
}

// Save writes access and refresh tokens as separate cookies. The access
// cookie expires with the token; the refresh cookie gets the fixed ceiling.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, tokens session.TokenData) {
	if w == nil {
		return
	}
	s.set(w, r, AccessTokenName, tokens.AccessToken, int(tokens.ExpiresIn.Seconds()))
	s.set(w, r, RefreshTokenName, tokens.RefreshToken, int(RefreshTokenLifetime.Seconds()))
}

// AccessToken returns the stored access token when present.
func (s *Store) AccessToken(r *http.Request) (string, bool) {
	return read(r, AccessTokenName)
}

// RefreshToken returns the stored refresh token when present.
func (s *Store) RefreshToken(r *http.Request) (string, bool) {
	return read(r, RefreshTokenName)
}

// Exists reports whether a non-empty access token is present.
func (s *Store) Exists(r *http.Request) bool {
	_, ok := s.AccessToken(r)
	return ok
}

// Clear expires both token cookies. Both removals are always attempted.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	s.set(w, r, AccessTokenName, "", -1)
	s.set(w, r, RefreshTokenName, "", -1)
}

func (s *Store) set(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    strings.TrimSpace(value),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPSWithPolicy(r, s.policy),
		SameSite: http.SameSiteLaxMode,
	})
}

func read(r *http.Request, name string) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(name)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}
