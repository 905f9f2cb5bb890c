// Package sessionseal seals the session envelope cookie.
//
// The envelope carries the materialized session as an HMAC-signed token so
// the dashboard can restore identity across requests without a backend
// round-trip, and tampering is detectable. Edge route gating never reads
// the envelope; it gates on access-token cookie presence only.
package sessionseal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/platform/requestmeta"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

// Name is the canonical session envelope cookie name.
const Name = "thiam_session"

// ErrInvalidEnvelope reports an envelope that failed signature or shape
// validation.
var ErrInvalidEnvelope = errors.New("sessionseal: invalid envelope")

// Sealer signs and verifies session envelopes with an HMAC key.
type Sealer struct {
	key    []byte
	policy requestmeta.SchemePolicy
	now    func() time.Time
}

// NewSealer returns a sealer for the given key. The key must not be empty.
func NewSealer(key []byte, policy requestmeta.SchemePolicy) (*Sealer, error) {
	if len(key) == 0 {
		return nil, errors.New("sessionseal: key is required")
	}
	return &Sealer{key: key, policy: policy, now: time.Now}, nil
}

// envelopeClaims is the wire shape of the sealed session.
type envelopeClaims struct {
	Email         string `json:"email"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Role          string `json:"role"`
	AccountID     string `json:"account_id,omitempty"`
	Has2FAEnabled bool   `json:"has_2fa_enabled"`
	jwt.RegisteredClaims
}

// Seal encodes a session into a signed envelope value.
func (s *Sealer) Seal(sess *session.Session) (string, error) {
	if err := sess.Validate(); err != nil {
		return "", err
	}
	claims := envelopeClaims{
		Email:         sess.User.Email,
		FirstName:     sess.User.FirstName,
		LastName:      sess.User.LastName,
		Role:          string(sess.User.Role),
		AccountID:     sess.User.AccountID,
		Has2FAEnabled: sess.User.Has2FAEnabled,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.User.ID,
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("seal session: %w", err)
	}
	return signed, nil
}

// Open verifies an envelope value and decodes the session it carries.
func (s *Sealer) Open(value string) (*session.Session, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrInvalidEnvelope
	}
	var claims envelopeClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, ErrInvalidEnvelope
	}
	sess := &session.Session{
		ID: claims.ID,
		User: session.User{
			ID:            claims.Subject,
			Email:         claims.Email,
			FirstName:     claims.FirstName,
			LastName:      claims.LastName,
			Role:          session.Role(claims.Role),
			AccountID:     claims.AccountID,
			Has2FAEnabled: claims.Has2FAEnabled,
		},
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if err := sess.Validate(); err != nil {
		return nil, ErrInvalidEnvelope
	}
	return sess, nil
}

// Write sets the envelope cookie for the current request context. The
// cookie expires with the session.
func (s *Sealer) Write(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	if w == nil {
		return errors.New("sessionseal: response writer is required")
	}
	value, err := s.Seal(sess)
	if err != nil {
		return err
	}
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPSWithPolicy(r, s.policy),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read opens the envelope cookie from the request.
func (s *Sealer) Read(r *http.Request) (*session.Session, error) {
	if r == nil {
		return nil, session.ErrNotFound
	}
	cookie, err := r.Cookie(Name)
	if err != nil || cookie == nil || strings.TrimSpace(cookie.Value) == "" {
		return nil, session.ErrNotFound
	}
	return s.Open(cookie.Value)
}

// Clear expires the envelope cookie for the current request context.
func (s *Sealer) Clear(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPSWithPolicy(r, s.policy),
		SameSite: http.SameSiteLaxMode,
	})
}
