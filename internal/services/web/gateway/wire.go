package gateway

import (
	"time"

	"github.com/google/uuid"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/passkey"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

// The backend speaks snake_case JSON. Every payload is decoded through an
// explicit mapping that produces a typed domain object or a decode error;
// shapes are never assumed.

type wireUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Role          string `json:"role"`
	AccountID     string `json:"account_id"`
	Has2FAEnabled bool   `json:"has_2fa_enabled"`
}

func (w wireUser) toDomain() (session.User, error) {
	if w.ID == "" || w.Email == "" {
		return session.User{}, NewError(CodeDecodeFailed, "user payload missing id or email")
	}
	role := session.Role(w.Role)
	if !session.KnownRole(role) {
		return session.User{}, NewError(CodeDecodeFailed, "user payload carries unknown role "+w.Role)
	}
	return session.User{
		ID:            w.ID,
		Email:         w.Email,
		FirstName:     w.FirstName,
		LastName:      w.LastName,
		Role:          role,
		AccountID:     w.AccountID,
		Has2FAEnabled: w.Has2FAEnabled,
	}, nil
}

type wireGrant struct {
	SessionID    string   `json:"session_id"`
	User         wireUser `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	IssuedAt     int64    `json:"issued_at"`
	ExpiresAt    int64    `json:"expires_at"`
}

func (w wireGrant) toDomain() (*session.Grant, error) {
	if w.AccessToken == "" || w.RefreshToken == "" {
		return nil, NewError(CodeDecodeFailed, "grant payload missing tokens")
	}
	if w.ExpiresIn <= 0 {
		return nil, NewError(CodeDecodeFailed, "grant payload missing expires_in")
	}
	user, err := w.User.toDomain()
	if err != nil {
		return nil, err
	}
	sessionID := w.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	sess := &session.Session{
		ID:        sessionID,
		User:      user,
		IssuedAt:  time.UnixMilli(w.IssuedAt),
		ExpiresAt: time.UnixMilli(w.ExpiresAt),
	}
	if err := sess.Validate(); err != nil {
		return nil, WrapError(CodeDecodeFailed, "grant payload carries an invalid session", err)
	}
	return &session.Grant{
		Session: sess,
		Tokens: session.TokenData{
			AccessToken:  w.AccessToken,
			RefreshToken: w.RefreshToken,
			ExpiresIn:    time.Duration(w.ExpiresIn) * time.Second,
		},
	}, nil
}

type wireCredential struct {
	ID              string   `json:"id"`
	UserID          string   `json:"user_id"`
	Name            string   `json:"name"`
	AttestationType string   `json:"attestation_type"`
	Transports      []string `json:"transports"`
	SignCount       uint32   `json:"sign_count"`
	CreatedAt       int64    `json:"created_at"`
	LastUsedAt      int64    `json:"last_used_at"`
}

func (w wireCredential) toDomain() (passkey.Credential, error) {
	if w.ID == "" || w.UserID == "" {
		return passkey.Credential{}, NewError(CodeDecodeFailed, "credential payload missing id or user_id")
	}
	credential := passkey.Credential{
		ID:              w.ID,
		UserID:          w.UserID,
		Name:            w.Name,
		AttestationType: w.AttestationType,
		Transports:      w.Transports,
		SignCount:       w.SignCount,
		CreatedAt:       time.UnixMilli(w.CreatedAt),
	}
	if w.LastUsedAt > 0 {
		credential.LastUsedAt = time.UnixMilli(w.LastUsedAt)
	}
	return credential, nil
}

type wireAccount struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type wireSessionCheck struct {
	User            wireUser      `json:"user"`
	Accounts        []wireAccount `json:"accounts"`
	ActiveAccountID string        `json:"active_account_id"`
	Roles           []string      `json:"roles"`
	IsImpersonating bool          `json:"is_impersonating"`
	AdminUserID     string        `json:"admin_user_id"`
}

// Account is a tenant account the user can act on behalf of.
type Account struct {
	ID   string
	Name string
}

// SessionCheck is the response of the session check endpoint.
type SessionCheck struct {
	User            session.User
	Accounts        []Account
	ActiveAccountID string
	Roles           []string
	IsImpersonating bool
	AdminUserID     string
}

func (w wireSessionCheck) toDomain() (*SessionCheck, error) {
	user, err := w.User.toDomain()
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(w.Accounts))
	for _, account := range w.Accounts {
		accounts = append(accounts, Account{ID: account.ID, Name: account.Name})
	}
	return &SessionCheck{
		User:            user,
		Accounts:        accounts,
		ActiveAccountID: w.ActiveAccountID,
		Roles:           w.Roles,
		IsImpersonating: w.IsImpersonating,
		AdminUserID:     w.AdminUserID,
	}, nil
}

type wireError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type wireMFAChallenge struct {
	MFARequired bool   `json:"mfa_required"`
	MFAToken    string `json:"mfa_token"`
}

// MFAChallenge signals that login needs a second factor. It is a distinct
// state, not a failure: the caller renders a challenge step.
type MFAChallenge struct {
	Token string
}

// LoginResult is the outcome of a password login: either a grant or an MFA
// challenge, never both.
type LoginResult struct {
	Grant *session.Grant
	MFA   *MFAChallenge
}
