// Package gateway is the typed HTTP client for the marketplace backend
// auth API. It is the repository boundary: wire payloads are decoded and
// validated here, and every failure is re-thrown as a domain-shaped error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/platform/timeouts"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/passkey"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

const tracerName = "thiam.dashboard.gateway"

// Client calls the backend auth API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, primarily for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New returns a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeouts.BackendRequest},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// call performs one backend round-trip: encode, send with a request ID and
// span, map non-2xx responses to domain errors, decode the body into out.
func (c *Client) call(ctx context.Context, method, path, bearer string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, method+" "+path)
	defer span.End()
	span.SetAttributes(attribute.String("http.route", path))

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return WrapError(CodeInternal, "encode request", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return WrapError(CodeInternal, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return WrapError(CodeUnavailable, "backend unreachable", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return WrapError(CodeUnavailable, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(resp.StatusCode, payload)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return WrapError(CodeDecodeFailed, "decode response", err)
	}
	return nil
}

// errorFromResponse prefers the backend's own error code over the status
// fallback so user-facing distinctions (invalid credentials vs MFA code)
// survive the boundary.
func (c *Client) errorFromResponse(status int, payload []byte) error {
	var wire wireError
	if err := json.Unmarshal(payload, &wire); err == nil && wire.Error.Code != "" {
		message := wire.Error.Message
		if message == "" {
			message = "request failed"
		}
		return &Error{Code: Code(wire.Error.Code), Message: message, Status: status}
	}
	return &Error{
		Code:    codeForStatus(status),
		Message: fmt.Sprintf("backend returned status %d", status),
		Status:  status,
	}
}

// Login exchanges credentials for a grant, or an MFA challenge when the
// account requires a second factor.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	request := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var payload json.RawMessage
	if err := c.call(ctx, http.MethodPost, "/v1/auth/login", "", request, &payload); err != nil {
		return nil, err
	}

	var challenge wireMFAChallenge
	if err := json.Unmarshal(payload, &challenge); err == nil && challenge.MFARequired {
		if challenge.MFAToken == "" {
			return nil, NewError(CodeDecodeFailed, "mfa challenge missing token")
		}
		return &LoginResult{MFA: &MFAChallenge{Token: challenge.MFAToken}}, nil
	}

	grant, err := decodeGrant(payload)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Grant: grant}, nil
}

// SubmitMFACode completes a login that required a second factor.
func (c *Client) SubmitMFACode(ctx context.Context, mfaToken, code string) (*session.Grant, error) {
	request := struct {
		MFAToken string `json:"mfa_token"`
		Code     string `json:"code"`
	}{MFAToken: mfaToken, Code: code}

	var payload json.RawMessage
	if err := c.call(ctx, http.MethodPost, "/v1/auth/mfa/verify", "", request, &payload); err != nil {
		return nil, err
	}
	return decodeGrant(payload)
}

// Refresh exchanges a refresh token for a whole new grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*session.Grant, error) {
	request := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}

	var payload json.RawMessage
	if err := c.call(ctx, http.MethodPost, "/v1/auth/refresh", "", request, &payload); err != nil {
		return nil, err
	}
	return decodeGrant(payload)
}

// Logout revokes the session server-side. Failures are the caller's to
// downgrade: local state is cleared regardless since tokens expire anyway.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.call(ctx, http.MethodPost, "/v1/auth/logout", accessToken, nil, nil)
}

// RegisterParams is the sign-up payload.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      session.Role
}

// Register creates an account. The backend sends a verification email; no
// tokens are issued until the address is verified.
func (c *Client) Register(ctx context.Context, params RegisterParams) error {
	request := struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
	}{
		Email:     params.Email,
		Password:  params.Password,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Role:      string(params.Role),
	}
	return c.call(ctx, http.MethodPost, "/v1/auth/register", "", request, nil)
}

// VerifyEmail confirms an email verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	request := struct {
		Token string `json:"token"`
	}{Token: token}
	return c.call(ctx, http.MethodPost, "/v1/auth/email/verify", "", request, nil)
}

// ResendVerification asks the backend to send a fresh verification email.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	request := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.call(ctx, http.MethodPost, "/v1/auth/email/resend", "", request, nil)
}

// CheckSession resolves the bearer token into the account overview shape
// served by the session check endpoint.
func (c *Client) CheckSession(ctx context.Context, accessToken string) (*SessionCheck, error) {
	var wire wireSessionCheck
	if err := c.call(ctx, http.MethodGet, "/v1/auth/session", accessToken, nil, &wire); err != nil {
		return nil, err
	}
	return wire.toDomain()
}

// BeginPasskeyRegistration requests a registration challenge for the
// authenticated user.
func (c *Client) BeginPasskeyRegistration(ctx context.Context, accessToken string) (*passkey.RegistrationChallenge, error) {
	var wire struct {
		CeremonyID string          `json:"ceremony_id"`
		PublicKey  json.RawMessage `json:"public_key"`
	}
	if err := c.call(ctx, http.MethodPost, "/v1/auth/passkeys/register/begin", accessToken, nil, &wire); err != nil {
		return nil, err
	}
	if wire.CeremonyID == "" || len(wire.PublicKey) == 0 {
		return nil, NewError(CodeDecodeFailed, "registration challenge missing ceremony or options")
	}
	challenge := &passkey.RegistrationChallenge{CeremonyID: wire.CeremonyID}
	if err := json.Unmarshal(wire.PublicKey, &challenge.Options); err != nil {
		return nil, WrapError(CodeDecodeFailed, "decode creation options", err)
	}
	return challenge, nil
}

// FinishPasskeyRegistration submits the attestation response with the
// caller-supplied credential name for verification and storage.
func (c *Client) FinishPasskeyRegistration(ctx context.Context, accessToken, ceremonyID, name string, attestation json.RawMessage) (*passkey.Credential, error) {
	request := struct {
		CeremonyID string          `json:"ceremony_id"`
		Name       string          `json:"name"`
		Credential json.RawMessage `json:"credential"`
	}{CeremonyID: ceremonyID, Name: name, Credential: attestation}

	var wire wireCredential
	if err := c.call(ctx, http.MethodPost, "/v1/auth/passkeys/register/finish", accessToken, request, &wire); err != nil {
		return nil, err
	}
	credential, err := wire.toDomain()
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

// BeginPasskeyLogin requests a discoverable authentication challenge; no
// user identifier is supplied.
func (c *Client) BeginPasskeyLogin(ctx context.Context) (*passkey.LoginChallenge, error) {
	var wire struct {
		CeremonyID string          `json:"ceremony_id"`
		PublicKey  json.RawMessage `json:"public_key"`
	}
	if err := c.call(ctx, http.MethodPost, "/v1/auth/passkeys/login/begin", "", nil, &wire); err != nil {
		return nil, err
	}
	if wire.CeremonyID == "" || len(wire.PublicKey) == 0 {
		return nil, NewError(CodeDecodeFailed, "login challenge missing ceremony or options")
	}
	challenge := &passkey.LoginChallenge{CeremonyID: wire.CeremonyID}
	if err := json.Unmarshal(wire.PublicKey, &challenge.Options); err != nil {
		return nil, WrapError(CodeDecodeFailed, "decode assertion options", err)
	}
	return challenge, nil
}

// FinishPasskeyLogin submits the assertion; the backend identifies the
// user from the credential ID embedded in it and returns fresh tokens.
func (c *Client) FinishPasskeyLogin(ctx context.Context, ceremonyID string, assertion json.RawMessage) (*session.Grant, error) {
	request := struct {
		CeremonyID string          `json:"ceremony_id"`
		Credential json.RawMessage `json:"credential"`
	}{CeremonyID: ceremonyID, Credential: assertion}

	var payload json.RawMessage
	if err := c.call(ctx, http.MethodPost, "/v1/auth/passkeys/login/finish", "", request, &payload); err != nil {
		return nil, err
	}
	return decodeGrant(payload)
}

// ListPasskeys returns the user's registered credentials.
func (c *Client) ListPasskeys(ctx context.Context, accessToken string) ([]passkey.Credential, error) {
	var wire struct {
		Credentials []wireCredential `json:"credentials"`
	}
	if err := c.call(ctx, http.MethodGet, "/v1/auth/passkeys", accessToken, nil, &wire); err != nil {
		return nil, err
	}
	credentials := make([]passkey.Credential, 0, len(wire.Credentials))
	for _, raw := range wire.Credentials {
		credential, err := raw.toDomain()
		if err != nil {
			return nil, err
		}
		credentials = append(credentials, credential)
	}
	return credentials, nil
}

// DeletePasskey removes one credential.
func (c *Client) DeletePasskey(ctx context.Context, accessToken, id string) error {
	return c.call(ctx, http.MethodDelete, "/v1/auth/passkeys/"+id, accessToken, nil, nil)
}

// RenamePasskey changes a credential's human-readable name.
func (c *Client) RenamePasskey(ctx context.Context, accessToken, id, name string) error {
	request := struct {
		Name string `json:"name"`
	}{Name: name}
	return c.call(ctx, http.MethodPatch, "/v1/auth/passkeys/"+id+"/rename", accessToken, request, nil)
}

func decodeGrant(payload []byte) (*session.Grant, error) {
	var wire wireGrant
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, WrapError(CodeDecodeFailed, "decode grant", err)
	}
	return wire.toDomain()
}
