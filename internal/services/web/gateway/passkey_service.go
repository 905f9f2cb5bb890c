package gateway

import (
	"context"
	"encoding/json"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/passkey"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

// PasskeyService adapts the client to the ceremony controller's backend
// surface. The bearer token is read from the request context on each call,
// so one adapter serves every session; login begin/finish stay
// unauthenticated because discoverable login happens before any token
// exists.
func (c *Client) PasskeyService() passkey.Service {
	return passkeyService{client: c}
}

type passkeyService struct {
	client *Client
}

func (s passkeyService) BeginRegistration(ctx context.Context) (*passkey.RegistrationChallenge, error) {
	return s.client.BeginPasskeyRegistration(ctx, session.AccessTokenFromContext(ctx))
}

func (s passkeyService) FinishRegistration(ctx context.Context, ceremonyID, name string, attestation json.RawMessage) (*passkey.Credential, error) {
	return s.client.FinishPasskeyRegistration(ctx, session.AccessTokenFromContext(ctx), ceremonyID, name, attestation)
}

func (s passkeyService) BeginLogin(ctx context.Context) (*passkey.LoginChallenge, error) {
	return s.client.BeginPasskeyLogin(ctx)
}

func (s passkeyService) FinishLogin(ctx context.Context, ceremonyID string, assertion json.RawMessage) (*session.Grant, error) {
	return s.client.FinishPasskeyLogin(ctx, ceremonyID, assertion)
}

func (s passkeyService) ListCredentials(ctx context.Context) ([]passkey.Credential, error) {
	return s.client.ListPasskeys(ctx, session.AccessTokenFromContext(ctx))
}

func (s passkeyService) DeleteCredential(ctx context.Context, id string) error {
	return s.client.DeletePasskey(ctx, session.AccessTokenFromContext(ctx), id)
}

func (s passkeyService) RenameCredential(ctx context.Context, id, name string) error {
	return s.client.RenamePasskey(ctx, session.AccessTokenFromContext(ctx), id, name)
}
