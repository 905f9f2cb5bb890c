package passkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

var (
	// ErrCeremonyCancelled reports that the user dismissed the
	// authenticator prompt. Callers surface it softly; it is not an
	// application error.
	ErrCeremonyCancelled = errors.New("passkey: ceremony cancelled by user")
	// ErrCeremonyFailed reports a transport or verification failure
	// during a ceremony. Never retried automatically.
	ErrCeremonyFailed = errors.New("passkey: ceremony failed")
	// ErrCeremonyInFlight reports a second ceremony attempted while one
	// is already showing a prompt. Concurrent prompts are never allowed.
	ErrCeremonyInFlight = errors.New("passkey: another ceremony is in flight")
)

// Service is the narrow backend surface the controller needs. The gateway
// client satisfies it through an adapter that reads the bearer token from
// the request context on each call.
type Service interface {
	BeginRegistration(ctx context.Context) (*RegistrationChallenge, error)
	FinishRegistration(ctx context.Context, ceremonyID, name string, attestation json.RawMessage) (*Credential, error)
	BeginLogin(ctx context.Context) (*LoginChallenge, error)
	FinishLogin(ctx context.Context, ceremonyID string, assertion json.RawMessage) (*session.Grant, error)
	ListCredentials(ctx context.Context) ([]Credential, error)
	DeleteCredential(ctx context.Context, id string) error
	RenameCredential(ctx context.Context, id, name string) error
}

// Authenticator abstracts the platform's credential management API: the
// out-of-band biometric or security-key prompt. Create and Get suspend
// until the user completes or cancels the interaction; implementations
// return ErrCeremonyCancelled (possibly wrapped) on user dismissal.
type Authenticator interface {
	Create(ctx context.Context, options *RegistrationChallenge) (json.RawMessage, error)
	Get(ctx context.Context, options *LoginChallenge) (json.RawMessage, error)
	Capabilities(ctx context.Context) Capabilities
}

// Controller runs the two-phase registration and authentication protocols.
// At most one ceremony may be in flight per controller; a second attempt is
// rejected rather than queued so two prompts can never show at once.
type Controller struct {
	service       Service
	authenticator Authenticator

	mu       sync.Mutex
	inFlight bool

	capsOnce sync.Once
	caps     Capabilities

	cacheMu     sync.Mutex
	credentials []Credential
	cacheValid  bool
}

// NewController returns a controller over the given collaborators. The
// authenticator may be nil where no local credential-management API exists
// (the server manages credentials; the browser runs the prompts): ceremonies
// then fail, capability probes report no support, and credential management
// still works.
func NewController(service Service, authenticator Authenticator) (*Controller, error) {
	if service == nil {
		return nil, errors.New("passkey: service is required")
	}
	return &Controller{service: service, authenticator: authenticator}, nil
}

// Ceremony is a cancellable handle for an in-flight ceremony. The
// underlying browser prompt cannot be cancelled programmatically, but the
// handle gives callers a consistent cancellation story: Cancel abandons
// the ceremony's result.
type Ceremony struct {
	cancel context.CancelFunc
}

// Cancel abandons the ceremony. The prompt may remain visible until the
// platform times it out; its eventual result is discarded.
func (c *Ceremony) Cancel() {
	if c != nil && c.cancel != nil {
		c.cancel()
	}
}

func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrCeremonyInFlight
	}
	c.inFlight = true
	return nil
}

func (c *Controller) end() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// Register runs the full registration protocol: fetch a challenge, run the
// authenticator's credential-creation prompt, and submit the attestation
// with a human-readable credential name. It never retries: a prompt must
// never be re-triggered without explicit user action.
func (c *Controller) Register(ctx context.Context, name string) (*Credential, error) {
	if c.authenticator == nil {
		return nil, fmt.Errorf("%w: no authenticator available", ErrCeremonyFailed)
	}
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	ctx, handle := c.newCeremonyContext(ctx)
	defer handle.Cancel()

	challenge, err := c.service.BeginRegistration(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}
	attestation, err := c.authenticator.Create(ctx, challenge)
	if err != nil {
		return nil, ceremonyError(err)
	}
	credential, err := c.service.FinishRegistration(ctx, challenge.CeremonyID, name, attestation)
	if err != nil {
		return nil, fmt.Errorf("finish registration: %w", err)
	}
	c.invalidateCache()
	return credential, nil
}

// Authenticate runs the discoverable authentication protocol: no user
// identifier is supplied; the authenticator surfaces whichever local
// credentials match the relying party. The backend identifies the user
// from the assertion and returns fresh tokens.
func (c *Controller) Authenticate(ctx context.Context) (*session.Grant, error) {
	if c.authenticator == nil {
		return nil, fmt.Errorf("%w: no authenticator available", ErrCeremonyFailed)
	}
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	ctx, handle := c.newCeremonyContext(ctx)
	defer handle.Cancel()

	challenge, err := c.service.BeginLogin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin login: %w", err)
	}
	assertion, err := c.authenticator.Get(ctx, challenge)
	if err != nil {
		return nil, ceremonyError(err)
	}
	grant, err := c.service.FinishLogin(ctx, challenge.CeremonyID, assertion)
	if err != nil {
		return nil, fmt.Errorf("finish login: %w", err)
	}
	return grant, nil
}

func (c *Controller) newCeremonyContext(ctx context.Context) (context.Context, *Ceremony) {
	ctx, cancel := context.WithCancel(ctx)
	return ctx, &Ceremony{cancel: cancel}
}

// ceremonyError keeps user cancellation distinguishable from everything
// else; all other authenticator failures collapse into the generic
// ceremony failure.
func ceremonyError(err error) error {
	if errors.Is(err, ErrCeremonyCancelled) || errors.Is(err, context.Canceled) {
		return ErrCeremonyCancelled
	}
	return fmt.Errorf("%w: %w", ErrCeremonyFailed, err)
}

// ListPasskeys returns the registered credentials, served from cache until
// a mutation invalidates it.
func (c *Controller) ListPasskeys(ctx context.Context) ([]Credential, error) {
	c.cacheMu.Lock()
	if c.cacheValid {
		cached := make([]Credential, len(c.credentials))
		copy(cached, c.credentials)
		c.cacheMu.Unlock()
		return cached, nil
	}
	c.cacheMu.Unlock()

	credentials, err := c.service.ListCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c.cacheMu.Lock()
	c.credentials = credentials
	c.cacheValid = true
	c.cacheMu.Unlock()
	return credentials, nil
}

// DeletePasskey removes a credential and invalidates the cache.
func (c *Controller) DeletePasskey(ctx context.Context, id string) error {
	if err := c.service.DeleteCredential(ctx, id); err != nil {
		return err
	}
	c.invalidateCache()
	return nil
}

// RenamePasskey renames a credential and invalidates the cache.
func (c *Controller) RenamePasskey(ctx context.Context, id, name string) error {
	if err := c.service.RenameCredential(ctx, id, name); err != nil {
		return err
	}
	c.invalidateCache()
	return nil
}

func (c *Controller) invalidateCache() {
	c.cacheMu.Lock()
	c.credentials = nil
	c.cacheValid = false
	c.cacheMu.Unlock()
}

// IsSupported reports whether the platform exposes the credential
// management API at all.
func (c *Controller) IsSupported(ctx context.Context) bool {
	return c.capabilities(ctx).Supported
}

// HasPlatformAuthenticator reports whether an embedded biometric
// authenticator is available.
func (c *Controller) HasPlatformAuthenticator(ctx context.Context) bool {
	return c.capabilities(ctx).PlatformAuthenticator
}

func (c *Controller) capabilities(ctx context.Context) Capabilities {
	c.capsOnce.Do(func() {
		if c.authenticator != nil {
			c.caps = c.authenticator.Capabilities(ctx)
		}
	})
	return c.caps
}
