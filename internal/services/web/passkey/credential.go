// Package passkey orchestrates WebAuthn credential ceremonies against the
// backend and the platform authenticator.
package passkey

import (
	"time"

	"github.com/go-webauthn/webauthn/protocol"
)

// Credential is a registered passkey as the backend reports it. Only
// public-key material and the credential ID are stored server-side; the
// private key never leaves the authenticator. SignCount and LastUsedAt are
// advanced by the backend on each successful authentication.
type Credential struct {
	ID              string
	UserID          string
	Name            string
	AttestationType string
	Transports      []string
	SignCount       uint32
	CreatedAt       time.Time
	LastUsedAt      time.Time
}

// RegistrationChallenge is the server-issued challenge scoping one
// registration ceremony. It is single-use and never persisted beyond the
// ceremony round-trip.
type RegistrationChallenge struct {
	CeremonyID string
	Options    *protocol.CredentialCreation
}

// LoginChallenge is the server-issued challenge scoping one discoverable
// authentication ceremony.
type LoginChallenge struct {
	CeremonyID string
	Options    *protocol.CredentialAssertion
}

// Capabilities reports what the platform's credential management API
// offers. Probed once per controller, never on a server-rendering path.
type Capabilities struct {
	// Supported is true when the credential management API exists at all.
	Supported bool
	// PlatformAuthenticator is true when an embedded biometric
	// authenticator is available.
	PlatformAuthenticator bool
}
