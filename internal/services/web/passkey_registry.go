package web

import (
	"sync"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/passkey"
)

// passkeyRegistry keeps one ceremony controller per live browser session,
// so the credential list cache and the single-ceremony gate span requests.
// Controllers carry no local authenticator: the browser runs the prompt,
// and the server-side controller only manages credentials.
type passkeyRegistry struct {
	service passkey.Service

	mu      sync.Mutex
	entries map[string]*passkey.Controller
}

func newPasskeyRegistry(service passkey.Service) *passkeyRegistry {
	return &passkeyRegistry{
		service: service,
		entries: make(map[string]*passkey.Controller),
	}
}

// For returns the controller for a session, creating it on first use.
func (p *passkeyRegistry) For(sessionID string) (*passkey.Controller, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if controller, ok := p.entries[sessionID]; ok {
		return controller, nil
	}
	controller, err := passkey.NewController(p.service, nil)
	if err != nil {
		return nil, err
	}
	p.entries[sessionID] = controller
	return controller, nil
}

// Rekey moves a controller under a rotated session ID, keeping its cache.
// Rotation preserves the principal, so the cached credential list stays
// valid.
func (p *passkeyRegistry) Rekey(oldID, newID string) {
	if oldID == newID {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if controller, ok := p.entries[oldID]; ok {
		delete(p.entries, oldID)
		p.entries[newID] = controller
	}
}

// Drop forgets the controller for a session, typically on logout or when
// a new grant replaces the session with a different principal.
func (p *passkeyRegistry) Drop(sessionID string) {
	p.mu.Lock()
	delete(p.entries, sessionID)
	p.mu.Unlock()
}
