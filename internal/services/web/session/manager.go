package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotAuthenticated reports an access to user identity without a session.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// ErrNotFound is returned by a Persister when no session is stored.
var ErrNotFound = errors.New("session: no persisted session")

// Persister abstracts the storage the manager writes sessions through.
// The cookie-backed implementation binds the sealed envelope cookie to a
// single request/response cycle; tests use an in-memory fake.
type Persister interface {
	Load() (*Session, error)
	Save(*Session) error
	Clear() error
}

// expiryCheckPeriod is how often the manager re-evaluates whether the
// current session has entered its refresh window.
const expiryCheckPeriod = 5 * time.Minute

// Manager owns the in-memory session view. All mutation goes through the
// named operations below; no other component writes to the view directly.
type Manager struct {
	mu        sync.Mutex
	persister Persister
	current   *Session
	loading   bool
	err       error
}

// NewManager returns a manager backed by the given persister. The manager
// reports loading until Bootstrap runs.
func NewManager(persister Persister) *Manager {
	return &Manager{persister: persister, loading: true}
}

// Bootstrap adopts a session that was already established server-side, or
// falls back to loading a previously persisted one. An adopted session is
// persisted back so storage and view agree.
func (m *Manager) Bootstrap(established *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.loading = false }()

	if established != nil {
		if err := established.Validate(); err != nil {
			m.err = err
			return
		}
		m.current = established.Clone()
		m.err = m.persist(m.current)
		return
	}

	if m.persister == nil {
		return
	}
	loaded, err := m.persister.Load()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.err = err
		}
		return
	}
	if err := loaded.Validate(); err != nil {
		m.err = err
		return
	}
	m.current = loaded.Clone()
}

// Login replaces the session wholesale and persists it.
func (m *Manager) Login(sess *Session) error {
	return m.replace(sess)
}

// RefreshSession replaces the session wholesale and persists it. It is
// identical to Login by design: refresh produces a whole new session.
func (m *Manager) RefreshSession(sess *Session) error {
	return m.replace(sess)
}

func (m *Manager) replace(sess *Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = sess.Clone()
	m.err = nil
	return m.persist(m.current)
}

// UserUpdate is a shallow patch over the current user. Nil fields are left
// untouched.
type UserUpdate struct {
	Email         *string
	FirstName     *string
	LastName      *string
	Role          *Role
	AccountID     *string
	Has2FAEnabled *bool
}

// UpdateUser merges the patch over the existing user and persists the
// result. Without a session it is a safe no-op.
func (m *Manager) UpdateUser(update UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	user := m.current.User
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.AccountID != nil {
		user.AccountID = *update.AccountID
	}
	if update.Has2FAEnabled != nil {
		user.Has2FAEnabled = *update.Has2FAEnabled
	}
	m.current.User = user
	return m.persist(m.current)
}

// Logout clears the in-memory view and persisted storage. Afterwards the
// manager is indistinguishable from one that never authenticated.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.err = nil
	if m.persister == nil {
		return nil
	}
	return m.persister.Clear()
}

func (m *Manager) persist(sess *Session) error {
	if m.persister == nil {
		return nil
	}
	return m.persister.Save(sess)
}

// Session returns a copy of the current session, or nil.
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// User returns a copy of the current user, or nil.
func (m *Manager) User() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	user := m.current.User
	return &user
}

// IsAuthenticated reports whether a session is currently materialized.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// Loading reports whether Bootstrap has not completed yet.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Err returns the last bootstrap or persistence error.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// RequireUser returns the current user or fails fast when unauthenticated,
// so consumers that need an identity never operate on a zero value.
func (m *Manager) RequireUser() (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return User{}, ErrNotAuthenticated
	}
	return m.current.User, nil
}

// StartExpiryCheck periodically evaluates whether the current session has
// entered its refresh window and signals through onDue. It only performs
// the check; the actual renewal belongs to the refresh scheduler. The
// goroutine exits when ctx is cancelled.
func (m *Manager) StartExpiryCheck(ctx context.Context, onDue func(*Session)) {
	m.startExpiryCheck(ctx, expiryCheckPeriod, onDue)
}

func (m *Manager) startExpiryCheck(ctx context.Context, period time.Duration, onDue func(*Session)) {
	if onDue == nil || period <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if sess := m.Session(); sess.RefreshDue(now) {
					onDue(sess)
				}
			}
		}
	}()
}
