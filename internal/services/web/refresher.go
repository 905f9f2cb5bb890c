package web

import (
	"context"
	"log"
	"sync"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/gateway"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/refresh"
	"github.com/javiersuazo/thiam-dashboard-sub005/internal/services/web/session"
)

// refresher keeps one background refresh scheduler per live browser
// session. Refreshed grants are parked until the next request from that
// session arrives, at which point the session middleware rotates the
// cookies and re-keys the entry under the rotated session ID.
//
// Each entry also owns a long-lived session manager running the periodic
// expiry check: when a session enters its refresh window without an armed
// timer (a fire was skipped while the user was away), the check re-arms
// the scheduler so renewal resumes once activity returns.
type refresher struct {
	backend *gateway.Client

	mu      sync.Mutex
	entries map[string]*refreshEntry
}

type refreshEntry struct {
	scheduler  *refresh.Scheduler
	tracker    *refresh.Tracker
	manager    *session.Manager
	stopExpiry context.CancelFunc

	mu           sync.Mutex
	refreshToken string
	pending      *session.Grant
}

// stop tears the entry down: the armed timer and the expiry check goroutine.
func (e *refreshEntry) stop() {
	e.scheduler.Stop()
	if e.stopExpiry != nil {
		e.stopExpiry()
	}
}

func newRefresher(backend *gateway.Client) *refresher {
	return &refresher{
		backend: backend,
		entries: make(map[string]*refreshEntry),
	}
}

// Track registers a session for proactive refresh, replacing any
// scheduler already armed for the same session ID.
func (r *refresher) Track(sess *session.Session, tokens session.TokenData) {
	if r == nil || sess == nil || tokens.RefreshToken == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.entries[sess.ID]; ok {
		prev.stop()
	}

	entry := &refreshEntry{
		tracker:      refresh.NewTracker(nil),
		manager:      session.NewManager(nil),
		refreshToken: tokens.RefreshToken,
	}
	entry.manager.Bootstrap(sess)

	id := sess.ID
	scheduler, err := refresh.NewScheduler(refresh.Config{
		Tracker: entry.tracker,
		Refresh: func(ctx context.Context) error {
			return r.refreshEntry(ctx, entry)
		},
		OnRefreshed: func() {
			entry.mu.Lock()
			grant := entry.pending
			entry.mu.Unlock()
			if grant != nil {
				entry.scheduler.Schedule(grant.Session.ExpiresAt)
			}
		},
		OnError: func(err error) {
			log.Printf("session refresh for %s failed: %v", id, err)
		},
	})
	if err != nil {
		log.Printf("arm refresh scheduler: %v", err)
		return
	}

	entry.scheduler = scheduler
	scheduler.Schedule(sess.ExpiresAt)

	expiryCtx, cancel := context.WithCancel(context.Background())
	entry.stopExpiry = cancel
	entry.manager.StartExpiryCheck(expiryCtx, func(due *session.Session) {
		entry.scheduler.Schedule(due.ExpiresAt)
	})

	r.entries[id] = entry
}

// refreshEntry performs one token rotation for the entry: exchange the
// stored refresh token, park the new grant until the next request, and
// advance the entry's session view so the expiry check tracks the new
// expiry.
func (r *refresher) refreshEntry(ctx context.Context, entry *refreshEntry) error {
	entry.mu.Lock()
	token := entry.refreshToken
	entry.mu.Unlock()

	grant, err := r.backend.Refresh(ctx, token)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	entry.refreshToken = grant.Tokens.RefreshToken
	entry.pending = grant
	entry.mu.Unlock()

	if err := entry.manager.RefreshSession(grant.Session); err != nil {
		log.Printf("advance refreshed session view: %v", err)
	}
	return nil
}

// Touch records user activity for the session, keeping its scheduler
// eligible to fire.
func (r *refresher) Touch(sessionID string) {
	r.mu.Lock()
	entry, ok := r.entries[sessionID]
	r.mu.Unlock()
	if ok {
		entry.tracker.Touch()
	}
}

// TakePending pops a grant produced by a background refresh, if any.
// The caller is expected to rotate the session cookies with it and, when
// the backend rotated the session ID, re-key the entry via Drop + Track.
func (r *refresher) TakePending(sessionID string) *session.Grant {
	r.mu.Lock()
	entry, ok := r.entries[sessionID]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	grant := entry.pending
	entry.pending = nil
	return grant
}

// Drop stops and forgets the scheduler for a session, typically on logout
// or when the entry is re-keyed after session rotation.
func (r *refresher) Drop(sessionID string) {
	r.mu.Lock()
	entry, ok := r.entries[sessionID]
	delete(r.entries, sessionID)
	r.mu.Unlock()
	if ok {
		entry.stop()
	}
}

// Close stops every scheduler. Used during server shutdown.
func (r *refresher) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*refreshEntry)
	r.mu.Unlock()

	for _, entry := range entries {
		entry.stop()
	}
}
