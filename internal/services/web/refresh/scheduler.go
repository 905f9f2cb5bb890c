package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/javiersuazo/thiam-dashboard-sub005/internal/platform/timeouts"
)

// refreshFloor is the minimum delay before a scheduled refresh. Sessions
// already near expiry still wait this long, which avoids refresh storms.
const refreshFloor = time.Minute

// Delay computes how long to wait before refreshing a session that expires
// at the given time: 80% of the remaining lifetime, floored at one minute.
func Delay(now, expiresAt time.Time) time.Duration {
	remaining := expiresAt.Sub(now)
	delay := remaining * 4 / 5
	if delay < refreshFloor {
		return refreshFloor
	}
	return delay
}

// Config wires a scheduler to its collaborators. Refresh performs the
// actual renewal; the scheduler only decides when to run it.
type Config struct {
	Refresh     func(context.Context) error
	OnRefreshed func()
	OnError     func(error)
	Tracker     *Tracker
	Now         func() time.Time
}

// Scheduler arms a one-shot timer that renews the session before expiry.
//
// States: idle (no timer), scheduled (timer armed), refreshing (renewal in
// flight). Rearming cancels any previously armed timer, so at most one is
// pending. A fired timer whose guards fail is silently skipped and nothing
// is re-armed until the next session change.
type Scheduler struct {
	mu         sync.Mutex
	timer      *time.Timer
	refreshing bool
	stopped    bool

	refresh     func(context.Context) error
	onRefreshed func()
	onError     func(error)
	tracker     *Tracker
	now         func() time.Time
}

// NewScheduler returns an idle scheduler.
func NewScheduler(cfg Config) (*Scheduler, error) {
	if cfg.Refresh == nil {
		return nil, errors.New("refresh: refresh func is required")
	}
	if cfg.Tracker == nil {
		return nil, errors.New("refresh: activity tracker is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		refresh:     cfg.Refresh,
		onRefreshed: cfg.OnRefreshed,
		onError:     cfg.OnError,
		tracker:     cfg.Tracker,
		now:         now,
	}, nil
}

// Schedule arms the timer for the session expiring at expiresAt, cancelling
// any previously armed timer. Call it on every session change.
func (s *Scheduler) Schedule(expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(Delay(s.now(), expiresAt), s.fire)
}

// Stop cancels any armed timer. The scheduler cannot be re-armed after
// Stop; it is meant for teardown so no orphaned timers persist.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fire runs when the armed timer elapses. Both guards must hold or the
// attempt is skipped without re-arming.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.stopped || s.refreshing || !s.tracker.ActiveWithin(ActivityWindow) {
		s.mu.Unlock()
		return
	}
	s.refreshing = true
	s.timer = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.SessionRefresh)
	err := s.refresh(ctx)
	cancel()

	s.mu.Lock()
	s.refreshing = false
	s.mu.Unlock()

	if err != nil {
		if s.onError != nil {
			s.onError(err)
		}
		return
	}
	if s.onRefreshed != nil {
		s.onRefreshed()
	}
}

// Refreshing reports whether a renewal is currently in flight.
func (s *Scheduler) Refreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing
}
