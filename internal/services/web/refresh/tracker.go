// Package refresh proactively renews sessions before expiry, gated by
// recent user activity.
package refresh

import (
	"sync/atomic"
	"time"
)

// ActivityWindow is how recently the user must have interacted with the
// dashboard for a scheduled refresh to proceed. Abandoned tabs fall out of
// this window and stop being refreshed.
const ActivityWindow = 5 * time.Minute

// Tracker records a rolling last-activity timestamp. Touch is cheap and
// safe to call from request handling paths.
type Tracker struct {
	last atomic.Int64
	now  func() time.Time
}

// NewTracker returns a tracker whose initial activity is the current time.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	t := &Tracker{now: now}
	t.Touch()
	return t
}

// Touch records activity at the current time.
func (t *Tracker) Touch() {
	t.last.Store(t.now().UnixMilli())
}

// LastActivity returns the most recently recorded activity time.
func (t *Tracker) LastActivity() time.Time {
	return time.UnixMilli(t.last.Load())
}

// ActiveWithin reports whether activity was recorded inside the window.
func (t *Tracker) ActiveWithin(window time.Duration) bool {
	return t.now().Sub(t.LastActivity()) <= window
}
