package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestDelay(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cases := []struct {
		name      string
		remaining time.Duration
		want      time.Duration
	}{
		{"long lifetime", 100 * time.Second, 80 * time.Second},
		{"one hour", time.Hour, 48 * time.Minute},
		{"short lifetime floors", 30 * time.Second, time.Minute},
		{"already expired floors", -time.Minute, time.Minute},
		{"exactly at floor boundary", 75 * time.Second, time.Minute},
	}
	for _, tc := range cases {
		if got := Delay(now, now.Add(tc.remaining)); got != tc.want {
			t.Errorf("%s: Delay = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNewSchedulerValidation(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(nil)
	if _, err := NewScheduler(Config{Tracker: tracker}); err == nil {
		t.Fatal("NewScheduler accepted missing refresh func")
	}
	if _, err := NewScheduler(Config{Refresh: func(context.Context) error { return nil }}); err == nil {
		t.Fatal("NewScheduler accepted missing tracker")
	}
}

func TestFireRefreshesWhenActive(t *testing.T) {
	t.Parallel()

	refreshed := make(chan struct{}, 1)
	var calls int
	s, err := NewScheduler(Config{
		Tracker: NewTracker(nil),
		Refresh: func(context.Context) error {
			calls++
			return nil
		},
		OnRefreshed: func() { refreshed <- struct{}{} },
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s.fire()

	select {
	case <-refreshed:
	default:
		t.Fatal("OnRefreshed not called")
	}
	if calls != 1 {
		t.Fatalf("refresh calls = %d, want 1", calls)
	}
}

func TestFireSkipsWithoutRecentActivity(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Hour)
	current := past
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	tracker := NewTracker(now)
	mu.Lock()
	current = past.Add(ActivityWindow + time.Second)
	mu.Unlock()

	s, err := NewScheduler(Config{
		Tracker: tracker,
		Now:     now,
		Refresh: func(context.Context) error {
			t.Error("refresh ran despite stale activity")
			return nil
		},
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s.fire()
}

func TestFireReportsErrorWithoutOnRefreshed(t *testing.T) {
	t.Parallel()

	refreshErr := errors.New("backend down")
	var gotErr error
	s, err := NewScheduler(Config{
		Tracker:     NewTracker(nil),
		Refresh:     func(context.Context) error { return refreshErr },
		OnRefreshed: func() { t.Error("OnRefreshed called after failure") },
		OnError:     func(err error) { gotErr = err },
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s.fire()

	if !errors.Is(gotErr, refreshErr) {
		t.Fatalf("OnError got %v, want %v", gotErr, refreshErr)
	}
	if s.Refreshing() {
		t.Fatal("scheduler stuck in refreshing state")
	}
}

func TestFireSkipsWhileRefreshing(t *testing.T) {
	t.Parallel()

	var calls int
	s, err := NewScheduler(Config{
		Tracker: NewTracker(nil),
		Refresh: func(context.Context) error {
			calls++
			return nil
		},
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s.mu.Lock()
	s.refreshing = true
	s.mu.Unlock()

	s.fire()
	if calls != 0 {
		t.Fatalf("refresh calls = %d, want 0 while already refreshing", calls)
	}
}

func TestStoppedSchedulerNeverFiresOrRearms(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(Config{
		Tracker: NewTracker(nil),
		Refresh: func(context.Context) error {
			t.Error("refresh ran after Stop")
			return nil
		},
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s.Stop()
	s.fire()

	s.Schedule(time.Now().Add(time.Hour))
	s.mu.Lock()
	armed := s.timer != nil
	s.mu.Unlock()
	if armed {
		t.Fatal("Schedule armed a timer after Stop")
	}
}

func TestScheduleReplacesArmedTimer(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(Config{
		Tracker: NewTracker(nil),
		Refresh: func(context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	defer s.Stop()

	s.Schedule(time.Now().Add(time.Hour))
	s.mu.Lock()
	first := s.timer
	s.mu.Unlock()

	s.Schedule(time.Now().Add(2 * time.Hour))
	s.mu.Lock()
	second := s.timer
	s.mu.Unlock()

	if first == nil || second == nil {
		t.Fatal("timer not armed")
	}
	if first == second {
		t.Fatal("Schedule reused the previous timer instead of rearming")
	}
}

func TestTrackerActivityWindow(t *testing.T) {
	t.Parallel()

	base := time.Now()
	current := base
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	tracker := NewTracker(now)
	if !tracker.ActiveWithin(ActivityWindow) {
		t.Fatal("fresh tracker inactive")
	}

	mu.Lock()
	current = base.Add(ActivityWindow + time.Second)
	mu.Unlock()
	if tracker.ActiveWithin(ActivityWindow) {
		t.Fatal("tracker active past the window")
	}

	tracker.Touch()
	if !tracker.ActiveWithin(ActivityWindow) {
		t.Fatal("tracker inactive right after Touch")
	}
	if got := tracker.LastActivity(); !got.Equal(current.Truncate(time.Millisecond)) {
		t.Fatalf("LastActivity = %v, want %v", got, current)
	}
}
