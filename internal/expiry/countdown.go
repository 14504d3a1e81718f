package expiry

import (
	"fmt"
	"sync"
	"time"
)

// Second counts for countdown label thresholds. A month is the fixed
// 30-day span the badge labels use, not a calendar month.
const (
	SecondsPerDay   = 86400
	SecondsPerMonth = 30 * SecondsPerDay
)

// Severity colors for countdown badges.
const (
	ColorGreen  = "green"
	ColorOrange = "orange"
	ColorRed    = "red"
)

// Label formats remaining seconds as a compact badge label: whole months
// above 30 days, whole days down to one day, a zero-padded HH:MM:SS clock
// below that. Expired counters get no label.
func Label(remaining int64) string {
	switch {
	case remaining > SecondsPerMonth:
		return fmt.Sprintf("%dm", remaining/SecondsPerMonth)
	case remaining >= SecondsPerDay:
		return fmt.Sprintf("%dd", remaining/SecondsPerDay)
	case remaining > 0:
		return fmt.Sprintf("%02d:%02d:%02d", remaining/3600, remaining%3600/60, remaining%60)
	default:
		return ""
	}
}

// Color returns the severity color for remaining seconds: green with three
// or more days left, orange with at least a day, red otherwise (including
// already expired).
func Color(remaining int64) string {
	switch {
	case remaining >= 3*SecondsPerDay:
		return ColorGreen
	case remaining >= SecondsPerDay:
		return ColorOrange
	default:
		return ColorRed
	}
}

// Countdown tracks the seconds left until an item expires. The counter is
// seeded from the wall clock once at creation and then decremented by
// exactly one per tick; it is never re-synced afterwards, so a long-idle
// counter may drift from true elapsed time.
type Countdown struct {
	mu        sync.Mutex
	remaining int64
}

// NewCountdown creates a counter for an item expiring at expiredAt.
func NewCountdown(expiredAt, now time.Time) *Countdown {
	return &Countdown{remaining: expiredAt.Unix() - now.Unix()}
}

// Tick decrements the counter by one second and reports whether it is still
// running. Once the counter reaches zero further ticks are no-ops.
func (c *Countdown) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining <= 0 {
		return false
	}
	c.remaining--
	return c.remaining > 0
}

// Remaining returns the current counter value in seconds.
func (c *Countdown) Remaining() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired reports whether the counter has run out.
func (c *Countdown) Expired() bool {
	return c.Remaining() <= 0
}

// Label returns the badge label for the current counter value.
func (c *Countdown) Label() string {
	return Label(c.Remaining())
}

// Color returns the severity color for the current counter value. Label and
// Color read the same counter, so they always agree on whether the item has
// expired.
func (c *Countdown) Color() string {
	return Color(c.Remaining())
}

// Scheduler drives all visible countdowns off one shared ticker instead of
// one timer per item. Counters that run out are dropped automatically, and
// removing a counter when its item leaves the view keeps the set bounded by
// what is on screen.
type Scheduler struct {
	mu         sync.Mutex
	countdowns map[*Countdown]struct{}
	notify     func()
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewScheduler starts a scheduler ticking at the given interval. notify, if
// non-nil, is called after every tick so a view can diff and re-render; it
// runs on the scheduler goroutine and must not block.
func NewScheduler(interval time.Duration, notify func()) *Scheduler {
	s := &Scheduler{
		countdowns: make(map[*Countdown]struct{}),
		notify:     notify,
		stop:       make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-s.stop:
				return
			}
		}
	}()

	return s
}

// Add registers a countdown. Already-expired counters are not registered;
// they would be dropped on the first tick anyway.
func (s *Scheduler) Add(c *Countdown) {
	if c.Expired() {
		return
	}
	s.mu.Lock()
	s.countdowns[c] = struct{}{}
	s.mu.Unlock()
}

// Remove unregisters a countdown, typically when its item is unmounted.
func (s *Scheduler) Remove(c *Countdown) {
	s.mu.Lock()
	delete(s.countdowns, c)
	s.mu.Unlock()
}

// Len returns the number of registered countdowns.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.countdowns)
}

// Stop halts the shared ticker. Idempotent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// tick advances every registered countdown by one second, dropping the ones
// that ran out.
func (s *Scheduler) tick() {
	s.mu.Lock()
	for c := range s.countdowns {
		if !c.Tick() {
			delete(s.countdowns, c)
		}
	}
	s.mu.Unlock()

	if s.notify != nil {
		s.notify()
	}
}
