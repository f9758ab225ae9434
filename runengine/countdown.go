package runengine

import "time"

const defaultTimerSeconds = 60

// Countdown is the operator controlled timer of a timer step. It starts
// paused. While running, the time left is derived from the instant it was
// started at, so observing it more or less often never changes its pace.
type Countdown struct {
	Initial     int        `json:"initial"`
	Remaining   int        `json:"remaining"`
	Running     bool       `json:"running"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	LeftAtStart int        `json:"leftAtStart,omitempty"` // seconds left at StartedAt
	Fired       bool       `json:"fired"`
}

// NewCountdown seeds a paused countdown. A zero duration falls back to 60s.
func NewCountdown(durationSeconds int) *Countdown {
	if durationSeconds <= 0 {
		durationSeconds = defaultTimerSeconds
	}
	return &Countdown{Initial: durationSeconds, Remaining: durationSeconds}
}

// Start resumes the countdown at now. No-op while running or once it
// reached zero.
func (c *Countdown) Start(now time.Time) {
	if c.Running || c.Remaining <= 0 {
		return
	}
	started := now
	c.StartedAt = &started
	c.LeftAtStart = c.Remaining
	c.Running = true
}

// Pause stops the countdown, keeping the time left at now
func (c *Countdown) Pause(now time.Time) {
	if !c.Running {
		return
	}
	c.Remaining = c.RemainingAt(now)
	c.stop()
}

// Reset restores the initial duration, paused
func (c *Countdown) Reset() {
	c.Remaining = c.Initial
	c.Fired = false
	c.stop()
}

// RemainingAt returns the whole seconds left at now, never below zero
func (c *Countdown) RemainingAt(now time.Time) int {
	if !c.Running || c.StartedAt == nil {
		return c.Remaining
	}
	elapsed := int(now.Sub(*c.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	return max(c.LeftAtStart-elapsed, 0)
}

// Tick brings Remaining up to date with now. It returns true exactly once,
// on the first observation at zero.
func (c *Countdown) Tick(now time.Time) bool {
	if !c.Running {
		return false
	}
	c.Remaining = c.RemainingAt(now)
	if c.Remaining > 0 {
		return false
	}
	c.stop()
	if c.Fired {
		return false
	}
	c.Fired = true
	return true
}

// Done reports whether the countdown reached zero
func (c *Countdown) Done() bool {
	return c.Remaining <= 0
}

func (c *Countdown) stop() {
	c.Running = false
	c.StartedAt = nil
	c.LeftAtStart = 0
}
