package playback

import "time"

// WithTicks replaces the reveal ticker of every session with ticks, so tests
// decide exactly when each reveal happens.
func WithTicks(ticks <-chan time.Time) Option {
	return func(c *Controller) {
		c.ticks = ticks
	}
}

// SetTicks replaces the ticker of a standalone Scheduler.
func (s *Scheduler) SetTicks(ticks <-chan time.Time) {
	s.ticks = ticks
}
