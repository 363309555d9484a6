package playback

import "time"

// WallClock is a Clock reporting seconds since construction, backed by Go's
// monotonic time.
type WallClock struct {
	start time.Time
}

// NewWallClock starts a clock at zero.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// Now implements Clock.
func (c *WallClock) Now() float64 {
	return time.Since(c.start).Seconds()
}
