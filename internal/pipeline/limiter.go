package pipeline

import (
	"time"
)

// WarnLimiter caps how many malformed-frame warnings one link-layer source
// may produce per window, so a misbehaving peer cannot flood the log. Counts
// are kept per window and discarded when the window rotates.
type WarnLimiter struct {
	current      map[[6]byte]int
	windowStart  time.Time
	windowSize   time.Duration
	maxPerWindow int

	suppressed uint64
}

// WarnLimiterConfig configures per-source warning limits.
type WarnLimiterConfig struct {
	MaxPerSource int           // Warnings per source per window (0 = unlimited)
	Window       time.Duration // Window size (default 10s)
}

// DefaultWarnLimiterConfig allows ten warnings per source every ten seconds.
func DefaultWarnLimiterConfig() WarnLimiterConfig {
	return WarnLimiterConfig{MaxPerSource: 10, Window: 10 * time.Second}
}

// NewWarnLimiter creates a limiter. Returns nil if disabled (MaxPerSource <= 0);
// a nil limiter allows everything.
func NewWarnLimiter(cfg WarnLimiterConfig) *WarnLimiter {
	if cfg.MaxPerSource <= 0 {
		return nil
	}
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Second
	}
	return &WarnLimiter{
		current:      make(map[[6]byte]int),
		windowStart:  time.Now(),
		windowSize:   cfg.Window,
		maxPerWindow: cfg.MaxPerSource,
	}
}

// Allow reports whether a warning for a frame from src may be logged.
func (l *WarnLimiter) Allow(src []byte, now time.Time) bool {
	if l == nil {
		return true
	}
	if now.Sub(l.windowStart) >= l.windowSize {
		l.current = make(map[[6]byte]int)
		l.windowStart = now
	}

	var key [6]byte
	copy(key[:], src)
	l.current[key]++
	if l.current[key] > l.maxPerWindow {
		l.suppressed++
		return false
	}
	return true
}

// Suppressed returns the total number of suppressed warnings.
func (l *WarnLimiter) Suppressed() uint64 {
	if l == nil {
		return 0
	}
	return l.suppressed
}

// ActiveSources returns the number of distinct sources in the current window.
func (l *WarnLimiter) ActiveSources() int {
	if l == nil {
		return 0
	}
	return len(l.current)
}
