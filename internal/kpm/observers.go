package kpm

import (
	"sync"

	"github.com/rs/zerolog"
)

// ProgressObserver receives progress notifications from long-running
// stochastic computations: one Update per completed random realization.
// Deterministic queries emit nothing.
type ProgressObserver interface {
	// Update reports that `completed` of `total` realizations finished.
	Update(completed, total int)
}

// ─────────────────────────────────────────────────────────────────────────────
// Channel Observer
// ─────────────────────────────────────────────────────────────────────────────

// ProgressUpdate is the message a ChannelObserver forwards.
type ProgressUpdate struct {
	Completed, Total int
}

// ChannelObserver adapts the observer to channel-based consumers (the CLI
// spinner). Sends are non-blocking: a slow consumer drops intermediate
// updates and catches up on the next one.
type ChannelObserver struct {
	channel chan<- ProgressUpdate
}

// NewChannelObserver creates an observer that forwards to ch. A nil channel
// discards all updates.
func NewChannelObserver(ch chan<- ProgressUpdate) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

// Update implements ProgressObserver by sending to the channel.
func (o *ChannelObserver) Update(completed, total int) {
	if o.channel == nil {
		return
	}
	select {
	case o.channel <- ProgressUpdate{Completed: completed, Total: total}:
	default:
		// Channel full, drop update
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Logging Observer
// ─────────────────────────────────────────────────────────────────────────────

// LoggingObserver logs realization progress using zerolog, throttled to a
// minimum progress change so many-realization runs do not spam the log.
type LoggingObserver struct {
	logger    zerolog.Logger
	threshold float64
	lastFrac  float64
	mu        sync.Mutex
}

// NewLoggingObserver creates an observer that logs progress. It only logs
// when the completed fraction advances by at least threshold (e.g. 0.1 for
// every 10%).
func NewLoggingObserver(logger zerolog.Logger, threshold float64) *LoggingObserver {
	if threshold <= 0 {
		threshold = 0.1
	}
	return &LoggingObserver{logger: logger, threshold: threshold}
}

// Update implements ProgressObserver by logging significant progress.
func (o *LoggingObserver) Update(completed, total int) {
	if total <= 0 {
		return
	}
	frac := float64(completed) / float64(total)

	o.mu.Lock()
	defer o.mu.Unlock()
	if frac < 1.0 && frac-o.lastFrac < o.threshold {
		return
	}
	o.lastFrac = frac
	if frac >= 1.0 {
		o.lastFrac = 0 // ready for the next run
	}
	o.logger.Debug().
		Int("completed", completed).
		Int("total", total).
		Msg("stochastic realizations progress")
}

// ─────────────────────────────────────────────────────────────────────────────
// No-Op Observer
// ─────────────────────────────────────────────────────────────────────────────

// NoOpObserver discards all progress updates.
type NoOpObserver struct{}

// Update implements ProgressObserver by doing nothing.
func (NoOpObserver) Update(completed, total int) {}
