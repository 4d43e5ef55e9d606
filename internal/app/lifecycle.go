package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// SetupContext derives a context bounded by the query timeout from the
// configuration. The cancel function should be deferred.
func SetupContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// SetupSignals derives a context canceled on SIGINT or SIGTERM, so a long
// spectral query or a running server can shut down cleanly on Ctrl+C.
func SetupSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// SetupLifecycle stacks the timeout and signal contexts: whichever fires
// first cancels the run. Both cancel functions come back in a CancelFuncs
// so the caller can defer a single Cleanup.
func SetupLifecycle(ctx context.Context, timeout time.Duration) (context.Context, *CancelFuncs) {
	ctx, cancelTimeout := SetupContext(ctx, timeout)
	ctx, stopSignals := SetupSignals(ctx)

	return ctx, &CancelFuncs{
		CancelTimeout: cancelTimeout,
		StopSignals:   stopSignals,
	}
}

// CancelFuncs bundles the lifecycle cancel functions. Call both, typically
// via Cleanup in a defer.
type CancelFuncs struct {
	// CancelTimeout cancels the timeout context.
	CancelTimeout context.CancelFunc
	// StopSignals stops listening for OS signals.
	StopSignals context.CancelFunc
}

// Cleanup releases the signal registration first, then the timeout.
func (c *CancelFuncs) Cleanup() {
	if c.StopSignals != nil {
		c.StopSignals()
	}
	if c.CancelTimeout != nil {
		c.CancelTimeout()
	}
}
