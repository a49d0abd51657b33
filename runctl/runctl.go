// Package runctl installs the indexer's graceful-shutdown signal handling
// (spec.md §4.8 AMBIENT): a SIGINT/SIGTERM during a run cancels the
// context the driver's errgroup workers share, stopping the build the same
// way a worker-reported error would through runerr.FirstErrorSlot — whichever
// happens first wins. Grounded on signals/http.go and pkg/signals/handler.go's
// signal-dispatch machinery, trimmed to the one piece a batch CLI needs: no
// HTTP admin endpoint, no reload/double-tap handling, no signal catalog —
// this is a one-shot build, not a long-running service with a config to
// reload. The idiomatic stdlib primitive for exactly this (cancel-on-first-
// signal, restore default handling so a second signal force-kills the
// process) is signal.NotifyContext, which this package wraps directly.
package runctl

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithSignals returns a context derived from parent that is cancelled the
// moment the process receives SIGINT or SIGTERM, along with the stop
// function the caller must defer to release the underlying signal
// notification. A second signal after cancellation reverts to the
// platform's default handling (immediate termination) — the same
// double-tap-to-force-quit shape pkg/signals/handler.go implements by hand,
// here provided by the standard library.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
