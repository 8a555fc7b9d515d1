package sink

import (
	"context"
)

// Notifier decouples producers from the synchronizer: an insert hands off a
// wakeup and returns immediately, so a slow sheet call never stalls the
// listener's message loop. The single-slot channel coalesces bursts; each
// sync reads the full store anyway, so one pending wakeup is enough.
type Notifier struct {
	ch chan struct{}
}

// NewNotifier creates a Notifier with one pending-trigger slot.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Trigger requests a sync. Never blocks; if a trigger is already pending the
// call folds into it.
func (n *Notifier) Trigger() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// Run drains triggers and performs syncs until ctx is cancelled. Meant to
// run on its own goroutine.
func (n *Notifier) Run(ctx context.Context, s *Synchronizer) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.ch:
			s.Sync(ctx)
		}
	}
}
