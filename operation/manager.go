package operation

import (
	"context"
	"sync"
	"time"
)

// SingleOperationManager lets one drive run at a time. Starting a drive cancels the one in
// progress, except that a drive started under another's context joins it.
type SingleOperationManager struct {
	mu      sync.Mutex
	current *drive
}

type drive struct {
	name    string
	started time.Time
	cancel  context.CancelFunc
}

type driveCtxKey struct{}

// New starts a drive called name and returns its context and the func that ends it.
func (sm *SingleOperationManager) New(ctx context.Context, name string) (context.Context, func()) {
	if ctx.Value(driveCtxKey{}) != nil {
		return ctx, func() {}
	}

	d := &drive{name: name, started: time.Now()}
	ctx, d.cancel = context.WithCancel(context.WithValue(ctx, driveCtxKey{}, d))

	sm.mu.Lock()
	if sm.current != nil {
		sm.current.cancel()
	}
	sm.current = d
	sm.mu.Unlock()

	return ctx, func() {
		d.cancel()
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if sm.current == d {
			sm.current = nil
		}
	}
}

// CancelRunning cancels the drive in progress. Called from within that drive it does nothing.
func (sm *SingleOperationManager) CancelRunning(ctx context.Context) {
	mine := ctx.Value(driveCtxKey{})
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.current == nil || mine == sm.current {
		return
	}
	sm.current.cancel()
	sm.current = nil
}

// OpRunning is true while a drive is in progress.
func (sm *SingleOperationManager) OpRunning() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.current != nil
}

// Running names the drive in progress and when it started.
func (sm *SingleOperationManager) Running() (string, time.Time, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.current == nil {
		return "", time.Time{}, false
	}
	return sm.current.name, sm.current.started, true
}
