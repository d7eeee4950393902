package navigation

import (
	"context"

	"go.uber.org/atomic"
)

// Confirmations hands delivery confirmations from an operator to a waiting session.
type Confirmations struct {
	ch      chan struct{}
	waiting atomic.Int64
}

// NewConfirmations returns a ConfirmationSource fed by Confirm.
func NewConfirmations() *Confirmations {
	return &Confirmations{ch: make(chan struct{})}
}

// AwaitConfirmation blocks until Confirm is called or ctx is done.
func (c *Confirmations) AwaitConfirmation(ctx context.Context) error {
	c.waiting.Inc()
	defer c.waiting.Dec()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ch:
		return nil
	}
}

// Confirm releases one waiting session. It blocks until a session is waiting or ctx is done.
func (c *Confirmations) Confirm(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case c.ch <- struct{}{}:
		return nil
	}
}

// Waiting is true while a session is blocked in AwaitConfirmation.
func (c *Confirmations) Waiting() bool {
	return c.waiting.Load() > 0
}
