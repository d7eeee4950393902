// Package operation tracks long-running operations such as routes and drives.
package operation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/talaria-robotics/navigator/logging"
)

type opKey struct{}

// Operation is a route or other long-running job in progress on the robot.
type Operation struct {
	ID        uuid.UUID
	Method    string
	Arguments interface{}
	Started   time.Time

	cancel context.CancelFunc
	labels []string
}

// Cancel cancels the operation's context.
func (o *Operation) Cancel() {
	o.cancel()
}

// HasLabel is true if the operation was created with label.
func (o *Operation) HasLabel(label string) bool {
	return lo.Contains(o.labels, label)
}

// Manager holds the operations currently running.
type Manager struct {
	mu     sync.Mutex
	ops    map[uuid.UUID]*Operation
	logger logging.Logger
}

// NewManager returns an empty Manager.
func NewManager(logger logging.Logger) *Manager {
	return &Manager{ops: map[uuid.UUID]*Operation{}, logger: logger}
}

// Create registers a new operation and returns its context along with the func that ends it.
// Operations do not nest.
func (m *Manager) Create(ctx context.Context, method string, args interface{}, labels ...string) (context.Context, func()) {
	if ctx.Value(opKey{}) != nil {
		panic("operations cannot be nested")
	}
	op := &Operation{
		ID:        uuid.New(),
		Method:    method,
		Arguments: args,
		Started:   time.Now(),
		labels:    labels,
	}
	ctx, op.cancel = context.WithCancel(context.WithValue(ctx, opKey{}, op))

	m.mu.Lock()
	m.ops[op.ID] = op
	m.mu.Unlock()
	m.logger.Debugw("operation started", "id", op.ID.String(), "method", method, "labels", labels)

	return ctx, func() {
		op.cancel()
		m.mu.Lock()
		delete(m.ops, op.ID)
		m.mu.Unlock()
		m.logger.Debugw("operation finished", "id", op.ID.String(), "method", method)
	}
}

// All returns the running operations.
func (m *Manager) All() []*Operation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Values(m.ops)
}

// WithLabel returns the running operations carrying label.
func (m *Manager) WithLabel(label string) []*Operation {
	return lo.Filter(m.All(), func(op *Operation, _ int) bool {
		return op.HasLabel(label)
	})
}

// CancelWithLabel cancels every running operation carrying label and reports how many there were.
func (m *Manager) CancelWithLabel(label string) int {
	ops := m.WithLabel(label)
	for _, op := range ops {
		op.Cancel()
	}
	return len(ops)
}

// Find returns the running operation with id, or nil.
func (m *Manager) Find(id uuid.UUID) *Operation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ops[id]
}

// Get returns the operation ctx belongs to, or nil.
func Get(ctx context.Context) *Operation {
	op, _ := ctx.Value(opKey{}).(*Operation)
	return op
}
