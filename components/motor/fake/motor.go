// Package fake implements a simulated drive motor pair.
package fake

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/talaria-robotics/navigator/components/encoder"
	fakeencoder "github.com/talaria-robotics/navigator/components/encoder/fake"
	"github.com/talaria-robotics/navigator/components/motor"
	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/utils"
)

// Model is the config model name of the simulated motor.
const Model = "fake"

// Config describes a simulated motor.
type Config struct {
	// FailAfter makes every command after the first FailAfter ones return an error. Zero never fails.
	FailAfter int `json:"fail_after,omitempty"`
}

func init() {
	motor.Register(Model, func(ctx context.Context, enc encoder.Encoder, attrs utils.AttributeMap, logger logging.Logger) (motor.Motor, error) {
		conf, err := utils.TransformAttributeMap[*Config](attrs)
		if err != nil {
			return nil, err
		}
		m := NewMotor(*conf, logger)
		if e, ok := enc.(*fakeencoder.Encoder); ok {
			m.Encoder = e
		} else {
			logger.Info("fake motor is not paired with a fake encoder; wheels will not appear to move")
		}
		return m, nil
	})
}

// Duty is one command sent to the motor.
type Duty struct {
	Left, Right float64
}

// Motor records every command and, when paired, drives a simulated encoder.
type Motor struct {
	mu       sync.Mutex
	Encoder  *fakeencoder.Encoder
	commands []Duty
	conf     Config
	logger   logging.Logger
}

var _ motor.Motor = &Motor{}

// NewMotor returns an unpaired simulated motor.
func NewMotor(conf Config, logger logging.Logger) *Motor {
	return &Motor{conf: conf, logger: logger}
}

// SetWheelDuty records the command and passes it on to the paired encoder.
func (m *Motor) SetWheelDuty(ctx context.Context, left, right float64) error {
	if err := motor.CheckDuty(left, right); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conf.FailAfter > 0 && len(m.commands) >= m.conf.FailAfter {
		return errors.New("simulated motor failure")
	}
	m.commands = append(m.commands, Duty{Left: left, Right: right})
	if m.Encoder != nil {
		m.Encoder.SetDuty(left, right)
	}
	return nil
}

// Commands returns every accepted command in order.
func (m *Motor) Commands() []Duty {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Duty(nil), m.commands...)
}

// Last returns the most recent command, or zero duty if there was none.
func (m *Motor) Last() Duty {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.commands) == 0 {
		return Duty{}
	}
	return m.commands[len(m.commands)-1]
}
