// Package gpio implements a drive motor pair on an H-bridge fed by two PWM pins per wheel.
package gpio

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/talaria-robotics/navigator/components/encoder"
	"github.com/talaria-robotics/navigator/components/motor"
	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/utils"
)

// Model is the config model name of the PWM motor pair.
const Model = "gpio"

// DefaultPWMFreqHz is the PWM frequency the H-bridge is driven at.
const DefaultPWMFreqHz = 150

// PinConfig names the two PWM pins of one wheel.
type PinConfig struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Config describes how the motors are wired.
type Config struct {
	Left      PinConfig `json:"left"`
	Right     PinConfig `json:"right"`
	PWMFreqHz uint      `json:"pwm_freq_hz,omitempty"`
	// SwapSides exchanges the wheels for chassis wired the other way round.
	SwapSides bool `json:"swap_sides,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	for field, name := range map[string]string{
		"left.a": conf.Left.A, "left.b": conf.Left.B, "right.a": conf.Right.A, "right.b": conf.Right.B,
	} {
		if name == "" {
			return errors.Errorf("%s: %s pin is required", path, field)
		}
	}
	return nil
}

func init() {
	motor.Register(Model, func(ctx context.Context, enc encoder.Encoder, attrs utils.AttributeMap, logger logging.Logger) (motor.Motor, error) {
		conf, err := utils.TransformAttributeMap[*Config](attrs)
		if err != nil {
			return nil, err
		}
		return NewMotor(*conf, logger)
	})
}

type wheel struct {
	a, b gpio.PinOut
}

// Motor drives two wheels through PWM pins.
type Motor struct {
	mu          sync.Mutex
	left, right wheel
	freq        physic.Frequency
	logger      logging.Logger
}

// NewMotor looks the configured pins up in the periph registry.
func NewMotor(conf Config, logger logging.Logger) (*Motor, error) {
	if err := conf.Validate("attributes"); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing periph host drivers")
	}
	pins := map[string]gpio.PinOut{}
	for _, name := range []string{conf.Left.A, conf.Left.B, conf.Right.A, conf.Right.B} {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errors.Errorf("no gpio pin named %q", name)
		}
		pins[name] = p
	}
	return makeMotor(
		conf,
		wheel{a: pins[conf.Left.A], b: pins[conf.Left.B]},
		wheel{a: pins[conf.Right.A], b: pins[conf.Right.B]},
		logger,
	), nil
}

func makeMotor(conf Config, left, right wheel, logger logging.Logger) *Motor {
	freq := conf.PWMFreqHz
	if freq == 0 {
		freq = DefaultPWMFreqHz
	}
	if conf.SwapSides {
		left, right = right, left
	}
	return &Motor{
		left:   left,
		right:  right,
		freq:   physic.Frequency(freq) * physic.Hertz,
		logger: logger,
	}
}

// SetWheelDuty sets both wheels.
func (m *Motor) SetWheelDuty(ctx context.Context, left, right float64) error {
	if err := motor.CheckDuty(left, right); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return multierr.Combine(m.set(m.left, left), m.set(m.right, right))
}

// Close stops both wheels.
func (m *Motor) Close(ctx context.Context) error {
	return motor.Stop(ctx, m)
}

func (m *Motor) set(w wheel, speed float64) error {
	if speed == 0 {
		return multierr.Combine(w.a.Out(gpio.Low), w.b.Out(gpio.Low))
	}
	a, b := computePWM(speed)
	return multierr.Combine(w.a.PWM(a, m.freq), w.b.PWM(b, m.freq))
}

// computePWM splits a speed in [-1, 1] across the two inputs of the bridge. Equal duties hold
// the wheel still; the difference sets direction and speed.
func computePWM(speed float64) (gpio.Duty, gpio.Duty) {
	a := 0.5 * (speed + 1)
	toDuty := func(f float64) gpio.Duty {
		return gpio.Duty(math.Round(f * float64(gpio.DutyMax)))
	}
	return toDuty(a), toDuty(1 - a)
}
