// Package ams implements the AMS AS5048 absolute magnetic encoder pair over I2C.
package ams

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/talaria-robotics/navigator/components/encoder"
	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/utils"
)

// Model is the config model name of the AS5048 pair.
const Model = "AS5048"

const (
	angleRegister  = 0xFE
	defaultLeft    = 0x40
	defaultRight   = 0x41
	angleRangeBits = 14
)

// Config describes the I2C wiring of the two encoders.
type Config struct {
	// I2CBus is a periph bus name such as "1" or "/dev/i2c-1". Empty picks the first bus.
	I2CBus      string `json:"i2c_bus"`
	LeftAddr    uint16 `json:"left_addr,omitempty"`
	RightAddr   uint16 `json:"right_addr,omitempty"`
	InvertLeft  *bool  `json:"invert_left,omitempty"`
	InvertRight bool   `json:"invert_right,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.LeftAddr != 0 && conf.LeftAddr == conf.RightAddr {
		return errors.Errorf("%s: left_addr and right_addr must differ", path)
	}
	return nil
}

func init() {
	encoder.Register(Model, func(ctx context.Context, attrs utils.AttributeMap, logger logging.Logger) (encoder.Encoder, error) {
		conf, err := utils.TransformAttributeMap[*Config](attrs)
		if err != nil {
			return nil, err
		}
		return NewEncoder(ctx, *conf, logger)
	})
}

// Encoder reads both wheel shafts from a pair of AS5048 chips sharing a bus.
type Encoder struct {
	mu          sync.Mutex
	bus         i2c.Bus
	closer      func() error
	left, right *i2c.Dev
	invertLeft  bool
	invertRight bool
	logger      logging.Logger
}

// NewEncoder opens the configured I2C bus.
func NewEncoder(ctx context.Context, conf Config, logger logging.Logger) (*Encoder, error) {
	if err := conf.Validate("attributes"); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing periph host drivers")
	}
	bus, err := i2creg.Open(conf.I2CBus)
	if err != nil {
		return nil, errors.Wrapf(err, "opening i2c bus %q", conf.I2CBus)
	}
	e := makeAS5048Encoder(conf, bus, logger)
	e.closer = bus.Close
	return e, nil
}

func makeAS5048Encoder(conf Config, bus i2c.Bus, logger logging.Logger) *Encoder {
	leftAddr, rightAddr := conf.LeftAddr, conf.RightAddr
	if leftAddr == 0 {
		leftAddr = defaultLeft
	}
	if rightAddr == 0 {
		rightAddr = defaultRight
	}
	// the left chip faces the other way on the chassis
	invertLeft := true
	if conf.InvertLeft != nil {
		invertLeft = *conf.InvertLeft
	}
	logger.Debugf("AS5048 pair on %s at %#x/%#x", bus, leftAddr, rightAddr)
	return &Encoder{
		bus:         bus,
		left:        &i2c.Dev{Bus: bus, Addr: leftAddr},
		right:       &i2c.Dev{Bus: bus, Addr: rightAddr},
		invertLeft:  invertLeft,
		invertRight: conf.InvertRight,
		logger:      logger,
	}
}

// ReadShaftAngles reads both chips in turn.
func (e *Encoder) ReadShaftAngles(ctx context.Context) (float64, float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	left, errL := readAngle(e.left, e.invertLeft)
	right, errR := readAngle(e.right, e.invertRight)
	if err := multierr.Combine(errL, errR); err != nil {
		return 0, 0, err
	}
	return left, right, nil
}

// Close releases the bus.
func (e *Encoder) Close(ctx context.Context) error {
	if e.closer == nil {
		return nil
	}
	return e.closer()
}

func readAngle(dev *i2c.Dev, invert bool) (float64, error) {
	buf := make([]byte, 2)
	if err := dev.Tx([]byte{angleRegister}, buf); err != nil {
		return 0, errors.Wrapf(err, "reading encoder at %#x", dev.Addr)
	}
	angle := convertBytesToAngle(buf[0], buf[1])
	if invert {
		angle = utils.ModAngDeg(360 - angle)
	}
	return angle, nil
}

// convertBytesToAngle joins the 8 high bits and 6 low bits of the 14-bit angle register.
func convertBytesToAngle(msB, lsB byte) float64 {
	raw := (int(msB) << 6) | int(lsB&0x3F)
	return float64(raw) * 360 / float64(int(1)<<angleRangeBits)
}
