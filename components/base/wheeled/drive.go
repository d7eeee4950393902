// Package wheeled drives a two-wheeled differential chassis: it converts body motion to wheel
// rotation and closes the loop on the wheel encoders.
package wheeled

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"github.com/talaria-robotics/navigator/components/encoder"
	"github.com/talaria-robotics/navigator/components/motor"
	"github.com/talaria-robotics/navigator/lidar"
	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/obstacle"
	"github.com/talaria-robotics/navigator/operation"
	rutils "github.com/talaria-robotics/navigator/utils"
)

var (
	// ErrSensorReadFailure is returned after too many consecutive failed encoder reads.
	ErrSensorReadFailure = errors.New("encoder reads kept failing")
	// ErrInvalidTarget is returned for a target that is NaN or infinite.
	ErrInvalidTarget = errors.New("wheel displacement target must be finite")
)

// DriveConfig tunes the control loop.
type DriveConfig struct {
	SamplePeriodMs int `json:"sample_period_ms,omitempty"`
	// Tolerance is how close, in wheel degrees, counts as arrived.
	Tolerance float64 `json:"tolerance_deg,omitempty"`
	// TranslateDuty is used when both wheels turn the same way, PivotDuty otherwise.
	TranslateDuty     float64 `json:"translate_duty,omitempty"`
	PivotDuty         float64 `json:"pivot_duty,omitempty"`
	MaxSensorFailures int     `json:"max_sensor_failures,omitempty"`
}

// DefaultDriveConfig returns the tuning the chassis was calibrated with.
func DefaultDriveConfig() DriveConfig {
	return DriveConfig{
		SamplePeriodMs:    50,
		Tolerance:         0.01,
		TranslateDuty:     0.8,
		PivotDuty:         1.0,
		MaxSensorFailures: 5,
	}
}

// Validate ensures all parts of the config are valid.
func (conf *DriveConfig) Validate(path string) error {
	for field, duty := range map[string]float64{"translate_duty": conf.TranslateDuty, "pivot_duty": conf.PivotDuty} {
		if duty < 0 || duty > 1 {
			return utils.NewConfigValidationError(path, errors.Errorf("%s must be within [0, 1], got %v", field, duty))
		}
	}
	if conf.SamplePeriodMs < 0 || conf.MaxSensorFailures < 0 || conf.Tolerance < 0 {
		return utils.NewConfigValidationError(path, errors.New("sample_period_ms, max_sensor_failures and tolerance_deg must not be negative"))
	}
	return nil
}

func (conf DriveConfig) withDefaults() DriveConfig {
	def := DefaultDriveConfig()
	if conf.SamplePeriodMs == 0 {
		conf.SamplePeriodMs = def.SamplePeriodMs
	}
	if conf.Tolerance == 0 {
		conf.Tolerance = def.Tolerance
	}
	if conf.TranslateDuty == 0 {
		conf.TranslateDuty = def.TranslateDuty
	}
	if conf.PivotDuty == 0 {
		conf.PivotDuty = def.PivotDuty
	}
	if conf.MaxSensorFailures == 0 {
		conf.MaxSensorFailures = def.MaxSensorFailures
	}
	return conf
}

// An ObstacleGate is consulted before every motor command.
type ObstacleGate interface {
	Check(ctx context.Context, direction obstacle.Direction) (lidar.Measurement, bool)
}

// Option configures a Controller.
type Option func(*Controller)

// WithGate holds motion while gate reports an obstacle.
func WithGate(gate ObstacleGate) Option {
	return func(c *Controller) {
		c.gate = gate
	}
}

// WithClock replaces the wall clock driving the sample ticker.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) {
		c.clk = clk
	}
}

// Controller drives the wheels to target displacements. Only one drive runs at a time; starting
// a new one cancels the previous.
type Controller struct {
	enc    encoder.Encoder
	mot    motor.Motor
	gate   ObstacleGate
	calib  Calibration
	conf   DriveConfig
	clk    clock.Clock
	opMgr  operation.SingleOperationManager
	logger logging.Logger
}

// NewController returns a controller for the given hardware.
func NewController(
	enc encoder.Encoder,
	mot motor.Motor,
	calib Calibration,
	conf DriveConfig,
	logger logging.Logger,
	opts ...Option,
) *Controller {
	c := &Controller{
		enc:    enc,
		mot:    mot,
		calib:  calib,
		conf:   conf.withDefaults(),
		clk:    clock.New(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calibration is the calibration the controller converts with.
func (c *Controller) Calibration() Calibration {
	return c.calib
}

// Turn pivots the body by bodyDeg, counter-clockwise positive.
func (c *Controller) Turn(ctx context.Context, bodyDeg float64) (WheelDisplacement, error) {
	return c.DriveToAngularDisplacement(ctx, c.calib.WheelAnglesForTurn(bodyDeg))
}

// Forward drives the body dist units along its heading. Negative backs up.
func (c *Controller) Forward(ctx context.Context, dist float64) (WheelDisplacement, error) {
	return c.DriveToAngularDisplacement(ctx, c.calib.WheelAnglesForForward(dist))
}

// Stop cancels the running drive and zeroes the motors.
func (c *Controller) Stop(ctx context.Context) error {
	c.opMgr.CancelRunning(ctx)
	return motor.Stop(ctx, c.mot)
}

// IsMoving is true while a drive is running.
func (c *Controller) IsMoving() bool {
	return c.opMgr.OpRunning()
}

// Motion names the running drive: forward, reverse or pivot. It is empty when stopped.
func (c *Controller) Motion() string {
	name, _, _ := c.opMgr.Running()
	return name
}

// DriveToAngularDisplacement turns each wheel by its target, in wheel degrees, and returns how
// far each actually turned. A wheel is done once it is within tolerance or its remaining error
// changes sign; the drive returns when both are done. The motors are at zero whenever this
// returns.
func (c *Controller) DriveToAngularDisplacement(ctx context.Context, target WheelDisplacement) (WheelDisplacement, error) {
	if !rutils.IsFinite(target.Left) || !rutils.IsFinite(target.Right) {
		return WheelDisplacement{}, errors.Wrapf(ErrInvalidTarget, "%+v", target)
	}
	signL, signR := rutils.Sign(target.Left), rutils.Sign(target.Right)
	duty := c.conf.TranslateDuty
	direction := obstacle.DirectionForward
	motion := direction.String()
	switch {
	case signL != signR:
		duty = c.conf.PivotDuty
		direction = obstacle.DirectionPivot
		motion = direction.String()
	case signL < 0:
		direction = obstacle.DirectionReverse
		motion = direction.String()
	}
	ctx, done := c.opMgr.New(ctx, motion)
	defer done()
	c.logger.Debugw("drive", "target_left", target.Left, "target_right", target.Right, "direction", direction.String())

	var (
		disp         WheelDisplacement
		prevL, prevR float64
		haveBaseline bool
		doneL, doneR bool
		failures     int
		holding      bool
		holdingSince time.Time
	)
	prevErrL, prevErrR := math.NaN(), math.NaN()
	period := time.Duration(c.conf.SamplePeriodMs) * time.Millisecond
	ticker := c.clk.Ticker(period)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return disp, c.abort(errors.Wrap(err, "drive cancelled"))
		}

		curL, curR, err := c.read(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return disp, c.abort(errors.Wrap(ctx.Err(), "drive cancelled"))
			}
			failures++
			c.logger.Warnw("encoder read failed", "consecutive", failures, "error", err)
			if failures >= c.conf.MaxSensorFailures {
				return disp, c.abort(errors.Wrapf(ErrSensorReadFailure, "%d consecutive failures, last: %v", failures, err))
			}
		case !haveBaseline:
			failures = 0
			prevL, prevR, haveBaseline = curL, curR, true
		default:
			failures = 0
			disp.Left += c.calib.DeltaAngleDeg(prevL, curL)
			disp.Right += c.calib.DeltaAngleDeg(prevR, curR)
			prevL, prevR = curL, curR
		}

		if haveBaseline {
			errL, errR := target.Left-disp.Left, target.Right-disp.Right
			if !doneL && targetReached(prevErrL, errL, c.conf.Tolerance) {
				doneL = true
			}
			if !doneR && targetReached(prevErrR, errR, c.conf.Tolerance) {
				doneR = true
			}
			prevErrL, prevErrR = errL, errR

			if doneL && doneR {
				if err := motor.Stop(ctx, c.mot); err != nil {
					return disp, err
				}
				c.logger.Debugw("drive complete", "left", disp.Left, "right", disp.Right)
				return disp, nil
			}

			dutyL, dutyR := duty*signL, duty*signR
			if doneL {
				dutyL = 0
			}
			if doneR {
				dutyR = 0
			}

			if v, blocked := c.checkGate(ctx, direction); blocked {
				if !holding {
					holding, holdingSince = true, c.clk.Now()
					c.logger.Infow("obstacle detected, holding", "angle", v.AngleDeg, "distance", v.Distance)
				}
				dutyL, dutyR = 0, 0
			} else if holding {
				holding = false
				c.logger.Infow("path clear, resuming", "held_for", c.clk.Since(holdingSince).String())
			}

			if err := c.mot.SetWheelDuty(ctx, dutyL, dutyR); err != nil {
				return disp, c.abort(errors.Wrap(err, "commanding motors"))
			}
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}
}

func (c *Controller) read(ctx context.Context) (float64, float64, error) {
	l, r, err := c.enc.ReadShaftAngles(ctx)
	if err != nil {
		return 0, 0, err
	}
	if err := encoder.CheckAngles(l, r); err != nil {
		return 0, 0, err
	}
	return l, r, nil
}

func (c *Controller) checkGate(ctx context.Context, direction obstacle.Direction) (lidar.Measurement, bool) {
	if c.gate == nil {
		return lidar.Measurement{}, false
	}
	return c.gate.Check(ctx, direction)
}

// abort zeroes the motors on the way out of a failed drive. The drive's context may already be
// done, so the stop gets its own.
func (c *Controller) abort(cause error) error {
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return multierr.Combine(cause, motor.Stop(stopCtx, c.mot))
}

// targetReached is true within tolerance, or when the remaining error changed sign since the
// previous sample, meaning the wheel went past its target between samples.
func targetReached(prevErr, curErr, tolerance float64) bool {
	if math.Abs(curErr) <= tolerance {
		return true
	}
	if math.IsNaN(prevErr) {
		return false
	}
	return rutils.Sign(prevErr) != rutils.Sign(curErr)
}
