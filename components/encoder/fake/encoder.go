// Package fake implements a simulated pair of shaft encoders driven by motor duty.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/talaria-robotics/navigator/components/encoder"
	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/utils"
)

// Model is the config model name of the simulated encoder.
const Model = "fake"

// DefaultDegreesPerSecond is the shaft speed at full duty.
const DefaultDegreesPerSecond = 1200.0

// defaultUpdateRateMs runs the simulation in real time when no other time source is configured.
const defaultUpdateRateMs = 10

func init() {
	encoder.Register(Model, func(ctx context.Context, attrs utils.AttributeMap, logger logging.Logger) (encoder.Encoder, error) {
		conf, err := utils.TransformAttributeMap[*Config](attrs)
		if err != nil {
			return nil, err
		}
		if conf.UpdateRateMs == 0 && conf.AdvancePerReadMs == 0 {
			conf.UpdateRateMs = defaultUpdateRateMs
		}
		e := NewEncoder(*conf, clock.New(), logger)
		e.Start()
		return e, nil
	})
}

// Config describes a simulated encoder.
type Config struct {
	// DegreesPerSecond is how fast a shaft turns at duty 1.
	DegreesPerSecond float64 `json:"degrees_per_second,omitempty"`
	// AdvancePerReadMs advances simulated time on every read.
	AdvancePerReadMs float64 `json:"advance_per_read_ms,omitempty"`
	// UpdateRateMs runs a background loop advancing simulated time at this period. Zero disables it.
	UpdateRateMs int `json:"update_rate_ms,omitempty"`
	LeftAngle    float64 `json:"left_angle,omitempty"`
	RightAngle   float64 `json:"right_angle,omitempty"`
}

// Encoder keeps track of the shaft angles of a simulated drive.
type Encoder struct {
	mu          sync.Mutex
	left, right float64
	dutyL       float64
	dutyR       float64
	reads       int

	conf    Config
	clk     clock.Clock
	logger  logging.Logger
	workers *utils.StoppableWorkers
}

// NewEncoder returns a simulated encoder. Background simulation starts with Start.
func NewEncoder(conf Config, clk clock.Clock, logger logging.Logger) *Encoder {
	if conf.DegreesPerSecond == 0 {
		conf.DegreesPerSecond = DefaultDegreesPerSecond
	}
	return &Encoder{
		left:   utils.ModAngDeg(conf.LeftAngle),
		right:  utils.ModAngDeg(conf.RightAngle),
		conf:   conf,
		clk:    clk,
		logger: logger,
	}
}

// ReadShaftAngles returns the current angles, first advancing AdvancePerReadMs of simulated time.
func (e *Encoder) ReadShaftAngles(ctx context.Context) (float64, float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reads++
	if e.conf.AdvancePerReadMs > 0 {
		e.advanceLocked(time.Duration(e.conf.AdvancePerReadMs * float64(time.Millisecond)))
	}
	return e.left, e.right, nil
}

// Start starts a background goroutine advancing the simulation every UpdateRateMs.
func (e *Encoder) Start() {
	if e.conf.UpdateRateMs <= 0 {
		return
	}
	period := time.Duration(e.conf.UpdateRateMs) * time.Millisecond
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.workers != nil {
		return
	}
	e.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		ticker := e.clk.Ticker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			e.Advance(period)
		}
	})
}

// Close stops the background simulation.
func (e *Encoder) Close(ctx context.Context) error {
	e.mu.Lock()
	workers := e.workers
	e.workers = nil
	e.mu.Unlock()
	if workers != nil {
		workers.Stop()
	}
	return nil
}

// SetDuty sets the duty the simulated wheels are driven at. Duties past full speed saturate.
func (e *Encoder) SetDuty(left, right float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dutyL, e.dutyR = utils.Clamp(left, 1), utils.Clamp(right, 1)
}

// Advance moves both shafts by dt of simulated time at the current duty.
func (e *Encoder) Advance(dt time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.advanceLocked(dt)
}

func (e *Encoder) advanceLocked(dt time.Duration) {
	step := e.conf.DegreesPerSecond * dt.Seconds()
	e.left = utils.ModAngDeg(e.left + e.dutyL*step)
	e.right = utils.ModAngDeg(e.right + e.dutyR*step)
}

// SetAngles sets both shaft angles.
func (e *Encoder) SetAngles(left, right float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.left, e.right = utils.ModAngDeg(left), utils.ModAngDeg(right)
}

// Reads is how many times ReadShaftAngles was called.
func (e *Encoder) Reads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reads
}
