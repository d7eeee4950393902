// Package robot assembles a navigator from its config: hardware, scanner, controller and the
// route session that drives them.
package robot

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/talaria-robotics/navigator/components/base/wheeled"
	"github.com/talaria-robotics/navigator/components/encoder"
	"github.com/talaria-robotics/navigator/components/motor"
	"github.com/talaria-robotics/navigator/config"
	"github.com/talaria-robotics/navigator/floorplan"
	"github.com/talaria-robotics/navigator/lidar"
	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/motionplan"
	"github.com/talaria-robotics/navigator/obstacle"
	"github.com/talaria-robotics/navigator/operation"
	"github.com/talaria-robotics/navigator/services/navigation"
	"github.com/talaria-robotics/navigator/spatialmath"
	"github.com/talaria-robotics/navigator/utils"
)

const routeLabel = "route"

var (
	// ErrRouteRunning is returned when a route is requested while another is still running.
	ErrRouteRunning = errors.New("a route is already running")
	// ErrClosed is returned by a robot that has been closed.
	ErrClosed = errors.New("robot is closed")
)

type closer interface {
	Close(ctx context.Context) error
}

// Option configures a Robot.
type Option func(*Robot)

// WithEventSink also sends every route event to sink.
func WithEventSink(sink navigation.EventSink) Option {
	return func(r *Robot) {
		r.sinks = append(r.sinks, sink)
	}
}

// WithClock replaces the wall clock used by the scanner poller and the drive loop.
func WithClock(clk clock.Clock) Option {
	return func(r *Robot) {
		r.clk = clk
	}
}

// RouteStatus describes the latest route.
type RouteStatus struct {
	RouteID   string             `json:"routeId,omitempty"`
	SessionID string             `json:"sessionId,omitempty"`
	State     navigation.State   `json:"state"`
	Pending   []string           `json:"pending,omitempty"`
	Events    []navigation.Event `json:"events"`
	Error     string             `json:"error,omitempty"`
	Pose      spatialmath.Pose   `json:"pose"`
	Motion    string             `json:"motion,omitempty"`
	Started   time.Time          `json:"started,omitempty"`
}

// A Robot is a configured navigator.
type Robot struct {
	conf   *config.Config
	logger logging.Logger
	clk    clock.Clock

	graph atomic.Pointer[floorplan.Graph]

	encoder       encoder.Encoder
	motor         motor.Motor
	poller        *lidar.Poller
	gate          *obstacle.Gate
	controller    *wheeled.Controller
	discretizer   *motionplan.Discretizer
	confirmations *navigation.Confirmations
	history       *navigation.Recorder
	sinks         []navigation.EventSink

	ops     *operation.Manager
	workers *utils.StoppableWorkers
	closed  atomic.Bool

	sessionMu sync.Mutex
	session   *navigation.Session
	routeID   string
	started   time.Time
	pose      spatialmath.Pose
}

// New builds a robot from its config. On error everything built so far is closed again.
func New(ctx context.Context, conf *config.Config, logger logging.Logger, opts ...Option) (_ *Robot, err error) {
	r := &Robot{
		conf:          conf,
		logger:        logger,
		clk:           clock.New(),
		discretizer:   motionplan.NewDiscretizer(conf.Discretize),
		confirmations: navigation.NewConfirmations(),
		history:       &navigation.Recorder{},
		ops:           operation.NewManager(logger.Sublogger("operations")),
		workers:       utils.NewStoppableWorkers(),
	}
	for _, opt := range opts {
		opt(r)
	}
	defer func() {
		if err != nil {
			err = multierr.Combine(err, r.Close(context.Background()))
		}
	}()

	g, err := loadFloorPlan(conf.FloorPlan)
	if err != nil {
		return nil, err
	}
	r.graph.Store(g)
	start, _ := g.Node(g.Home())
	r.pose = spatialmath.NewPoseFromPoint(start, conf.StartHeading)

	r.encoder, err = encoder.New(ctx, conf.Hardware.Encoder.Model, conf.Hardware.Encoder.Attributes, logger.Sublogger("encoder"))
	if err != nil {
		return nil, errors.Wrap(err, "encoder")
	}
	r.motor, err = motor.New(ctx, conf.Hardware.Motor.Model, r.encoder, conf.Hardware.Motor.Attributes, logger.Sublogger("motor"))
	if err != nil {
		return nil, errors.Wrap(err, "motor")
	}

	driveOpts := []wheeled.Option{wheeled.WithClock(r.clk)}
	if conf.Lidar.Enabled() {
		device, err := lidar.New(ctx, conf.Lidar.Model, conf.Lidar.Attributes, logger.Sublogger("lidar"))
		if err != nil {
			return nil, errors.Wrap(err, "lidar")
		}
		interval := time.Duration(conf.Lidar.PollIntervalMs) * time.Millisecond
		r.poller = lidar.NewPoller(device, lidar.NewScanBuffer(), interval, r.clk, logger.Sublogger("lidar"))
		r.poller.Start()
		r.gate = obstacle.NewGate(conf.Obstacle, r.poller.Buffer(), logger.Sublogger("obstacle"))
		driveOpts = append(driveOpts, wheeled.WithGate(r.gate))
	} else {
		logger.Warn("no lidar configured; driving without obstacle gating")
	}
	r.controller = wheeled.NewController(r.encoder, r.motor, *conf.Calibration, conf.Drive, logger.Sublogger("drive"), driveOpts...)

	if conf.WatchFloorPlan {
		watch, err := watchFloorPlan(conf.FloorPlan, r.ReloadFloorPlan, logger.Sublogger("floorplan"))
		if err != nil {
			return nil, err
		}
		r.workers.Add(watch)
	}
	return r, nil
}

// FloorPlan is the floor plan new routes are planned over.
func (r *Robot) FloorPlan() *floorplan.Graph {
	return r.graph.Load()
}

// ReloadFloorPlan rereads the floor plan file. A route already running keeps the plan it
// started with.
func (r *Robot) ReloadFloorPlan() error {
	g, err := loadFloorPlan(r.conf.FloorPlan)
	if err != nil {
		return err
	}
	r.graph.Store(g)
	r.logger.Infow("floor plan loaded", "name", g.Name(), "id", g.ID(), "rooms", len(g.Rooms()))
	return nil
}

// Bins is the bin catalog.
func (r *Robot) Bins() navigation.Bins {
	return r.conf.Bins
}

// Controller is the wheel controller.
func (r *Robot) Controller() *wheeled.Controller {
	return r.controller
}

// Gate is the obstacle gate, or nil when no scanner is configured.
func (r *Robot) Gate() *obstacle.Gate {
	return r.gate
}

// Emit implements navigation.EventSink for the running session.
func (r *Robot) Emit(ev navigation.Event) {
	r.history.Emit(ev)
	for _, s := range r.sinks {
		s.Emit(ev)
	}
}

// StartRoute starts route in the background and returns its session id. Only one route runs at
// a time.
func (r *Robot) StartRoute(route navigation.Route) (string, error) {
	if r.closed.Load() {
		return "", ErrClosed
	}
	r.sessionMu.Lock()
	defer r.sessionMu.Unlock()
	if len(r.ops.WithLabel(routeLabel)) > 0 {
		return "", ErrRouteRunning
	}

	session := navigation.NewSession(navigation.Deps{
		Planner:       r.graph.Load(),
		Driver:        r.controller,
		Discretizer:   r.discretizer,
		Bins:          r.conf.Bins,
		Sink:          r,
		Confirmations: r.confirmations,
	}, r.pose, r.logger.Sublogger("route"))
	if route.ID == "" {
		route.ID = session.ID()
	}

	ctx, done := r.ops.Create(r.workers.Context(), "route", route, routeLabel)

	r.history.Reset()
	r.session, r.routeID, r.started = session, route.ID, r.clk.Now()
	r.logger.Infow("starting route", "route", route.ID, "session", session.ID(), "stops", len(route.Stops))

	r.workers.Add(func(context.Context) {
		defer done()
		err := session.Run(ctx, route)
		r.sessionMu.Lock()
		r.pose = session.Pose()
		r.sessionMu.Unlock()
		if err != nil {
			r.logger.Errorw("route failed", "route", route.ID, "error", err)
			return
		}
		r.logger.Infow("route complete", "route", route.ID)
	})
	return route.ID, nil
}

// RouteStatus reports on the latest route.
func (r *Robot) RouteStatus() RouteStatus {
	r.sessionMu.Lock()
	defer r.sessionMu.Unlock()
	status := RouteStatus{
		State:  navigation.StateIdle,
		Events: r.history.Events(),
		Pose:   r.pose,
		Motion: r.controller.Motion(),
	}
	if r.session == nil {
		return status
	}
	status.RouteID = r.routeID
	status.SessionID = r.session.ID()
	status.State = r.session.State()
	status.Pending = r.session.Pending()
	status.Started = r.started
	if err := r.session.Err(); err != nil {
		status.Error = err.Error()
	}
	return status
}

// RouteRunning is true while a route is running.
func (r *Robot) RouteRunning() bool {
	return len(r.ops.WithLabel(routeLabel)) > 0
}

// ConfirmDelivery confirms the bin the running route is waiting on. It waits until ctx is done
// for the route to start waiting.
func (r *Robot) ConfirmDelivery(ctx context.Context) error {
	return r.confirmations.Confirm(ctx)
}

// Stop cancels the running route and zeroes the motors.
func (r *Robot) Stop(ctx context.Context) error {
	if n := r.ops.CancelWithLabel(routeLabel); n > 0 {
		r.logger.Infow("stopping route")
	}
	return r.controller.Stop(ctx)
}

// Close stops everything and releases the hardware.
func (r *Robot) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	if r.controller != nil {
		err = multierr.Combine(err, r.Stop(ctx))
	}
	r.workers.Stop()
	if r.poller != nil {
		err = multierr.Combine(err, r.poller.Close(ctx))
	}
	if c, ok := r.motor.(closer); ok {
		err = multierr.Combine(err, c.Close(ctx))
	}
	if c, ok := r.encoder.(closer); ok {
		err = multierr.Combine(err, c.Close(ctx))
	}
	return err
}
