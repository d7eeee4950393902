package navigation

import (
	"context"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/talaria-robotics/navigator/components/base/wheeled"
	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/motionplan"
	"github.com/talaria-robotics/navigator/spatialmath"
)

// State is where a session is in its route.
type State string

// Session states, in the order a route passes through them.
const (
	StateIdle                 = State("idle")
	StatePlanning             = State("planning")
	StateTransiting           = State("transiting")
	StateAtStop               = State("at_stop")
	StateAwaitingConfirmation = State("awaiting_confirmation")
	StateDone                 = State("done")
	StateFailed               = State("failed")
)

// moveEpsilon is the smallest turn, in degrees, or distance worth driving.
const moveEpsilon = 1e-6

// Deps are the collaborators a session drives a route with.
type Deps struct {
	Planner       Planner
	Driver        Driver
	Discretizer   *motionplan.Discretizer
	Bins          Bins
	Sink          EventSink
	Confirmations ConfirmationSource
}

// Session runs one route. Order numbers start from 1 in every session.
type Session struct {
	id     string
	deps   Deps
	logger logging.Logger

	started atomic.Bool

	mu      sync.Mutex
	state   State
	pose    spatialmath.Pose
	order   int
	pending []string
	err     error
}

// NewSession returns a session that starts from start, which should be at home.
func NewSession(deps Deps, start spatialmath.Pose, logger logging.Logger) *Session {
	if deps.Discretizer == nil {
		deps.Discretizer = motionplan.NewDiscretizer(motionplan.DiscretizeOptions{})
	}
	id := uuid.NewString()
	return &Session{
		id:     id,
		deps:   deps,
		logger: logger.Sublogger(id[:8]),
		state:  StateIdle,
		pose:   start,
	}
}

// ID uniquely identifies the session.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pose is where the session believes the robot is.
func (s *Session) Pose() spatialmath.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pose
}

// Pending returns the rooms still to be served, head first.
func (s *Session) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pending...)
}

// Err is the error the session failed with, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// emit numbers the event and passes it on.
func (s *Session) emit(ev Event) {
	s.mu.Lock()
	s.order++
	ev = ev.withOrder(s.order)
	s.mu.Unlock()
	s.logger.Debugw("event", "type", ev.Type(), "order", ev.Order())
	s.deps.Sink.Emit(ev)
}

// Run plans the route and drives it. A planning failure returns before the robot moves or any
// event is emitted. At each room the session emits ArrivedAtStop and waits for a confirmation,
// once per bin. Run returns after the robot is home, or on the first drive error.
func (s *Session) Run(ctx context.Context, route Route) (err error) {
	if !s.started.CompareAndSwap(false, true) {
		return ErrSessionStarted
	}
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.state, s.err = StateFailed, err
			return
		}
		s.state = StateDone
	}()

	s.setState(StatePlanning)
	if err := route.Check(s.deps.Planner, s.deps.Bins); err != nil {
		return err
	}
	rooms := route.Rooms()
	plan, err := s.deps.Planner.PlanTrip(rooms)
	if err != nil {
		return errors.Wrap(err, "planning trip")
	}
	s.logger.Infow("planned trip", "route", route.ID, "tour", plan.Nodes, "length", plan.Length)

	s.mu.Lock()
	s.pending = append([]string(nil), rooms...)
	s.mu.Unlock()

	homeAnnounced := false
	for i := 0; i+1 < len(plan.Nodes); i++ {
		cur, next := plan.Nodes[i], plan.Nodes[i+1]

		if head, ok := s.head(); ok && head == cur {
			if err := s.serve(ctx, route, cur); err != nil {
				return err
			}
		}

		if head, ok := s.head(); ok {
			room, _ := s.deps.Planner.Room(head)
			s.emit(InTransit{Room: room})
		} else if !homeAnnounced {
			homeAnnounced = true
			s.emit(ReturnHome{})
		}

		s.setState(StateTransiting)
		if err := s.followEdge(ctx, cur, next); err != nil {
			return err
		}
	}

	// A tour of only home has nothing left to reach, so the head can still be served here.
	if head, ok := s.head(); ok && len(plan.Nodes) > 0 && head == plan.Nodes[len(plan.Nodes)-1] {
		if err := s.serve(ctx, route, head); err != nil {
			return err
		}
	}
	if pending := s.Pending(); len(pending) > 0 {
		return errors.Wrapf(ErrUndeliveredStops, "%v", pending)
	}
	s.emit(Done{})
	return nil
}

func (s *Session) head() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return "", false
	}
	return s.pending[0], true
}

// serve announces each bin for room and waits for each to be confirmed, then pops room.
func (s *Session) serve(ctx context.Context, route Route, roomID string) error {
	s.setState(StateAtStop)
	room, _ := s.deps.Planner.Room(roomID)
	for _, number := range route.BinsFor(roomID) {
		bin, _ := s.deps.Bins.Lookup(number)
		s.emit(ArrivedAtStop{Room: room, Bin: bin})
		s.setState(StateAwaitingConfirmation)
		if err := s.deps.Confirmations.AwaitConfirmation(ctx); err != nil {
			return errors.Wrapf(err, "waiting for delivery of bin %d at %q", number, roomID)
		}
		s.logger.Infow("delivery confirmed", "room", roomID, "bin", number)
		s.setState(StateAtStop)
	}
	s.mu.Lock()
	s.pending = s.pending[1:]
	s.mu.Unlock()
	return nil
}

func (s *Session) followEdge(ctx context.Context, from, to string) error {
	curve, err := s.deps.Planner.AdjacentPath(from, to)
	if err != nil {
		return err
	}
	waypoints := s.deps.Discretizer.Discretize(curve)
	s.logger.Debugw("following edge", "from", from, "to", to, "waypoints", len(waypoints))
	for _, wp := range waypoints {
		if err := s.driveTo(ctx, wp); err != nil {
			return errors.Wrapf(err, "driving %q > %q", from, to)
		}
	}
	return nil
}

// driveTo turns toward the waypoint, drives to it, then turns to its heading. Afterwards the
// session takes the waypoint as its pose; the pose dead reckoned from the wheels is only logged.
func (s *Session) driveTo(ctx context.Context, wp spatialmath.Pose) error {
	pose := s.Pose()
	calib := s.deps.Driver.Calibration()
	estimate := pose

	track := func(d wheeled.WheelDisplacement, err error) error {
		if err != nil {
			return err
		}
		next, estErr := calib.EstimatePose(estimate, d)
		if estErr != nil {
			s.logger.Debugw("cannot dead reckon move", "error", estErr)
			return nil
		}
		estimate = next
		return nil
	}

	bearing := pose.BearingTo(wp)
	if turn := spatialmath.HeadingDiff(pose.Heading, bearing); math.Abs(turn) > moveEpsilon {
		if err := track(s.deps.Driver.Turn(ctx, turn)); err != nil {
			return err
		}
	}
	if dist := pose.DistanceTo(wp); dist > moveEpsilon {
		if err := track(s.deps.Driver.Forward(ctx, dist)); err != nil {
			return err
		}
	}
	if turn := spatialmath.HeadingDiff(bearing, wp.Heading); math.Abs(turn) > moveEpsilon {
		if err := track(s.deps.Driver.Turn(ctx, turn)); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.pose = wp
	s.mu.Unlock()
	s.logger.Debugw("reached waypoint", "target", wp.String(), "estimate", estimate.String())
	return nil
}
