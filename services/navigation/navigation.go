// Package navigation runs delivery routes: it plans the tour over the floor plan, drives it edge
// by edge and stops at each room until every bin for that room is confirmed delivered.
package navigation

import (
	"context"
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/talaria-robotics/navigator/components/base/wheeled"
	"github.com/talaria-robotics/navigator/floorplan"
	"github.com/talaria-robotics/navigator/spatialmath"
)

var (
	// ErrUnknownRoom is returned for a route stop naming a node that is not a deliverable room.
	ErrUnknownRoom = errors.New("unknown room")
	// ErrUnknownBin is returned for a route stop naming a bin that is not in the catalog.
	ErrUnknownBin = errors.New("unknown bin")
	// ErrUndeliveredStops is returned when the tour got home with stops still pending.
	ErrUndeliveredStops = errors.New("route finished with undelivered stops")
	// ErrSessionStarted is returned when Run is called on a session that already ran.
	ErrSessionStarted = errors.New("session already started")
)

// A Planner plans tours over a floor plan and hands out the curves between adjacent nodes.
type Planner interface {
	PlanTrip(stopIDs []string) (floorplan.TripPlan, error)
	AdjacentPath(from, to string) (spatialmath.Curve, error)
	Room(id string) (floorplan.Room, bool)
	Node(id string) (r2.Point, bool)
	Home() string
}

// A Driver moves the body. Both moves block until done and report the wheel rotation achieved.
type Driver interface {
	Turn(ctx context.Context, bodyDeg float64) (wheeled.WheelDisplacement, error)
	Forward(ctx context.Context, dist float64) (wheeled.WheelDisplacement, error)
	Calibration() wheeled.Calibration
}

// An EventSink receives route events in order. Emit must not block for long.
type EventSink interface {
	Emit(Event)
}

// A ConfirmationSource blocks until a delivery has been confirmed.
type ConfirmationSource interface {
	AwaitConfirmation(ctx context.Context) error
}

// Bin is a numbered mail compartment on the robot.
type Bin struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Bins is the robot's bin catalog.
type Bins []Bin

// Lookup finds a bin by number.
func (b Bins) Lookup(number int) (Bin, bool) {
	return lo.Find(b, func(bin Bin) bool { return bin.Number == number })
}

// Validate ensures all parts of the catalog are valid.
func (b Bins) Validate(path string) error {
	seen := map[int]bool{}
	for i, bin := range b {
		if seen[bin.Number] {
			return errors.Errorf("%s.%d: duplicate bin number %d", path, i, bin.Number)
		}
		seen[bin.Number] = true
		if bin.Name == "" {
			return errors.Errorf("%s.%d: bin %d needs a name", path, i, bin.Number)
		}
	}
	return nil
}

// BinStop assigns the contents of one bin to a room.
type BinStop struct {
	Bin  int    `json:"binNumber"`
	Room string `json:"roomId"`
}

// Route is a delivery request. Stops are kept in the order they were presented.
type Route struct {
	ID    string    `json:"id,omitempty"`
	Stops []BinStop `json:"stops"`
}

// Rooms returns each room of the route once, in presentation order.
func (r Route) Rooms() []string {
	return lo.Uniq(lo.Map(r.Stops, func(s BinStop, _ int) string { return s.Room }))
}

// BinsFor returns the bin numbers assigned to room, in presentation order.
func (r Route) BinsFor(room string) []int {
	return lo.FilterMap(r.Stops, func(s BinStop, _ int) (int, bool) { return s.Bin, s.Room == room })
}

// Check verifies every stop names a known room and a known bin, and that no bin is used twice.
func (r Route) Check(planner Planner, bins Bins) error {
	used := map[int]bool{}
	for i, stop := range r.Stops {
		if _, ok := planner.Room(stop.Room); !ok {
			return errors.Wrapf(ErrUnknownRoom, "stop %d: %q", i, stop.Room)
		}
		if _, ok := bins.Lookup(stop.Bin); !ok {
			return errors.Wrapf(ErrUnknownBin, "stop %d: %d", i, stop.Bin)
		}
		if used[stop.Bin] {
			return errors.Errorf("stop %d: bin %d is already assigned", i, stop.Bin)
		}
		used[stop.Bin] = true
	}
	return nil
}

func (r Route) String() string {
	return fmt.Sprintf("route %s (%d stops)", r.ID, len(r.Stops))
}
