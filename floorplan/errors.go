package floorplan

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownNode is returned when a node id is not part of the floor plan.
	ErrUnknownNode = errors.New("unknown node")
	// ErrTooManyStops is returned when a trip has more stops than the tour search will permute.
	ErrTooManyStops = errors.Errorf("a trip can have at most %d stops", MaxTripStops)
)

// DisconnectedGraphError is returned when two nodes a trip needs have no path between them.
type DisconnectedGraphError struct {
	From, To string
}

func (e *DisconnectedGraphError) Error() string {
	return fmt.Sprintf("no path between %q and %q", e.From, e.To)
}

// NoDirectConnectionError is returned when two nodes expected to share an edge do not.
type NoDirectConnectionError struct {
	From, To string
}

func (e *NoDirectConnectionError) Error() string {
	return fmt.Sprintf("nodes %q and %q are not directly connected", e.From, e.To)
}

func newUnknownNodeError(id string) error {
	return errors.Wrapf(ErrUnknownNode, "%q", id)
}
