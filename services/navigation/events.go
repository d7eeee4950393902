package navigation

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/talaria-robotics/navigator/floorplan"
)

// Event type names, as sent in the "$type" field.
const (
	TypeInTransit     = "InTransit"
	TypeArrivedAtStop = "ArrivedAtStop"
	TypeReturnHome    = "ReturnHome"
	TypeDone          = "Done"
)

// An Event reports route progress. The variants are InTransit, ArrivedAtStop, ReturnHome and
// Done. The order number is zero until a session emits the event.
type Event interface {
	Type() string
	Order() int
	withOrder(n int) Event
}

// InTransit is emitted when the robot sets off along an edge toward Room.
type InTransit struct {
	OrderNumber int            `json:"orderNumber"`
	Room        floorplan.Room `json:"room"`
}

// ArrivedAtStop is emitted once per bin to be collected at Room.
type ArrivedAtStop struct {
	OrderNumber int            `json:"orderNumber"`
	Room        floorplan.Room `json:"room"`
	Bin         Bin            `json:"bin"`
}

// ReturnHome is emitted when every stop is served and the robot heads home.
type ReturnHome struct {
	OrderNumber int `json:"orderNumber"`
}

// Done is emitted when the robot is back home.
type Done struct {
	OrderNumber int `json:"orderNumber"`
}

// Type implements Event.
func (e InTransit) Type() string { return TypeInTransit }

// Type implements Event.
func (e ArrivedAtStop) Type() string { return TypeArrivedAtStop }

// Type implements Event.
func (e ReturnHome) Type() string { return TypeReturnHome }

// Type implements Event.
func (e Done) Type() string { return TypeDone }

// Order implements Event.
func (e InTransit) Order() int { return e.OrderNumber }

// Order implements Event.
func (e ArrivedAtStop) Order() int { return e.OrderNumber }

// Order implements Event.
func (e ReturnHome) Order() int { return e.OrderNumber }

// Order implements Event.
func (e Done) Order() int { return e.OrderNumber }

func (e InTransit) withOrder(n int) Event     { e.OrderNumber = n; return e }
func (e ArrivedAtStop) withOrder(n int) Event { e.OrderNumber = n; return e }
func (e ReturnHome) withOrder(n int) Event    { e.OrderNumber = n; return e }
func (e Done) withOrder(n int) Event          { e.OrderNumber = n; return e }

// MarshalJSON adds the "$type" discriminator.
func (e InTransit) MarshalJSON() ([]byte, error) {
	type plain InTransit
	return marshalTagged(e.Type(), plain(e))
}

// MarshalJSON adds the "$type" discriminator.
func (e ArrivedAtStop) MarshalJSON() ([]byte, error) {
	type plain ArrivedAtStop
	return marshalTagged(e.Type(), plain(e))
}

// MarshalJSON adds the "$type" discriminator.
func (e ReturnHome) MarshalJSON() ([]byte, error) {
	type plain ReturnHome
	return marshalTagged(e.Type(), plain(e))
}

// MarshalJSON adds the "$type" discriminator.
func (e Done) MarshalJSON() ([]byte, error) {
	type plain Done
	return marshalTagged(e.Type(), plain(e))
}

func marshalTagged(typ string, body interface{}) ([]byte, error) {
	fields, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	tag, err := json.Marshal(typ)
	if err != nil {
		return nil, err
	}
	// fields is a non-empty object; splice the discriminator in as its first member.
	out := make([]byte, 0, len(fields)+len(tag)+10)
	out = append(out, `{"$type":`...)
	out = append(out, tag...)
	out = append(out, ',')
	return append(out, fields[1:]...), nil
}

// UnmarshalEvent decodes an event by its "$type" field.
func UnmarshalEvent(data []byte) (Event, error) {
	var head struct {
		Type string `json:"$type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case TypeInTransit:
		return decodeEvent[InTransit](data)
	case TypeArrivedAtStop:
		return decodeEvent[ArrivedAtStop](data)
	case TypeReturnHome:
		return decodeEvent[ReturnHome](data)
	case TypeDone:
		return decodeEvent[Done](data)
	default:
		return nil, errors.Errorf("unknown event type %q", head.Type)
	}
}

func decodeEvent[T Event](data []byte) (Event, error) {
	var e T
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// SinkFunc adapts a function to an EventSink.
type SinkFunc func(Event)

// Emit calls f.
func (f SinkFunc) Emit(ev Event) {
	f(ev)
}

// MultiSink emits every event to each of its sinks in turn.
type MultiSink []EventSink

// Emit implements EventSink.
func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// Recorder is an EventSink that keeps every event it is given.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements EventSink.
func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns the recorded events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Reset drops the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
