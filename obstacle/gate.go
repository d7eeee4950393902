package obstacle

import (
	"context"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/talaria-robotics/navigator/lidar"
	"github.com/talaria-robotics/navigator/logging"
)

// Direction is which way the chassis is moving when the gate is consulted.
type Direction int

// Directions of travel.
const (
	// DirectionPivot is a turn in place, checked against the forward zone.
	DirectionPivot Direction = iota
	DirectionForward
	DirectionReverse
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionReverse:
		return "reverse"
	case DirectionPivot:
		return "pivot"
	default:
		return "unknown"
	}
}

// GateConfig tunes the gate.
type GateConfig struct {
	Box Box `json:"box"`
	// MinViolations is how many returns must be inside the zone before the gate closes, which
	// filters out single noisy returns.
	MinViolations int `json:"min_violations,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *GateConfig) Validate(path string) error {
	if conf.MinViolations < 0 {
		return goutils.NewConfigValidationError(path, errors.New("min_violations cannot be negative"))
	}
	b := conf.Box
	if b.FrontClearance <= 0 || b.SideClearance <= 0 {
		return goutils.NewConfigValidationError(path+".box", errors.New("clearances must be positive"))
	}
	if b.FrontConeDeg <= 0 || b.FrontConeDeg >= 90 {
		return goutils.NewConfigValidationError(path+".box",
			errors.Errorf("front_cone_deg must be between 0 and 90, got %v", b.FrontConeDeg))
	}
	if b.SideConeEndDeg < 90 || b.SideConeEndDeg > b.MaxAngleDeg || b.MaxAngleDeg > 180 {
		return goutils.NewConfigValidationError(path+".box",
			errors.Errorf("need 90 <= side_cone_end_deg <= max_angle_deg <= 180, got %v and %v", b.SideConeEndDeg, b.MaxAngleDeg))
	}
	return nil
}

// Gate holds motion while the latest scan has something inside the zone.
type Gate struct {
	box           Box
	minViolations int
	source        lidar.ScanSource
	logger        logging.Logger
}

// NewGate returns a gate reading scans from source.
func NewGate(conf GateConfig, source lidar.ScanSource, logger logging.Logger) *Gate {
	if conf.MinViolations < 1 {
		conf.MinViolations = 1
	}
	return &Gate{box: conf.Box, minViolations: conf.MinViolations, source: source, logger: logger}
}

// Check returns the nearest violation for travel in direction. Before the first scan arrives the
// gate is open.
func (g *Gate) Check(ctx context.Context, direction Direction) (lidar.Measurement, bool) {
	scan, ok := g.source.Latest()
	if !ok {
		return lidar.Measurement{}, false
	}
	var offset float64
	if direction == DirectionReverse {
		offset = 180
	}
	violations := g.box.violations(scan, offset)
	if len(violations) < g.minViolations {
		return lidar.Measurement{}, false
	}
	g.logger.Debugw("keep-out zone occupied",
		"direction", direction.String(), "returns", len(violations),
		"angle", violations[0].AngleDeg, "distance", violations[0].Distance)
	return violations[0], true
}
