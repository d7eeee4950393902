// Package obstacle decides whether the lidar sees anything inside the keep-out zone around the
// robot.
package obstacle

import (
	"math"

	"github.com/talaria-robotics/navigator/lidar"
	"github.com/talaria-robotics/navigator/utils"
)

// Box is the keep-out zone, described by the closest distance allowed at each bearing. Bearings
// are degrees clockwise from the front of the robot.
type Box struct {
	// FrontClearance is how far ahead (and behind) the zone reaches.
	FrontClearance float64 `json:"front_clearance"`
	// SideClearance is how far to the side the zone reaches.
	SideClearance float64 `json:"side_clearance"`
	// FrontConeDeg is where the front face gives way to the side face.
	FrontConeDeg float64 `json:"front_cone_deg"`
	// SideConeEndDeg is where the side face gives way to the rear face.
	SideConeEndDeg float64 `json:"side_cone_end_deg"`
	// MaxAngleDeg is the last bearing inside the zone.
	MaxAngleDeg float64 `json:"max_angle_deg"`
}

// DefaultBox is the zone the chassis was built around.
func DefaultBox() Box {
	return Box{
		FrontClearance: 15,
		SideClearance:  6,
		FrontConeDeg:   25,
		SideConeEndDeg: 155,
		MaxAngleDeg:    180,
	}
}

// MinimumSafeDistance is the closest a return at angleDeg may be. Zero means the bearing is
// outside the zone.
func (b Box) MinimumSafeDistance(angleDeg float64) float64 {
	x := utils.ModAngDeg(angleDeg)
	switch {
	case x < b.FrontConeDeg:
		return b.FrontClearance / cosDeg(x)
	case x < 90:
		return b.SideClearance / cosDeg(90-x)
	case x < b.SideConeEndDeg:
		return b.SideClearance / cosDeg(x-90)
	case x < b.MaxAngleDeg:
		return b.FrontClearance / cosDeg(180-x)
	default:
		return 0
	}
}

// Violations returns every return inside the zone in angular order. Zero distances are dropped
// returns, not obstacles.
func (b Box) Violations(scan lidar.Measurements) lidar.Measurements {
	return b.violations(scan, 0)
}

// NearestViolation returns the first return inside the zone in angular order.
func (b Box) NearestViolation(scan lidar.Measurements) (lidar.Measurement, bool) {
	v := b.Violations(scan)
	if len(v) == 0 {
		return lidar.Measurement{}, false
	}
	return v[0], true
}

func (b Box) violations(scan lidar.Measurements, offsetDeg float64) lidar.Measurements {
	var out lidar.Measurements
	for _, m := range scan.Sorted() {
		if m.Distance <= 0 || !utils.IsFinite(m.Distance) {
			continue
		}
		if m.Distance <= b.MinimumSafeDistance(m.AngleDeg+offsetDeg) {
			out = append(out, m)
		}
	}
	return out
}

func cosDeg(deg float64) float64 {
	return math.Cos(utils.DegToRad(deg))
}
