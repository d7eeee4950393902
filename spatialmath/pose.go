// Package spatialmath defines the planar geometry the navigator moves through: poses and the
// parametric curves that connect floor-plan nodes.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/talaria-robotics/navigator/utils"
)

// Pose is a position on the floor plan plus a heading in degrees.
// The heading is kept in [0, 360) by every constructor and method; 0 points along +X and angles
// grow counter-clockwise.
type Pose struct {
	Point   r2.Point `json:"point"`
	Heading float64  `json:"heading"`
}

// NewPose returns a pose with its heading normalized.
func NewPose(x, y, headingDeg float64) Pose {
	return Pose{Point: r2.Point{X: x, Y: y}, Heading: NormalizeHeading(headingDeg)}
}

// NewPoseFromPoint returns a pose at p with its heading normalized.
func NewPoseFromPoint(p r2.Point, headingDeg float64) Pose {
	return Pose{Point: p, Heading: NormalizeHeading(headingDeg)}
}

// NormalizeHeading maps any heading into [0, 360).
func NormalizeHeading(headingDeg float64) float64 {
	return utils.ModAngDeg(headingDeg)
}

// HeadingDiff returns the signed turn in [-180, 180) that rotates heading from onto heading to.
func HeadingDiff(from, to float64) float64 {
	return utils.SignedAngleDiffDeg(from, to)
}

// HeadingOf returns the heading of direction v in [0, 360). The zero vector has heading 0.
func HeadingOf(v r2.Point) float64 {
	if v.X == 0 && v.Y == 0 {
		return 0
	}
	return NormalizeHeading(utils.RadToDeg(math.Atan2(v.Y, v.X)))
}

// Compose adds the position of delta to p and sums the headings modulo 360.
func (p Pose) Compose(delta Pose) Pose {
	return Pose{
		Point:   p.Point.Add(delta.Point),
		Heading: NormalizeHeading(p.Heading + delta.Heading),
	}
}

// Rotate turns the pose in place by deg degrees.
func (p Pose) Rotate(deg float64) Pose {
	return Pose{Point: p.Point, Heading: NormalizeHeading(p.Heading + deg)}
}

// Forward moves the pose dist units along its heading.
func (p Pose) Forward(dist float64) Pose {
	rad := utils.DegToRad(p.Heading)
	step := r2.Point{X: math.Cos(rad), Y: math.Sin(rad)}.Mul(dist)
	return Pose{Point: p.Point.Add(step), Heading: p.Heading}
}

// DistanceTo is the straight-line distance between the two positions.
func (p Pose) DistanceTo(o Pose) float64 {
	return o.Point.Sub(p.Point).Norm()
}

// BearingTo is the heading pointing from p to o. Coincident poses keep p's heading.
func (p Pose) BearingTo(o Pose) float64 {
	d := o.Point.Sub(p.Point)
	if d.Norm() == 0 {
		return p.Heading
	}
	return HeadingOf(d)
}

// AlmostEqual compares positions and headings within tol, treating 0 and 360 as equal.
func (p Pose) AlmostEqual(o Pose, tol float64) bool {
	return p.DistanceTo(o) <= tol && math.Abs(HeadingDiff(p.Heading, o.Heading)) <= tol
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f) @ %.3f°", p.Point.X, p.Point.Y, p.Heading)
}
