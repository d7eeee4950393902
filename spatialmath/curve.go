package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
)

// Curve is a parametric planar curve over t in [0, 1].
type Curve interface {
	Point(t float64) r2.Point
	// UnitTangent is the normalized derivative at t. Degenerate derivatives fall back to a
	// neighbouring direction so the result is always a unit vector for non-empty curves.
	UnitTangent(t float64) r2.Point
	Length() float64
	// ArcLengthParam is the t reached after travelling d units from the start.
	ArcLengthParam(d float64) float64
	BoundingBox() r2.Rect
	Reversed() Curve
}

// Start is the curve's first point.
func Start(c Curve) r2.Point {
	return c.Point(0)
}

// End is the curve's last point.
func End(c Curve) r2.Point {
	return c.Point(1)
}

// PoseAt samples position and tangent heading of c at t.
func PoseAt(c Curve, t float64) Pose {
	return NewPoseFromPoint(c.Point(t), HeadingOf(c.UnitTangent(t)))
}

const (
	arcLengthIterations = 60
	degenerateStep      = 1e-6
)

func clampUnit(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}

// invertArcLength bisects partial(t) == d over [0, 1]; partial must be monotone.
func invertArcLength(d, total float64, partial func(t float64) float64) float64 {
	switch {
	case d <= 0 || total == 0:
		return 0
	case d >= total:
		return 1
	}
	lo, hi := 0.0, 1.0
	for i := 0; i < arcLengthIterations; i++ {
		mid := (lo + hi) / 2
		if partial(mid) < d {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// unitOrFallback normalizes v. A zero v is replaced by the derivative just inside [0, 1] and
// then by the chord.
func unitOrFallback(v r2.Point, t float64, derivative func(float64) r2.Point, chord r2.Point) r2.Point {
	if v.Norm() > 0 {
		return v.Normalize()
	}
	nudged := t + degenerateStep
	if nudged > 1 {
		nudged = t - degenerateStep
	}
	if w := derivative(nudged); w.Norm() > 0 {
		return w.Normalize()
	}
	if chord.Norm() > 0 {
		return chord.Normalize()
	}
	return r2.Point{X: 1}
}
