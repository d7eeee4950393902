package motionplan

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/talaria-robotics/navigator/spatialmath"
)

func TestDiscretizeStraightLine(t *testing.T) {
	d := NewDiscretizer(DiscretizeOptions{})
	for _, length := range []float64{0.5, 1, 7.3, 100, 1234.5} {
		line := spatialmath.NewLine(r2.Point{X: 2, Y: 3}, r2.Point{X: 2 + length, Y: 3 + length})
		poses := d.Discretize(line)
		test.That(t, poses, test.ShouldHaveLength, 2)
		test.That(t, poses[0].Point, test.ShouldResemble, r2.Point{X: 2, Y: 3})
		test.That(t, poses[1].Point.X, test.ShouldAlmostEqual, 2+length)
		test.That(t, poses[1].Point.Y, test.ShouldAlmostEqual, 3+length)
		test.That(t, poses[1].Heading, test.ShouldAlmostEqual, 45)
	}
}

func TestDiscretizeMergesAcrossNorth(t *testing.T) {
	// the heading wobbles either side of 0 along this nearly straight curve
	curve := spatialmath.NewCubicBezier(r2.Point{}, r2.Point{X: 33, Y: 0.001}, r2.Point{X: 66, Y: -0.001}, r2.Point{X: 100})
	poses := NewDiscretizer(DiscretizeOptions{}).Discretize(curve)
	test.That(t, poses, test.ShouldHaveLength, 2)
	test.That(t, poses[1].Point.X, test.ShouldAlmostEqual, 100)
}

func TestDiscretizeIsRepeatable(t *testing.T) {
	d := NewDiscretizer(DiscretizeOptions{})
	curve := spatialmath.NewQuadraticBezier(r2.Point{}, r2.Point{X: 10, Y: 10}, r2.Point{X: 20})
	first := d.Discretize(curve)
	second := d.Discretize(curve)
	test.That(t, second, test.ShouldResemble, first)
}

func TestDiscretizeCorner(t *testing.T) {
	path, err := spatialmath.ParseSVGPath("M 0 0 L 10 0 L 10 10")
	test.That(t, err, test.ShouldBeNil)

	poses := NewDiscretizer(DiscretizeOptions{}).Discretize(path)
	test.That(t, len(poses), test.ShouldBeGreaterThanOrEqualTo, 3)
	test.That(t, poses[0].Heading, test.ShouldAlmostEqual, 0)

	last := poses[len(poses)-1]
	test.That(t, last.Point.X, test.ShouldAlmostEqual, 10)
	test.That(t, last.Point.Y, test.ShouldAlmostEqual, 10)
	test.That(t, last.Heading, test.ShouldAlmostEqual, 90)

	// the leg along x collapses to the corner before turning north
	var reachedCorner bool
	for _, p := range poses {
		if math.Abs(p.Point.X-10) < 1e-9 && math.Abs(p.Point.Y) < 1e-9 {
			reachedCorner = true
		}
	}
	test.That(t, reachedCorner, test.ShouldBeTrue)
}

func TestDiscretizeCurveKeepsShape(t *testing.T) {
	k := 0.5522847498
	arc := spatialmath.NewCubicBezier(r2.Point{X: 10}, r2.Point{X: 10, Y: 10 * k}, r2.Point{X: 10 * k, Y: 10}, r2.Point{Y: 10})
	poses := NewDiscretizer(DiscretizeOptions{}).Discretize(arc)

	// one pose per sampling step plus the start
	test.That(t, len(poses), test.ShouldEqual, int(math.Ceil(arc.Length()))+1)
	for i := 1; i < len(poses); i++ {
		test.That(t, poses[i].Heading, test.ShouldBeGreaterThan, poses[i-1].Heading)
		test.That(t, poses[i-1].DistanceTo(poses[i]), test.ShouldBeLessThanOrEqualTo, 1.0+1e-6)
	}
}

func TestDiscretizeOptionsValidate(t *testing.T) {
	test.That(t, DefaultDiscretizeOptions().Validate("discretize"), test.ShouldBeNil)

	err := DiscretizeOptions{SamplingDistance: -1}.Validate("discretize")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "sampling_distance")

	err = DiscretizeOptions{SamplingDistance: 1, MergeHeadingTolerance: -0.1}.Validate("discretize")
	test.That(t, err, test.ShouldNotBeNil)
}
