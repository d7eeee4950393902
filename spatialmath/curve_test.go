package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestLine(t *testing.T) {
	l := NewLine(r2.Point{X: 0, Y: 0}, r2.Point{X: 10, Y: 0})
	test.That(t, l.Length(), test.ShouldEqual, 10)
	test.That(t, l.ArcLengthParam(2.5), test.ShouldEqual, 0.25)
	test.That(t, l.ArcLengthParam(20), test.ShouldEqual, 1)
	test.That(t, HeadingOf(l.UnitTangent(0.3)), test.ShouldEqual, 0)

	r := l.Reversed()
	test.That(t, Start(r), test.ShouldResemble, r2.Point{X: 10, Y: 0})
	test.That(t, HeadingOf(r.UnitTangent(0.5)), test.ShouldAlmostEqual, 180)
}

func TestBezier(t *testing.T) {
	t.Run("collinear cubic has chord length", func(t *testing.T) {
		b := NewCubicBezier(r2.Point{}, r2.Point{X: 1}, r2.Point{X: 2}, r2.Point{X: 3})
		test.That(t, b.Length(), test.ShouldAlmostEqual, 3, 1e-9)
		test.That(t, b.Point(b.ArcLengthParam(1.5)).X, test.ShouldAlmostEqual, 1.5, 1e-6)
	})

	t.Run("quarter circle approximation", func(t *testing.T) {
		k := 0.5522847498
		b := NewCubicBezier(r2.Point{X: 10}, r2.Point{X: 10, Y: 10 * k}, r2.Point{X: 10 * k, Y: 10}, r2.Point{Y: 10})
		test.That(t, b.Length(), test.ShouldAlmostEqual, math.Pi*5, 1e-2)
		test.That(t, HeadingOf(b.UnitTangent(0)), test.ShouldAlmostEqual, 90, 1e-9)
		test.That(t, HeadingOf(b.UnitTangent(1)), test.ShouldAlmostEqual, 180, 1e-9)

		box := b.BoundingBox()
		test.That(t, box.Lo().X, test.ShouldAlmostEqual, 0)
		test.That(t, box.Hi().Y, test.ShouldAlmostEqual, 10)

		rev := b.Reversed()
		test.That(t, rev.Length(), test.ShouldAlmostEqual, b.Length())
		test.That(t, Start(rev), test.ShouldResemble, r2.Point{Y: 10})
		test.That(t, HeadingOf(rev.UnitTangent(0)), test.ShouldAlmostEqual, 0, 1e-9)
	})

	t.Run("bulging quadratic box includes apex", func(t *testing.T) {
		b := NewQuadraticBezier(r2.Point{}, r2.Point{X: 5, Y: 10}, r2.Point{X: 10})
		test.That(t, b.BoundingBox().Hi().Y, test.ShouldAlmostEqual, 5)
	})

	t.Run("degenerate tangent falls back", func(t *testing.T) {
		b := NewCubicBezier(r2.Point{}, r2.Point{}, r2.Point{X: 5, Y: 5}, r2.Point{X: 10, Y: 5})
		tangent := b.UnitTangent(0)
		test.That(t, tangent.Norm(), test.ShouldAlmostEqual, 1)
	})
}

func TestPath(t *testing.T) {
	p := NewPath(
		NewLine(r2.Point{}, r2.Point{X: 10}),
		NewLine(r2.Point{X: 10}, r2.Point{X: 10}),
		NewLine(r2.Point{X: 10}, r2.Point{X: 10, Y: 30}),
	)
	test.That(t, p.Segments(), test.ShouldHaveLength, 2)
	test.That(t, p.Length(), test.ShouldEqual, 40)
	test.That(t, p.ArcLengthParam(10), test.ShouldAlmostEqual, 0.25)
	test.That(t, p.Point(p.ArcLengthParam(25)), test.ShouldResemble, r2.Point{X: 10, Y: 15})
	test.That(t, HeadingOf(p.UnitTangent(0.9)), test.ShouldAlmostEqual, 90)

	box := p.BoundingBox()
	test.That(t, box.Hi(), test.ShouldResemble, r2.Point{X: 10, Y: 30})

	rev := p.Reversed()
	test.That(t, Start(rev), test.ShouldResemble, r2.Point{X: 10, Y: 30})
	test.That(t, End(rev), test.ShouldResemble, r2.Point{})
	test.That(t, rev.Length(), test.ShouldEqual, 40)
}

func TestParseSVGPath(t *testing.T) {
	t.Run("absolute and relative", func(t *testing.T) {
		p, err := ParseSVGPath("M 0 0 L 10,0 v10 h-10 Z")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p.Segments(), test.ShouldHaveLength, 4)
		test.That(t, p.Length(), test.ShouldAlmostEqual, 40)
		test.That(t, End(p), test.ShouldResemble, r2.Point{})
	})

	t.Run("curves and compact numbers", func(t *testing.T) {
		p, err := ParseSVGPath("M0,0C0,5-5,10-10,10s-10-5-10-10Q-20-10-10-10T1e1,0")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p.Segments(), test.ShouldHaveLength, 4)
		test.That(t, End(p).X, test.ShouldAlmostEqual, 10)
		test.That(t, End(p).Y, test.ShouldAlmostEqual, 0)
	})

	t.Run("implicit line after move", func(t *testing.T) {
		p, err := ParseSVGPath("M 0 0 3 4")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p.Length(), test.ShouldAlmostEqual, 5)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := ParseSVGPath("M 0 0 A 5 5 0 0 1 10 10")
		test.That(t, err, test.ShouldBeError)
		test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported")

		_, err = ParseSVGPath("M 0 0 L 4")
		test.That(t, err, test.ShouldNotBeNil)

		_, err = ParseSVGPath("10 10")
		test.That(t, err, test.ShouldNotBeNil)

		_, err = ParseSVGPath("M 0 0 L # 1")
		test.That(t, err, test.ShouldNotBeNil)
	})
}
