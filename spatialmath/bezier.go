package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/integrate/quad"
)

// quadraturePoints is the Gauss-Legendre order used for arc lengths.
const quadraturePoints = 48

// Bezier is a quadratic or cubic Bezier segment.
type Bezier struct {
	Control []r2.Point

	length float64
}

// NewQuadraticBezier returns the quadratic segment start, control, end.
func NewQuadraticBezier(start, control, end r2.Point) *Bezier {
	return newBezier([]r2.Point{start, control, end})
}

// NewCubicBezier returns the cubic segment start, c1, c2, end.
func NewCubicBezier(start, c1, c2, end r2.Point) *Bezier {
	return newBezier([]r2.Point{start, c1, c2, end})
}

func newBezier(control []r2.Point) *Bezier {
	b := &Bezier{Control: control}
	b.length = b.partialLength(1)
	return b
}

// Point evaluates the segment with de Casteljau's algorithm.
func (b *Bezier) Point(t float64) r2.Point {
	return deCasteljau(b.Control, t)
}

func deCasteljau(control []r2.Point, t float64) r2.Point {
	pts := make([]r2.Point, len(control))
	copy(pts, control)
	for n := len(pts) - 1; n > 0; n-- {
		for i := 0; i < n; i++ {
			pts[i] = pts[i].Mul(1 - t).Add(pts[i+1].Mul(t))
		}
	}
	return pts[0]
}

func (b *Bezier) derivative(t float64) r2.Point {
	degree := float64(len(b.Control) - 1)
	diffs := make([]r2.Point, len(b.Control)-1)
	for i := range diffs {
		diffs[i] = b.Control[i+1].Sub(b.Control[i]).Mul(degree)
	}
	return deCasteljau(diffs, t)
}

// UnitTangent normalizes the derivative.
func (b *Bezier) UnitTangent(t float64) r2.Point {
	t = clampUnit(t)
	chord := b.Control[len(b.Control)-1].Sub(b.Control[0])
	return unitOrFallback(b.derivative(t), t, b.derivative, chord)
}

func (b *Bezier) partialLength(t float64) float64 {
	if t <= 0 {
		return 0
	}
	speed := func(s float64) float64 { return b.derivative(s).Norm() }
	return quad.Fixed(speed, 0, t, quadraturePoints, nil, 0)
}

// Length is the arc length, integrated once at construction.
func (b *Bezier) Length() float64 {
	return b.length
}

// ArcLengthParam inverts the integrated arc length by bisection.
func (b *Bezier) ArcLengthParam(d float64) float64 {
	return invertArcLength(d, b.length, b.partialLength)
}

// BoundingBox is exact: it includes the endpoints and every axis extremum inside (0, 1).
func (b *Bezier) BoundingBox() r2.Rect {
	pts := []r2.Point{b.Control[0], b.Control[len(b.Control)-1]}
	for _, t := range b.extrema() {
		pts = append(pts, b.Point(t))
	}
	return r2.RectFromPoints(pts...)
}

// extrema returns the parameters in (0, 1) where either coordinate's derivative vanishes.
func (b *Bezier) extrema() []float64 {
	var roots []float64
	for _, axis := range []func(r2.Point) float64{
		func(p r2.Point) float64 { return p.X },
		func(p r2.Point) float64 { return p.Y },
	} {
		c := make([]float64, len(b.Control))
		for i, p := range b.Control {
			c[i] = axis(p)
		}
		var qa, qb, qc float64
		switch len(c) {
		case 3:
			qb = 2 * (c[0] - 2*c[1] + c[2])
			qc = 2 * (c[1] - c[0])
		case 4:
			qa = 3 * (-c[0] + 3*c[1] - 3*c[2] + c[3])
			qb = 6 * (c[0] - 2*c[1] + c[2])
			qc = 3 * (c[1] - c[0])
		}
		for _, r := range solveQuadratic(qa, qb, qc) {
			if r > 0 && r < 1 {
				roots = append(roots, r)
			}
		}
	}
	return roots
}

func solveQuadratic(a, b, c float64) []float64 {
	const eps = 1e-12
	if math.Abs(a) < eps {
		if math.Abs(b) < eps {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}

// Reversed reverses the control polygon.
func (b *Bezier) Reversed() Curve {
	control := make([]r2.Point, len(b.Control))
	for i, p := range b.Control {
		control[len(control)-1-i] = p
	}
	return &Bezier{Control: control, length: b.length}
}
