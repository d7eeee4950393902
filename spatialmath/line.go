package spatialmath

import (
	"github.com/golang/geo/r2"
)

// Line is a straight segment.
type Line struct {
	From, To r2.Point
}

// NewLine returns the segment from a to b.
func NewLine(a, b r2.Point) *Line {
	return &Line{From: a, To: b}
}

// Point interpolates linearly.
func (l *Line) Point(t float64) r2.Point {
	return l.From.Add(l.To.Sub(l.From).Mul(t))
}

// UnitTangent is constant along a line.
func (l *Line) UnitTangent(t float64) r2.Point {
	d := l.To.Sub(l.From)
	if d.Norm() == 0 {
		return r2.Point{X: 1}
	}
	return d.Normalize()
}

// Length of the segment.
func (l *Line) Length() float64 {
	return l.To.Sub(l.From).Norm()
}

// ArcLengthParam is d over the length, clamped to [0, 1].
func (l *Line) ArcLengthParam(d float64) float64 {
	length := l.Length()
	if length == 0 {
		return 0
	}
	return clampUnit(d / length)
}

// BoundingBox of both endpoints.
func (l *Line) BoundingBox() r2.Rect {
	return r2.RectFromPoints(l.From, l.To)
}

// Reversed swaps the endpoints.
func (l *Line) Reversed() Curve {
	return &Line{From: l.To, To: l.From}
}
