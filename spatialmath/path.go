package spatialmath

import (
	"sort"

	"github.com/golang/geo/r2"
)

// Path is a chain of curves. The global parameter assigns each segment a share of [0, 1]
// proportional to its length.
type Path struct {
	segments []Curve
	// cumulative[i] is the length before segments[i]; the last entry is the total.
	cumulative []float64
}

// NewPath chains segments, dropping those of zero length.
func NewPath(segments ...Curve) *Path {
	p := &Path{cumulative: []float64{0}}
	for _, s := range segments {
		if s.Length() == 0 {
			continue
		}
		p.segments = append(p.segments, s)
		p.cumulative = append(p.cumulative, p.cumulative[len(p.cumulative)-1]+s.Length())
	}
	return p
}

// Segments returns the non-degenerate segments of the path.
func (p *Path) Segments() []Curve {
	return p.segments
}

// locate maps global t to a segment index and that segment's local parameter.
func (p *Path) locate(t float64) (int, float64) {
	t = clampUnit(t)
	target := t * p.Length()
	n := len(p.segments)
	idx := sort.Search(n, func(i int) bool { return p.cumulative[i+1] >= target })
	if idx >= n {
		idx = n - 1
	}
	segLen := p.cumulative[idx+1] - p.cumulative[idx]
	return idx, clampUnit((target - p.cumulative[idx]) / segLen)
}

// Point evaluates the segment containing t.
func (p *Path) Point(t float64) r2.Point {
	if len(p.segments) == 0 {
		return r2.Point{}
	}
	idx, local := p.locate(t)
	return p.segments[idx].Point(local)
}

// UnitTangent evaluates the segment containing t.
func (p *Path) UnitTangent(t float64) r2.Point {
	if len(p.segments) == 0 {
		return r2.Point{X: 1}
	}
	idx, local := p.locate(t)
	return p.segments[idx].UnitTangent(local)
}

// Length is the summed segment length.
func (p *Path) Length() float64 {
	return p.cumulative[len(p.cumulative)-1]
}

// ArcLengthParam finds the segment holding d and maps its local arc-length parameter back to
// the global one.
func (p *Path) ArcLengthParam(d float64) float64 {
	total := p.Length()
	switch {
	case total == 0 || d <= 0:
		return 0
	case d >= total:
		return 1
	}
	n := len(p.segments)
	idx := sort.Search(n, func(i int) bool { return p.cumulative[i+1] >= d })
	if idx >= n {
		return 1
	}
	segLen := p.cumulative[idx+1] - p.cumulative[idx]
	local := p.segments[idx].ArcLengthParam(d - p.cumulative[idx])
	return (p.cumulative[idx] + local*segLen) / total
}

// BoundingBox is the union of the segment boxes.
func (p *Path) BoundingBox() r2.Rect {
	box := r2.EmptyRect()
	for _, s := range p.segments {
		box = box.Union(s.BoundingBox())
	}
	return box
}

// Reversed reverses segment order and each segment.
func (p *Path) Reversed() Curve {
	reversed := make([]Curve, len(p.segments))
	for i, s := range p.segments {
		reversed[len(reversed)-1-i] = s.Reversed()
	}
	return NewPath(reversed...)
}
