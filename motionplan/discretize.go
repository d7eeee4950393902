// Package motionplan turns floor-plan curves into the waypoint poses the base drives through.
package motionplan

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/talaria-robotics/navigator/spatialmath"
	"github.com/talaria-robotics/navigator/utils"
)

const (
	// DefaultSamplingDistance is the physical spacing between samples along a curve.
	DefaultSamplingDistance = 1.0
	// DefaultMergeHeadingTolerance is the largest heading change, in degrees, that still merges.
	DefaultMergeHeadingTolerance = 0.04774
	// DefaultMergeDistanceTolerance is the largest cross-track offset that still merges.
	DefaultMergeDistanceTolerance = 0.25
)

// DiscretizeOptions configures a Discretizer.
type DiscretizeOptions struct {
	SamplingDistance       float64 `json:"sampling_distance"`
	MergeHeadingTolerance  float64 `json:"merge_heading_tolerance_deg"`
	MergeDistanceTolerance float64 `json:"merge_distance_tolerance"`
}

// DefaultDiscretizeOptions returns the calibrated defaults.
func DefaultDiscretizeOptions() DiscretizeOptions {
	return DiscretizeOptions{
		SamplingDistance:       DefaultSamplingDistance,
		MergeHeadingTolerance:  DefaultMergeHeadingTolerance,
		MergeDistanceTolerance: DefaultMergeDistanceTolerance,
	}
}

// Validate ensures all parts of the options are valid.
func (opts DiscretizeOptions) Validate(path string) error {
	if opts.SamplingDistance <= 0 {
		return errors.Errorf("%s: sampling_distance must be positive, got %v", path, opts.SamplingDistance)
	}
	if opts.MergeHeadingTolerance < 0 || opts.MergeDistanceTolerance < 0 {
		return errors.Errorf("%s: merge tolerances cannot be negative", path)
	}
	return nil
}

// Discretizer samples curves into poses.
type Discretizer struct {
	opts DiscretizeOptions
}

// NewDiscretizer returns a Discretizer; zero option fields take their defaults.
func NewDiscretizer(opts DiscretizeOptions) *Discretizer {
	def := DefaultDiscretizeOptions()
	if opts.SamplingDistance == 0 {
		opts.SamplingDistance = def.SamplingDistance
	}
	if opts.MergeHeadingTolerance == 0 {
		opts.MergeHeadingTolerance = def.MergeHeadingTolerance
	}
	if opts.MergeDistanceTolerance == 0 {
		opts.MergeDistanceTolerance = def.MergeDistanceTolerance
	}
	return &Discretizer{opts: opts}
}

// Options returns the effective options.
func (d *Discretizer) Options() DiscretizeOptions {
	return d.opts
}

// Discretize walks the curve from t=0 to t=1 in steps of the sampling distance and returns
// the kept poses. A run of samples that stays within both merge tolerances of the pose that
// started it collapses to its last sample. The first pose is always kept and the last pose is
// always the curve's end.
func (d *Discretizer) Discretize(curve spatialmath.Curve) []spatialmath.Pose {
	length := curve.Length()
	poses := []spatialmath.Pose{spatialmath.PoseAt(curve, 0)}
	if length == 0 {
		return poses
	}

	steps := int(math.Ceil(length / d.opts.SamplingDistance))
	for i := 1; i <= steps; i++ {
		t := 1.0
		if dist := float64(i) * d.opts.SamplingDistance; dist < length {
			t = curve.ArcLengthParam(dist)
		}
		poses = d.keep(poses, spatialmath.PoseAt(curve, t))
	}
	return poses
}

// keep appends next or lets it replace the last pose. The anchor is the pose the current run
// started from; the first pose is never replaced.
func (d *Discretizer) keep(poses []spatialmath.Pose, next spatialmath.Pose) []spatialmath.Pose {
	if len(poses) < 2 {
		return append(poses, next)
	}
	anchor := poses[len(poses)-2]
	if d.mergeable(anchor, next) {
		poses[len(poses)-1] = next
		return poses
	}
	return append(poses, next)
}

func (d *Discretizer) mergeable(anchor, next spatialmath.Pose) bool {
	headingChange := utils.AngleDiffDeg(anchor.Heading, next.Heading)
	if !scalar.EqualWithinAbs(headingChange, 0, d.opts.MergeHeadingTolerance) {
		return false
	}
	return crossTrack(anchor, next) <= d.opts.MergeDistanceTolerance
}

// crossTrack is the distance of next from the ray leaving anchor along its heading.
func crossTrack(anchor, next spatialmath.Pose) float64 {
	dir := spatialmath.NewPose(0, 0, anchor.Heading).Forward(1).Point
	offset := next.Point.Sub(anchor.Point)
	return math.Abs(dir.Cross(offset))
}
