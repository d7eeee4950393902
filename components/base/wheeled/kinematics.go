package wheeled

import (
	"math"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/talaria-robotics/navigator/spatialmath"
	rutils "github.com/talaria-robotics/navigator/utils"
)

// ErrUnsupportedMotion is returned when a displacement is neither a pivot nor a straight line.
var ErrUnsupportedMotion = errors.New("only pure pivots and pure translations can be dead reckoned")

// Calibration holds the measured ratios between body motion and wheel rotation. The chassis
// needs more wheel rotation to move backwards than forwards, so each direction has its own
// ratio.
type Calibration struct {
	// TurnRatioForward is wheel degrees per body degree for a wheel turning forward in a pivot.
	TurnRatioForward float64 `json:"turn_ratio_forward"`
	// TurnRatioBackward is wheel degrees per body degree for a wheel turning backward in a pivot.
	TurnRatioBackward float64 `json:"turn_ratio_backward"`
	// DegreesPerUnit is wheel degrees per unit of forward travel.
	DegreesPerUnit float64 `json:"degrees_per_unit"`
	// ReverseMultiplier scales wheel rotation when driving backwards.
	ReverseMultiplier float64 `json:"reverse_multiplier"`
	// GearRatio is encoder shaft degrees per wheel degree.
	GearRatio float64 `json:"gear_ratio"`
	// WheelRadius and HalfWheelBase are the chassis geometry, in floor plan units.
	WheelRadius   float64 `json:"wheel_radius"`
	HalfWheelBase float64 `json:"half_wheel_base"`
}

// DefaultCalibration is the calibration of the reference chassis.
func DefaultCalibration() Calibration {
	return Calibration{
		TurnRatioForward:  4042.075 / 360,
		TurnRatioBackward: 4269.900 / 360,
		DegreesPerUnit:    49.822,
		ReverseMultiplier: 4269.9 / 4042.075,
		GearRatio:         2,
		WheelRadius:       1.15625,
		HalfWheelBase:     11.5625,
	}
}

// Validate ensures all parts of the config are valid.
func (c *Calibration) Validate(path string) error {
	for field, v := range map[string]float64{
		"turn_ratio_forward":  c.TurnRatioForward,
		"turn_ratio_backward": c.TurnRatioBackward,
		"degrees_per_unit":    c.DegreesPerUnit,
		"reverse_multiplier":  c.ReverseMultiplier,
		"gear_ratio":          c.GearRatio,
	} {
		if v == 0 {
			return utils.NewConfigValidationFieldRequiredError(path, field)
		}
		if v < 0 || !rutils.IsFinite(v) {
			return utils.NewConfigValidationError(path, errors.Errorf("%s must be positive, got %v", field, v))
		}
	}
	return nil
}

// WheelDisplacement is the signed cumulative rotation of each wheel, in degrees.
type WheelDisplacement struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// WheelAnglesForTurn is the wheel rotation that pivots the body by bodyDeg, counter-clockwise
// positive. The wheel turning backward uses the backward ratio.
func (c Calibration) WheelAnglesForTurn(bodyDeg float64) WheelDisplacement {
	if bodyDeg >= 0 {
		return WheelDisplacement{Left: -bodyDeg * c.TurnRatioBackward, Right: bodyDeg * c.TurnRatioForward}
	}
	return WheelDisplacement{Left: -bodyDeg * c.TurnRatioForward, Right: bodyDeg * c.TurnRatioBackward}
}

// WheelAnglesForForward is the wheel rotation that drives the body dist units straight ahead.
func (c Calibration) WheelAnglesForForward(dist float64) WheelDisplacement {
	wheel := dist * c.DegreesPerUnit
	if wheel < 0 {
		wheel *= c.ReverseMultiplier
	}
	return WheelDisplacement{Left: wheel, Right: wheel}
}

// DeltaAngleDeg is the wheel rotation between two shaft readings, assuming the shaft turned less
// than half a revolution between them.
func (c Calibration) DeltaAngleDeg(prev, cur float64) float64 {
	d := cur - prev
	if math.Abs(d) > 180 {
		if cur > prev {
			d = cur - (360 + prev)
		} else {
			d = cur + (360 - prev)
		}
	}
	return d / c.GearRatio
}

const (
	// straightTolerance is how far apart, in wheel degrees per unit, two wheels may drift and still
	// count as driving straight.
	straightTolerance = 0.5
	// pivotToleranceDeg is how far apart the body rotation implied by each wheel may be.
	pivotToleranceDeg = 10.0
)

// EstimatePose dead reckons the pose reached from start after the wheels turned by d.
func (c Calibration) EstimatePose(start spatialmath.Pose, d WheelDisplacement) (spatialmath.Pose, error) {
	if math.Abs(d.Left-d.Right) <= straightTolerance*c.DegreesPerUnit {
		wheel := (d.Left + d.Right) / 2
		if wheel < 0 {
			wheel /= c.ReverseMultiplier
		}
		return start.Forward(wheel / c.DegreesPerUnit), nil
	}

	if rutils.Sign(d.Left) != rutils.Sign(d.Right) {
		var fromLeft, fromRight float64
		if d.Right >= 0 {
			fromLeft, fromRight = -d.Left/c.TurnRatioBackward, d.Right/c.TurnRatioForward
		} else {
			fromLeft, fromRight = -d.Left/c.TurnRatioForward, d.Right/c.TurnRatioBackward
		}
		if math.Abs(fromLeft-fromRight) <= pivotToleranceDeg {
			return start.Rotate((fromLeft + fromRight) / 2), nil
		}
	}

	return start, errors.Wrapf(ErrUnsupportedMotion, "left %.1f° right %.1f°", d.Left, d.Right)
}
