package motor

import "github.com/pkg/errors"

// ErrDutyOutOfRange is returned when a commanded duty is outside [-1, 1].
var ErrDutyOutOfRange = errors.New("duty must be within [-1, 1]")

// NewDutyOutOfRangeError returns ErrDutyOutOfRange annotated with the offending wheel.
func NewDutyOutOfRangeError(wheel string, duty float64) error {
	return errors.Wrapf(ErrDutyOutOfRange, "%s wheel duty %v", wheel, duty)
}
