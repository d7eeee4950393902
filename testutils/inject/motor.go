package inject

import (
	"context"

	"github.com/talaria-robotics/navigator/components/motor"
)

// Motor is an injected motor.
type Motor struct {
	motor.Motor
	SetWheelDutyFunc func(ctx context.Context, left, right float64) error
}

// SetWheelDuty calls the injected SetWheelDuty or the real version.
func (m *Motor) SetWheelDuty(ctx context.Context, left, right float64) error {
	if m.SetWheelDutyFunc == nil {
		return m.Motor.SetWheelDuty(ctx, left, right)
	}
	return m.SetWheelDutyFunc(ctx, left, right)
}
