// Package inject provides function-field stand-ins for the navigator's hardware interfaces.
package inject

import (
	"context"

	"github.com/talaria-robotics/navigator/components/encoder"
)

// Encoder is an injected encoder.
type Encoder struct {
	encoder.Encoder
	ReadShaftAnglesFunc func(ctx context.Context) (float64, float64, error)
}

// ReadShaftAngles calls the injected ReadShaftAngles or the real version.
func (e *Encoder) ReadShaftAngles(ctx context.Context) (float64, float64, error) {
	if e.ReadShaftAnglesFunc == nil {
		return e.Encoder.ReadShaftAngles(ctx)
	}
	return e.ReadShaftAnglesFunc(ctx)
}
