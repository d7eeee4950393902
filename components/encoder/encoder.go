// Package encoder defines the absolute shaft encoders the drive loop reads wheel rotation from.
package encoder

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/utils"
)

// An Encoder reports the absolute shaft angle of both drive wheels.
type Encoder interface {
	// ReadShaftAngles returns the left and right shaft angles, each in [0, 360).
	ReadShaftAngles(ctx context.Context) (left, right float64, err error)
}

// ErrInvalidReading is returned when an encoder reports an angle outside [0, 360).
var ErrInvalidReading = errors.New("shaft angle out of range")

// CheckAngles validates a pair of shaft angles.
func CheckAngles(left, right float64) error {
	for _, a := range []float64{left, right} {
		if !utils.IsFinite(a) || a < 0 || a >= 360 {
			return errors.Wrapf(ErrInvalidReading, "%v", a)
		}
	}
	return nil
}

// A Constructor builds an encoder model from its attributes.
type Constructor func(ctx context.Context, attrs utils.AttributeMap, logger logging.Logger) (Encoder, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// Register registers an encoder model to a constructor.
func Register(model string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, old := registry[model]; old {
		panic(errors.Errorf("trying to register two encoders with same model %s", model))
	}
	registry[model] = constructor
}

// Lookup looks up an encoder constructor by model. nil is returned if there is no constructor
// registered.
func Lookup(model string) Constructor {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[model]
}

// New builds the named model.
func New(ctx context.Context, model string, attrs utils.AttributeMap, logger logging.Logger) (Encoder, error) {
	constructor := Lookup(model)
	if constructor == nil {
		return nil, utils.NewUnknownModelError("encoder", model)
	}
	return constructor(ctx, attrs, logger)
}
