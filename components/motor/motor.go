// Package motor defines the pair of drive motors turning the wheels.
package motor

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/talaria-robotics/navigator/components/encoder"
	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/utils"
)

// A Motor drives both wheels. Duties are in [-1, 1]; positive turns a wheel forward and 0 stops it.
type Motor interface {
	SetWheelDuty(ctx context.Context, left, right float64) error
}

// CheckDuty rejects duties outside [-1, 1].
func CheckDuty(left, right float64) error {
	if math.IsNaN(left) || math.Abs(left) > 1 {
		return NewDutyOutOfRangeError("left", left)
	}
	if math.IsNaN(right) || math.Abs(right) > 1 {
		return NewDutyOutOfRangeError("right", right)
	}
	return nil
}

// Stop zeroes both wheels.
func Stop(ctx context.Context, m Motor) error {
	return m.SetWheelDuty(ctx, 0, 0)
}

// A Constructor builds a motor model. enc is the configured encoder, which simulated motors
// feed their duty into.
type Constructor func(ctx context.Context, enc encoder.Encoder, attrs utils.AttributeMap, logger logging.Logger) (Motor, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// Register registers a motor model to a constructor.
func Register(model string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, old := registry[model]; old {
		panic(errors.Errorf("trying to register two motors with same model %s", model))
	}
	registry[model] = constructor
}

// Lookup looks up a motor constructor by model. nil is returned if there is no constructor
// registered.
func Lookup(model string) Constructor {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[model]
}

// New builds the named model.
func New(ctx context.Context, model string, enc encoder.Encoder, attrs utils.AttributeMap, logger logging.Logger) (Motor, error) {
	constructor := Lookup(model)
	if constructor == nil {
		return nil, utils.NewUnknownModelError("motor", model)
	}
	return constructor(ctx, enc, attrs, logger)
}
