// Package lidar reads 360 degree range scans and keeps the most recent one available to the drive
// loop without blocking it.
package lidar

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/utils"
)

// A Device produces whole scans.
type Device interface {
	// Scan blocks until the next full sweep is available.
	Scan(ctx context.Context) (Measurements, error)
	Close(ctx context.Context) error
}

// A ScanSource hands out the most recent scan without blocking. ok is false before the first
// scan arrives.
type ScanSource interface {
	Latest() (scan Measurements, ok bool)
}

// A Constructor builds a lidar model from its attributes.
type Constructor func(ctx context.Context, attrs utils.AttributeMap, logger logging.Logger) (Device, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// Register registers a lidar model to a constructor.
func Register(model string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, old := registry[model]; old {
		panic(errors.Errorf("trying to register two lidars with same model %s", model))
	}
	registry[model] = constructor
}

// Lookup looks up a lidar constructor by model. nil is returned if there is no constructor
// registered.
func Lookup(model string) Constructor {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[model]
}

// New builds the named model.
func New(ctx context.Context, model string, attrs utils.AttributeMap, logger logging.Logger) (Device, error) {
	constructor := Lookup(model)
	if constructor == nil {
		return nil, utils.NewUnknownModelError("lidar", model)
	}
	return constructor(ctx, attrs, logger)
}
