package robot

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/talaria-robotics/navigator/floorplan"
	"github.com/talaria-robotics/navigator/logging"
)

// watchFloorPlan returns a worker that calls reload whenever the floor plan file is written or
// replaced. The directory is watched rather than the file so that editors that save by renaming
// a new file over the old one are seen.
func watchFloorPlan(path string, reload func() error, logger logging.Logger) (func(context.Context), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "watching %q", path), watcher.Close())
	}
	target := filepath.Clean(path)

	return func(ctx context.Context) {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Debugw("closing floor plan watcher", "error", err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if err := reload(); err != nil {
					logger.Warnw("floor plan changed but could not be loaded; keeping the previous one", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("floor plan watcher error", "error", err)
			}
		}
	}, nil
}

// loadFloorPlan reads the floor plan and makes sure it has somewhere to deliver to.
func loadFloorPlan(path string) (*floorplan.Graph, error) {
	g, err := floorplan.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(g.Rooms()) == 0 {
		return nil, errors.Errorf("floor plan %q has no rooms", path)
	}
	return g, nil
}
