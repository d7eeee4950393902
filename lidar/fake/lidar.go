// Package fake implements a lidar that plays back scripted scans.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/talaria-robotics/navigator/lidar"
	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/utils"
)

// Model is the config model name of the scripted lidar.
const Model = "fake"

// DefaultScanPeriod is how long one simulated sweep takes.
const DefaultScanPeriod = 100 * time.Millisecond

// Config describes the scans to play back.
type Config struct {
	// Scans are played in order; the last one repeats forever.
	Scans        []lidar.Measurements `json:"scans,omitempty"`
	ScanPeriodMs int                  `json:"scan_period_ms,omitempty"`
}

func init() {
	lidar.Register(Model, func(ctx context.Context, attrs utils.AttributeMap, logger logging.Logger) (lidar.Device, error) {
		conf, err := utils.TransformAttributeMap[*Config](attrs)
		if err != nil {
			return nil, err
		}
		return NewLidar(*conf, clock.New()), nil
	})
}

// Lidar is a scripted lidar.
type Lidar struct {
	mu     sync.Mutex
	scans  []lidar.Measurements
	next   int
	period time.Duration
	clk    clock.Clock
	closed bool
}

var _ lidar.Device = &Lidar{}

// NewLidar returns a lidar playing conf.Scans. With no scans it reports empty sweeps.
func NewLidar(conf Config, clk clock.Clock) *Lidar {
	period := time.Duration(conf.ScanPeriodMs) * time.Millisecond
	if period == 0 {
		period = DefaultScanPeriod
	}
	return &Lidar{scans: conf.Scans, period: period, clk: clk}
}

// Scan waits one sweep and returns the next scripted scan.
func (l *Lidar) Scan(ctx context.Context) (lidar.Measurements, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.clk.After(l.period):
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, errors.New("lidar is closed")
	}
	if len(l.scans) == 0 {
		return lidar.Measurements{}, nil
	}
	scan := l.scans[l.next]
	if l.next < len(l.scans)-1 {
		l.next++
	}
	return append(lidar.Measurements(nil), scan...), nil
}

// SetScan replaces the script with a single scan repeated forever.
func (l *Lidar) SetScan(scan lidar.Measurements) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.scans = []lidar.Measurements{scan}
	l.next = 0
}

// Close makes further scans fail.
func (l *Lidar) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
